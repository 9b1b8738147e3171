package distribution

import (
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// =============================================================================
// Filtering
// =============================================================================

// Filter narrows the distribution to the dependency closure of seeds. Every
// deployment document is intersected with the closure's container identities;
// the agent and mongo infrastructure containers survive regardless. The
// result is fully independent of the receiver.
func (d *Distribution) Filter(seeds []string) *Distribution {
	closure := pipeline.Close(d.Pipeline, seeds)

	keep := append([]string(nil), closure.Names...)
	keep = append(keep, mandatoryContainers...)

	out := &Distribution{
		Name:     d.Name,
		Path:     d.Path,
		Root:     d.Root,
		Pipeline: closure.Config,
		Docs:     make(map[compose.Kind]*compose.Document, len(d.Docs)),
	}
	for kind, doc := range d.Docs {
		out.Docs[kind] = doc.Filter(keep)
	}
	return out
}
