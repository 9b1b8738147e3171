package deploy

import (
	"strings"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/connector"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/distribution"
)

// =============================================================================
// URL Namespacing
// =============================================================================

// Namespace prefixes every container identity of a distribution so several
// user deployments can share one swarm. Connector URL hosts, document service
// keys and the agent's WAIT_HOSTS list are all rewritten in lockstep; the
// agent and mongo infrastructure containers stay unprefixed. Ports and
// endpoints survive byte for byte. The receiver is not modified.
func Namespace(dist *distribution.Distribution, prefix string) (*distribution.Distribution, error) {
	out := dist.CloneAs(distribution.CloneOptions{Name: dist.Name})
	out.Path = dist.Path
	out.Pipeline.Metadata = dist.Pipeline.Metadata.Clone()

	for name, spec := range out.Pipeline.Connectors {
		if spec.URL == "" {
			continue
		}
		rebased, err := connector.Rebase(spec.URL, prefix)
		if err != nil {
			return nil, distribution.NewError(dist.Name, "namespace connectors."+name, err)
		}
		spec.URL = rebased
	}
	for _, ref := range out.Pipeline.Services.Components() {
		spec := ref.Service.Connector.Inline
		if spec == nil || spec.URL == "" {
			continue
		}
		rebased, err := connector.Rebase(spec.URL, prefix)
		if err != nil {
			return nil, distribution.NewError(dist.Name, "namespace "+ref.Group, err)
		}
		spec.URL = rebased
	}

	for kind, doc := range out.Docs {
		out.Docs[kind] = prefixDocument(doc, prefix)
	}
	return out, nil
}

func prefixDocument(doc *compose.Document, prefix string) *compose.Document {
	next := compose.NewDocument(doc.Kind)
	next.Version = doc.Version
	for name, c := range doc.Services {
		if !infrastructure(name) {
			name = prefix + name
		}
		if name == distribution.ContainerAgent {
			prefixWaitHosts(c, prefix)
		}
		next.Services[name] = c
	}
	return next
}

func prefixWaitHosts(agent *compose.Container, prefix string) {
	hosts, ok := agent.Environment.Get("WAIT_HOSTS")
	if !ok || hosts == "" {
		return
	}
	pairs := strings.Split(hosts, ",")
	for i, pair := range pairs {
		pairs[i] = prefix + strings.TrimSpace(pair)
	}
	agent.Environment.Set("WAIT_HOSTS", strings.Join(pairs, ", "))
}

func infrastructure(name string) bool {
	return name == distribution.ContainerAgent || name == distribution.ContainerMongo
}
