// Package distribution holds the distribution aggregate: one pipeline
// document plus up to four deployment documents, loaded from and saved to an
// assistant_dists directory. All mutations stay in memory until Save.
package distribution

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// PipelineFilename is the document that defines a distribution directory.
const PipelineFilename = "pipeline_conf.json"

// DistSubdir is the directory under the dream root that holds distributions.
const DistSubdir = "assistant_dists"

// Mandatory infrastructure containers that every deployment document keeps
// through filtering.
const (
	ContainerAgent = "agent"
	ContainerMongo = "mongo"
)

var mandatoryContainers = []string{ContainerAgent, ContainerMongo}

// Distribution is one loaded distribution. Docs holds the deployment
// documents that were present on disk; absent kinds have no entry.
type Distribution struct {
	Name     string
	Path     string
	Root     string
	Pipeline *pipeline.Config
	Docs     map[compose.Kind]*compose.Document
}

// =============================================================================
// Loading
// =============================================================================

// Load reads a distribution from its directory. The pipeline document is
// required; each deployment document is probed by filename and loaded when
// present.
func Load(path string) (*Distribution, error) {
	name := filepath.Base(path)

	data, err := os.ReadFile(filepath.Join(path, PipelineFilename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewError(name, "load", ErrNotADistribution)
		}
		return nil, NewError(name, "load", err)
	}
	cfg, err := ParsePipeline(data)
	if err != nil {
		return nil, NewError(name, "load "+PipelineFilename, err)
	}

	dist := &Distribution{
		Name:     name,
		Path:     path,
		Root:     filepath.Dir(filepath.Dir(path)),
		Pipeline: cfg,
		Docs:     map[compose.Kind]*compose.Document{},
	}

	for _, kind := range compose.Kinds {
		raw, err := os.ReadFile(filepath.Join(path, kind.Filename()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, NewError(name, "load "+kind.Filename(), err)
		}
		doc, err := compose.ParseDocument(kind, raw)
		if err != nil {
			return nil, NewError(name, "load "+kind.Filename(), err)
		}
		dist.Docs[kind] = doc
	}

	return dist, nil
}

// FromName loads the named distribution under root.
func FromName(root, name string) (*Distribution, error) {
	return Load(filepath.Join(root, DistSubdir, name))
}

// List returns the names of all distributions under root, sorted. A
// directory counts when it carries a pipeline document.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, DistSubdir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		marker := filepath.Join(root, DistSubdir, e.Name(), PipelineFilename)
		if _, err := os.Stat(marker); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// New assembles an in-memory distribution rooted under root. Nothing touches
// disk until Save.
func New(root, name string, cfg *pipeline.Config, docs map[compose.Kind]*compose.Document) *Distribution {
	if cfg == nil {
		cfg = &pipeline.Config{Services: pipeline.NewGraph()}
	}
	if cfg.Services == nil {
		cfg.Services = pipeline.NewGraph()
	}
	if docs == nil {
		docs = map[compose.Kind]*compose.Document{}
	}
	return &Distribution{
		Name:     name,
		Path:     filepath.Join(root, DistSubdir, name),
		Root:     root,
		Pipeline: cfg,
		Docs:     docs,
	}
}

// Clone-style deep copy of the whole aggregate.
func (d *Distribution) deepCopy() *Distribution {
	out := &Distribution{
		Name:     d.Name,
		Path:     d.Path,
		Root:     d.Root,
		Pipeline: d.Pipeline.Clone(),
		Docs:     make(map[compose.Kind]*compose.Document, len(d.Docs)),
	}
	for kind, doc := range d.Docs {
		out.Docs[kind] = doc.Clone()
	}
	return out
}

// Doc returns the loaded document of the given kind.
func (d *Distribution) Doc(kind compose.Kind) (*compose.Document, error) {
	doc, ok := d.Docs[kind]
	if !ok {
		return nil, NewError(d.Name, "doc "+kind.String(), ErrMissingDocument)
	}
	return doc, nil
}
