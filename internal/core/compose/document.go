package compose

import (
	"bytes"
	"sort"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Document Kinds
// =============================================================================

// Kind identifies one of the four deployment documents of a distribution.
type Kind string

const (
	KindOverride Kind = "override"
	KindDev      Kind = "dev"
	KindProxy    Kind = "proxy"
	KindLocal    Kind = "local"
)

func (k Kind) String() string {
	return string(k)
}

// Filename returns the on-disk name of a document kind inside the
// distribution directory.
func (k Kind) Filename() string {
	switch k {
	case KindOverride:
		return "docker-compose.override.yml"
	case KindDev:
		return "dev.yml"
	case KindProxy:
		return "proxy.yml"
	case KindLocal:
		return "local.yml"
	}
	return ""
}

// Kinds lists the document kinds in canonical order.
var Kinds = []Kind{KindOverride, KindDev, KindProxy, KindLocal}

// =============================================================================
// Document
// =============================================================================

// DefaultVersion is written when a document carries no compose version.
const DefaultVersion = "3.7"

// Document is one deployment document: a compose file restricted to version
// and services. Container names are the dash-form container identities that
// pipeline connector URLs resolve to.
type Document struct {
	Kind     Kind                  `yaml:"-"`
	Version  string                `yaml:"version,omitempty"`
	Services map[string]*Container `yaml:"services"`
}

// NewDocument returns an empty document of the given kind.
func NewDocument(kind Kind) *Document {
	return &Document{
		Kind:     kind,
		Version:  DefaultVersion,
		Services: map[string]*Container{},
	}
}

// ParseDocument decodes a deployment document, rejecting unknown fields at
// every level of the schema.
func ParseDocument(kind Kind, data []byte) (*Document, error) {
	doc := &Document{Kind: kind}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, NewDocumentError(kind, "", "", err)
	}
	if doc.Services == nil {
		doc.Services = map[string]*Container{}
	}
	return doc, nil
}

// Marshal serializes the document back to YAML.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContainerNames returns the container names in sorted order.
func (d *Document) ContainerNames() []string {
	names := make([]string, 0, len(d.Services))
	for name := range d.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks up a container by name.
func (d *Document) Get(name string) (*Container, error) {
	c, ok := d.Services[name]
	if !ok {
		return nil, NewDocumentError(d.Kind, name, "", ErrUnknownContainer)
	}
	return c, nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Kind:     d.Kind,
		Version:  d.Version,
		Services: make(map[string]*Container, len(d.Services)),
	}
	for name, c := range d.Services {
		out.Services[name] = c.Clone()
	}
	return out
}

// =============================================================================
// Mutation
// =============================================================================

// Add inserts a container. In the functional mode (inPlace false) the
// receiver is left untouched and a modified deep copy is returned.
func (d *Document) Add(name string, c *Container, inPlace bool) (*Document, error) {
	if _, exists := d.Services[name]; exists {
		return nil, NewDocumentError(d.Kind, name, "", ErrDuplicateContainer)
	}
	target := d
	if !inPlace {
		target = d.Clone()
	}
	target.Services[name] = c
	return target, nil
}

// Remove deletes a container by name.
func (d *Document) Remove(name string, inPlace bool) (*Document, error) {
	if _, exists := d.Services[name]; !exists {
		return nil, NewDocumentError(d.Kind, name, "", ErrUnknownContainer)
	}
	target := d
	if !inPlace {
		target = d.Clone()
	}
	delete(target.Services, name)
	return target, nil
}

// Filter returns an independent copy holding only the containers whose name
// appears in keep. Names in keep that the document does not define are
// ignored.
func (d *Document) Filter(keep []string) *Document {
	keepSet := make(map[string]bool, len(keep))
	for _, name := range keep {
		keepSet[name] = true
	}
	out := &Document{
		Kind:     d.Kind,
		Version:  d.Version,
		Services: map[string]*Container{},
	}
	for name, c := range d.Services {
		if keepSet[name] {
			out.Services[name] = c.Clone()
		}
	}
	return out
}

// =============================================================================
// Per-Kind Validation
// =============================================================================

// Validate applies the schema restrictions of the document's kind on top of
// the shared container schema. Dev documents describe mounted-source local
// runs and carry no build or deploy sections; proxy documents describe the
// nginx pass-through containers and must build from the proxy context.
func (d *Document) Validate() error {
	for _, name := range d.ContainerNames() {
		c := d.Services[name]
		if err := validateContainer(d.Kind, name, c); err != nil {
			return err
		}
	}
	return nil
}

func validateContainer(kind Kind, name string, c *Container) error {
	if c.Deploy != nil && c.Deploy.Resources != nil {
		for field, spec := range map[string]*ResourceSpec{
			"deploy.resources.limits":       c.Deploy.Resources.Limits,
			"deploy.resources.reservations": c.Deploy.Resources.Reservations,
		} {
			if spec != nil && !ValidMemoryFormat(spec.Memory) {
				return NewDocumentError(kind, name, field+".memory", ErrInvalidMemoryFormat)
			}
		}
	}

	switch kind {
	case KindDev:
		if c.Build != nil {
			return NewDocumentError(kind, name, "build", ErrForbiddenField)
		}
		if c.Deploy != nil {
			return NewDocumentError(kind, name, "deploy", ErrForbiddenField)
		}
	case KindProxy:
		if c.Command.IsZero() {
			return NewDocumentError(kind, name, "command", ErrMissingField)
		}
		if c.Build == nil {
			return NewDocumentError(kind, name, "build", ErrMissingField)
		}
	}
	return nil
}
