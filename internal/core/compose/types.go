package compose

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Union-Typed Fields
// =============================================================================

// Command is a container command in either of the two compose forms: a
// single shell string or an argv list. The original form is remembered so a
// document round-trips byte-identically.
type Command struct {
	Shell string
	Argv  []string
	list  bool
}

// ShellCommand wraps a shell-form command.
func ShellCommand(s string) Command {
	return Command{Shell: s}
}

// ArgvCommand wraps a list-form command.
func ArgvCommand(argv ...string) Command {
	return Command{Argv: argv, list: true}
}

// IsZero reports whether the command is unset. Used by yaml omitempty.
func (c Command) IsZero() bool {
	return c.Shell == "" && !c.list
}

// String returns the shell form, joining argv lists with spaces.
func (c Command) String() string {
	if c.list {
		out := ""
		for i, a := range c.Argv {
			if i > 0 {
				out += " "
			}
			out += a
		}
		return out
	}
	return c.Shell
}

func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.list = false
		c.Argv = nil
		return node.Decode(&c.Shell)
	case yaml.SequenceNode:
		c.list = true
		c.Shell = ""
		return node.Decode(&c.Argv)
	}
	return fmt.Errorf("command: %w", ErrUnexpectedNode)
}

func (c Command) MarshalYAML() (interface{}, error) {
	if c.list {
		return c.Argv, nil
	}
	return c.Shell, nil
}

// Clone returns a deep copy.
func (c Command) Clone() Command {
	out := c
	if c.Argv != nil {
		out.Argv = append([]string(nil), c.Argv...)
	}
	return out
}

// Mapping is a compose key-value section (environment, build args) in either
// of its two forms: a mapping or a list of KEY=VALUE strings. Lookups see
// both forms; marshaling reproduces the original one.
type Mapping struct {
	pairs []mappingPair
	list  bool
}

type mappingPair struct {
	key   string
	value string
}

// MapForm builds a map-form Mapping with deterministic key order.
func MapForm(kv map[string]string) Mapping {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := Mapping{}
	for _, k := range keys {
		m.pairs = append(m.pairs, mappingPair{key: k, value: kv[k]})
	}
	return m
}

// IsZero reports whether the mapping has no entries.
func (m Mapping) IsZero() bool {
	return len(m.pairs) == 0
}

// Len returns the number of entries.
func (m Mapping) Len() int {
	return len(m.pairs)
}

// Get returns the value for key and whether it is present.
func (m Mapping) Get(key string) (string, bool) {
	for _, p := range m.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Set replaces the value for key, appending when absent.
func (m *Mapping) Set(key, value string) {
	for i, p := range m.pairs {
		if p.key == key {
			m.pairs[i].value = value
			return
		}
	}
	m.pairs = append(m.pairs, mappingPair{key: key, value: value})
}

// Keys returns the keys in document order.
func (m Mapping) Keys() []string {
	out := make([]string, 0, len(m.pairs))
	for _, p := range m.pairs {
		out = append(out, p.key)
	}
	return out
}

func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		m.list = false
		m.pairs = nil
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key, value string
			if err := node.Content[i].Decode(&key); err != nil {
				return err
			}
			if err := node.Content[i+1].Decode(&value); err != nil {
				return err
			}
			m.pairs = append(m.pairs, mappingPair{key: key, value: value})
		}
		return nil
	case yaml.SequenceNode:
		m.list = true
		m.pairs = nil
		var entries []string
		if err := node.Decode(&entries); err != nil {
			return err
		}
		for _, e := range entries {
			key, value := e, ""
			for i := 0; i < len(e); i++ {
				if e[i] == '=' {
					key, value = e[:i], e[i+1:]
					break
				}
			}
			m.pairs = append(m.pairs, mappingPair{key: key, value: value})
		}
		return nil
	}
	return fmt.Errorf("mapping: %w", ErrUnexpectedNode)
}

func (m Mapping) MarshalYAML() (interface{}, error) {
	if m.list {
		entries := make([]string, 0, len(m.pairs))
		for _, p := range m.pairs {
			entries = append(entries, p.key+"="+p.value)
		}
		return entries, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range m.pairs {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.value},
		)
	}
	return node, nil
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	out := m
	if m.pairs != nil {
		out.pairs = append([]mappingPair(nil), m.pairs...)
	}
	return out
}

// StringList is a compose field accepting a single string or a list of
// strings (env_file). Marshals back in the original form.
type StringList struct {
	Values []string
	single bool
}

// IsZero reports whether the list is empty.
func (l StringList) IsZero() bool {
	return len(l.Values) == 0
}

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		l.single = true
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		l.Values = []string{v}
		return nil
	case yaml.SequenceNode:
		l.single = false
		return node.Decode(&l.Values)
	}
	return fmt.Errorf("string list: %w", ErrUnexpectedNode)
}

func (l StringList) MarshalYAML() (interface{}, error) {
	if l.single && len(l.Values) == 1 {
		return l.Values[0], nil
	}
	return l.Values, nil
}

// Clone returns a deep copy.
func (l StringList) Clone() StringList {
	out := l
	if l.Values != nil {
		out.Values = append([]string(nil), l.Values...)
	}
	return out
}

// =============================================================================
// Container Schema
// =============================================================================

// BuildDefinition is the build section of a container record.
type BuildDefinition struct {
	Context    string  `yaml:"context,omitempty"`
	Dockerfile string  `yaml:"dockerfile,omitempty"`
	Args       Mapping `yaml:"args,omitempty"`
}

// Clone returns a deep copy.
func (b *BuildDefinition) Clone() *BuildDefinition {
	if b == nil {
		return nil
	}
	out := *b
	out.Args = b.Args.Clone()
	return &out
}

// ResourceSpec holds one side of a deploy resources section. Memory values
// stay in their textual compose form ("256M", "2.5G").
type ResourceSpec struct {
	Memory string `yaml:"memory,omitempty"`
	CPUs   string `yaml:"cpus,omitempty"`
}

// DeployResources is the resources section of a deploy block.
type DeployResources struct {
	Limits       *ResourceSpec `yaml:"limits,omitempty"`
	Reservations *ResourceSpec `yaml:"reservations,omitempty"`
}

// DeployDefinition is the deploy section of a container record.
type DeployDefinition struct {
	Mode      string           `yaml:"mode,omitempty"`
	Replicas  int              `yaml:"replicas,omitempty"`
	Resources *DeployResources `yaml:"resources,omitempty"`
}

// Clone returns a deep copy.
func (d *DeployDefinition) Clone() *DeployDefinition {
	if d == nil {
		return nil
	}
	out := *d
	if d.Resources != nil {
		res := DeployResources{}
		if d.Resources.Limits != nil {
			l := *d.Resources.Limits
			res.Limits = &l
		}
		if d.Resources.Reservations != nil {
			r := *d.Resources.Reservations
			res.Reservations = &r
		}
		out.Resources = &res
	}
	return &out
}

// memoryFormatRegex matches compose memory amounts such as "256M" and "2.5G".
var memoryFormatRegex = regexp.MustCompile(`^\d+(\.\d+)?[bkmgBKMG]$`)

// ValidMemoryFormat reports whether s is a well-formed compose memory amount.
// The empty string is valid (unset).
func ValidMemoryFormat(s string) bool {
	return s == "" || memoryFormatRegex.MatchString(s)
}

// Container is one service record of a deployment document. A single
// superset schema covers all four document kinds; Validate applies the
// per-kind field restrictions.
type Container struct {
	Image       string            `yaml:"image,omitempty"`
	Build       *BuildDefinition  `yaml:"build,omitempty"`
	Command     Command           `yaml:"command,omitempty"`
	Entrypoint  Command           `yaml:"entrypoint,omitempty"`
	Environment Mapping           `yaml:"environment,omitempty"`
	EnvFile     StringList        `yaml:"env_file,omitempty"`
	Volumes     []string          `yaml:"volumes,omitempty"`
	Ports       []string          `yaml:"ports,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Deploy      *DeployDefinition `yaml:"deploy,omitempty"`
	Restart     string            `yaml:"restart,omitempty"`
	Tty         bool              `yaml:"tty,omitempty"`
}

// Clone returns a deep copy.
func (c *Container) Clone() *Container {
	if c == nil {
		return nil
	}
	out := *c
	out.Build = c.Build.Clone()
	out.Command = c.Command.Clone()
	out.Entrypoint = c.Entrypoint.Clone()
	out.Environment = c.Environment.Clone()
	out.EnvFile = c.EnvFile.Clone()
	out.Deploy = c.Deploy.Clone()
	if c.Volumes != nil {
		out.Volumes = append([]string(nil), c.Volumes...)
	}
	if c.Ports != nil {
		out.Ports = append([]string(nil), c.Ports...)
	}
	if c.DependsOn != nil {
		out.DependsOn = append([]string(nil), c.DependsOn...)
	}
	return &out
}
