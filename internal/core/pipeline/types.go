// Package pipeline contains the pipeline-side configuration model: the
// schema for pipeline_conf.json service records, the component graph over
// the nine service groups, and the dependency-closure resolver.
// This is part of the Functional Core - all functions are pure with no I/O.
package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/connector"
)

// =============================================================================
// Connector Types
// =============================================================================

// ConnectorSpec is an inline connector definition inside a service record or
// the shared connector table.
type ConnectorSpec struct {
	Protocol       string         `json:"protocol,omitempty"`
	Timeout        *float64       `json:"timeout,omitempty"`
	URL            string         `json:"url,omitempty"`
	ClassName      string         `json:"class_name,omitempty"`
	ResponseText   string         `json:"response_text,omitempty"`
	Annotations    map[string]any `json:"annotations,omitempty"`
	AnnotatorNames []string       `json:"annotator_names,omitempty"`
}

// Clone returns a deep copy of the spec.
func (s *ConnectorSpec) Clone() *ConnectorSpec {
	if s == nil {
		return nil
	}
	out := *s
	if s.Timeout != nil {
		t := *s.Timeout
		out.Timeout = &t
	}
	if s.Annotations != nil {
		out.Annotations = make(map[string]any, len(s.Annotations))
		for k, v := range s.Annotations {
			out.Annotations[k] = v
		}
	}
	out.AnnotatorNames = append([]string(nil), s.AnnotatorNames...)
	return &out
}

// Connector is the tagged union of the two connector variants found in
// pipeline documents: a string reference into the shared connector table
// ("connectors.<name>") or an inline ConnectorSpec object.
// Exactly one of Ref and Inline is set.
type Connector struct {
	Ref    string
	Inline *ConnectorSpec
}

// IsRef reports whether the connector is a named reference.
func (c Connector) IsRef() bool { return c.Ref != "" }

// Clone returns a deep copy of the connector.
func (c Connector) Clone() Connector {
	return Connector{Ref: c.Ref, Inline: c.Inline.Clone()}
}

// UnmarshalJSON decodes either variant. Unknown fields in the inline object
// form are rejected so that field absence stays a meaningful signal for the
// consistency checker.
func (c *Connector) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(data, &c.Ref)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	spec := &ConnectorSpec{}
	if err := dec.Decode(spec); err != nil {
		return err
	}
	c.Inline = spec
	return nil
}

// MarshalJSON encodes the variant that is set.
func (c Connector) MarshalJSON() ([]byte, error) {
	if c.IsRef() {
		return json.Marshal(c.Ref)
	}
	return json.Marshal(c.Inline)
}

// =============================================================================
// Service Record
// =============================================================================

// Service is one pipeline node: its connector, formatter references,
// ordering requirements and state-manager hook.
// Entries of PreviousServices and RequiredPreviousServices have the form
// "<group>.<name>".
type Service struct {
	Connector                Connector `json:"connector"`
	DialogFormatter          string    `json:"dialog_formatter,omitempty"`
	ResponseFormatter        string    `json:"response_formatter,omitempty"`
	PreviousServices         []string  `json:"previous_services,omitempty"`
	RequiredPreviousServices []string  `json:"required_previous_services,omitempty"`
	StateManagerMethod       string    `json:"state_manager_method,omitempty"`
	IsEnabled                *bool     `json:"is_enabled,omitempty"`
	Tags                     []string  `json:"tags,omitempty"`
}

// Clone returns a deep copy of the service record.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}
	out := *s
	out.Connector = s.Connector.Clone()
	out.PreviousServices = append([]string(nil), s.PreviousServices...)
	out.RequiredPreviousServices = append([]string(nil), s.RequiredPreviousServices...)
	out.Tags = append([]string(nil), s.Tags...)
	if s.IsEnabled != nil {
		v := *s.IsEnabled
		out.IsEnabled = &v
	}
	return &out
}

// Requirements returns all "<group>.<name>" ordering entries of the service,
// previous services first.
func (s *Service) Requirements() []string {
	out := make([]string, 0, len(s.PreviousServices)+len(s.RequiredPreviousServices))
	out = append(out, s.PreviousServices...)
	out = append(out, s.RequiredPreviousServices...)
	return out
}

// =============================================================================
// Metadata
// =============================================================================

// Metadata holds the distribution-level description embedded in the pipeline
// document.
type Metadata struct {
	DisplayName string    `json:"display_name"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Version     string    `json:"version,omitempty"`
	DateCreated time.Time `json:"date_created,omitempty"`
	RAMUsage    string    `json:"ram_usage,omitempty"`
	GPUUsage    string    `json:"gpu_usage,omitempty"`
	DiskUsage   string    `json:"disk_usage,omitempty"`
}

// Clone returns a copy of the metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

// =============================================================================
// Pipeline Config
// =============================================================================

// Config is the pipeline_conf.json document: the shared connector table, the
// component graph and the distribution metadata.
type Config struct {
	Connectors map[string]*ConnectorSpec `json:"connectors,omitempty"`
	Services   *Graph                    `json:"services"`
	Metadata   *Metadata                 `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the whole document.
func (c *Config) Clone() *Config {
	out := &Config{
		Services: c.Services.Clone(),
		Metadata: c.Metadata.Clone(),
	}
	if c.Connectors != nil {
		out.Connectors = make(map[string]*ConnectorSpec, len(c.Connectors))
		for name, spec := range c.Connectors {
			out.Connectors[name] = spec.Clone()
		}
	}
	return out
}

// resolveSpec resolves a connector to its spec, following a named reference
// into the shared connector table. Returns nil when the reference does not
// resolve.
func (c *Config) resolveSpec(conn Connector) *ConnectorSpec {
	if conn.IsRef() {
		name := strings.TrimPrefix(conn.Ref, "connectors.")
		return c.Connectors[name]
	}
	return conn.Inline
}

// ResolveContainerName resolves the container identity declared by a
// connector: the host segment of its URL. Returns "" for connectors without
// a URL (in-process connector kinds) and for unresolvable references.
func (c *Config) ResolveContainerName(conn Connector) string {
	spec := c.resolveSpec(conn)
	if spec == nil || spec.URL == "" {
		return ""
	}
	host, _, _, err := connector.Parse(spec.URL)
	if err != nil {
		return ""
	}
	return host
}

// ServicePort returns the port declared by the service's connector URL.
// Returns (0, nil) when the connector has no URL. Propagates
// ErrMalformedAddress and ErrPortParse; a silently-defaulted port would
// defeat the consistency checker.
func (c *Config) ServicePort(svc *Service) (int, error) {
	spec := c.resolveSpec(svc.Connector)
	if spec == nil || spec.URL == "" {
		return 0, nil
	}
	addr, err := connector.ParseAddress(spec.URL)
	if err != nil {
		return 0, err
	}
	return addr.PortNumber()
}
