// Package consistency cross-checks the port declarations of a pipeline
// against its deployment documents. The checker reports; it never mutates
// and never repairs.
package consistency

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// =============================================================================
// Mismatch Types
// =============================================================================

// MismatchKind classifies a port inconsistency.
type MismatchKind string

const (
	// AmbiguousPortDeclaration: one container record declares two or more
	// distinct ports.
	AmbiguousPortDeclaration MismatchKind = "ambiguous_port_declaration"

	// CrossDocumentPortMismatch: the pipeline and the deployment documents
	// disagree on a component's port.
	CrossDocumentPortMismatch MismatchKind = "cross_document_port_mismatch"
)

// Mismatch is one detected inconsistency.
type Mismatch struct {
	Document  compose.Kind
	Component string
	Kind      MismatchKind
	Detail    string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s: %s: %s", m.Document, m.Component, m.Kind, m.Detail)
}

// ErrInconsistent is the sentinel wrapped by a failing report.
var ErrInconsistent = errors.New("pipeline and deployment documents are inconsistent")

// Report aggregates the mismatches of one check run.
type Report struct {
	Mismatches []Mismatch
}

// OK reports whether the check found nothing.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Err folds the report into a single error, nil when the report is clean.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		lines = append(lines, m.String())
	}
	return fmt.Errorf("%w:\n%s", ErrInconsistent, strings.Join(lines, "\n"))
}

// =============================================================================
// Checker
// =============================================================================

// Check verifies that every pipeline component with a network address agrees
// on its port with every deployment document that defines the component's
// container. Two rules apply per container record: all port declarations
// inside one record must agree (else AmbiguousPortDeclaration), and the
// agreed value must equal the pipeline port (else CrossDocumentPortMismatch).
// Components without a URL are skipped, as are containers absent from a
// document. A connector URL whose port does not parse fails the whole check:
// a component that cannot be compared is not a component that passed.
func Check(cfg *pipeline.Config, docs map[compose.Kind]*compose.Document) (*Report, error) {
	report := &Report{}

	for _, ref := range cfg.Services.Components() {
		container := cfg.ResolveContainerName(ref.Service.Connector)
		if container == "" {
			continue
		}
		wantPort, err := cfg.ServicePort(ref.Service)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", componentID(ref), err)
		}
		if wantPort == 0 {
			continue
		}

		for _, kind := range compose.Kinds {
			doc, ok := docs[kind]
			if !ok || doc == nil {
				continue
			}
			record, ok := doc.Services[container]
			if !ok {
				continue
			}

			findings := compose.DiscoverPorts(record)
			if len(findings) == 0 {
				continue
			}

			distinct := distinctPorts(findings)
			if len(distinct) > 1 {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Document:  kind,
					Component: container,
					Kind:      AmbiguousPortDeclaration,
					Detail:    describeFindings(findings),
				})
				continue
			}

			if got := distinct[0]; got != wantPort {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Document:  kind,
					Component: container,
					Kind:      CrossDocumentPortMismatch,
					Detail:    fmt.Sprintf("pipeline declares %d, %s declares %d (%s)", wantPort, kind, got, describeFindings(findings)),
				})
			}
		}
	}

	return report, nil
}

func componentID(ref pipeline.ComponentRef) string {
	if ref.Name == "" {
		return ref.Group
	}
	return ref.Group + "." + ref.Name
}

func distinctPorts(findings []compose.PortFinding) []int {
	seen := map[int]bool{}
	var out []int
	for _, f := range findings {
		if !seen[f.Port] {
			seen[f.Port] = true
			out = append(out, f.Port)
		}
	}
	sort.Ints(out)
	return out
}

func describeFindings(findings []compose.PortFinding) string {
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, fmt.Sprintf("%s %s=%d", f.Source, f.Detail, f.Port))
	}
	return strings.Join(parts, ", ")
}
