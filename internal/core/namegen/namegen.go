// Package namegen generates distribution and component names. Name
// generation is an explicit collaborator rather than a hidden side effect so
// callers can substitute a deterministic generator.
package namegen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator produces unique names derived from a base name.
type Generator interface {
	// Generate returns a fresh name of the form "<base>_<suffix>". The
	// base is lowercased and dash-folded first so generated names stay
	// valid component names.
	Generate(base string) string
}

// =============================================================================
// UUID Generator
// =============================================================================

// uuidGenerator suffixes the base with the first hex group of a random UUID,
// e.g. "faq_2b6d70d8".
type uuidGenerator struct{}

// NewUUID returns the production generator.
func NewUUID() Generator {
	return uuidGenerator{}
}

func (uuidGenerator) Generate(base string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return normalize(base) + "_" + suffix
}

// =============================================================================
// Sequential Generator
// =============================================================================

// sequentialGenerator numbers names deterministically. Test use only.
type sequentialGenerator struct {
	next int
}

// NewSequential returns a deterministic generator counting from 1.
func NewSequential() Generator {
	return &sequentialGenerator{next: 1}
}

func (g *sequentialGenerator) Generate(base string) string {
	name := fmt.Sprintf("%s_%d", normalize(base), g.next)
	g.next++
	return name
}

func normalize(base string) string {
	base = strings.ToLower(strings.TrimSpace(base))
	base = strings.ReplaceAll(base, " ", "_")
	return strings.ReplaceAll(base, "-", "_")
}
