// Package compose contains pure types and functions for the deployment
// documents of a distribution (override, dev, proxy, local). All functions
// are pure with no I/O.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrUnexpectedNode is returned when a union-typed field holds a YAML
	// node of a shape it does not accept.
	ErrUnexpectedNode = errors.New("unexpected YAML node kind")

	// ErrUnknownContainer is returned when the named container is absent
	// from the document.
	ErrUnknownContainer = errors.New("container not found")

	// ErrDuplicateContainer is returned when adding a container whose name
	// already exists in the document.
	ErrDuplicateContainer = errors.New("container already exists")

	// ErrInvalidMemoryFormat is returned for malformed deploy memory
	// amounts. Valid amounts look like "256M" or "2.5G".
	ErrInvalidMemoryFormat = errors.New("invalid memory format")

	// ErrForbiddenField is returned when a container sets a field the
	// document kind does not allow.
	ErrForbiddenField = errors.New("field not allowed in this document kind")

	// ErrMissingField is returned when a container omits a field the
	// document kind requires.
	ErrMissingField = errors.New("required field missing")
)

// DocumentError wraps document errors with the offending document kind and
// container name.
type DocumentError struct {
	Kind      Kind
	Container string
	Field     string
	Err       error
}

func (e *DocumentError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Err)
	if e.Container != "" {
		msg = fmt.Sprintf("%s: services.%s", e.Kind, e.Container)
		if e.Field != "" {
			msg += "." + e.Field
		}
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NewDocumentError creates a new DocumentError.
func NewDocumentError(kind Kind, container, field string, err error) *DocumentError {
	return &DocumentError{Kind: kind, Container: container, Field: field, Err: err}
}
