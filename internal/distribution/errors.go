package distribution

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotADistribution is returned when a directory lacks the pipeline
	// document that defines a distribution.
	ErrNotADistribution = errors.New("not a distribution directory")

	// ErrAlreadyExists is returned at save time when the target directory
	// exists and overwriting was not requested.
	ErrAlreadyExists = errors.New("distribution already exists")

	// ErrMissingDocument is returned when an operation needs a deployment
	// document the distribution did not load.
	ErrMissingDocument = errors.New("deployment document not loaded")
)

// Error wraps distribution-level failures with the distribution name.
type Error struct {
	Name string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("distribution %s: %s: %s", e.Name, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(name, op string, err error) *Error {
	return &Error{Name: name, Op: op, Err: err}
}
