package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotEditableGroup is returned when adding to or removing from a
	// group that is not a recognized multi-valued group.
	ErrNotEditableGroup = errors.New("group is not editable")

	// ErrDuplicateComponent is returned when adding a component whose name
	// already exists in the target group.
	ErrDuplicateComponent = errors.New("component already exists")

	// ErrMissingComponent is returned when the named component is absent
	// from the group.
	ErrMissingComponent = errors.New("component not found")

	// ErrUnknownGroup is returned when the group name is not one of the
	// nine recognized component groups.
	ErrUnknownGroup = errors.New("unknown component group")
)

// GraphError wraps graph mutation errors with the offending group and name.
type GraphError struct {
	Group string
	Name  string
	Err   error
}

func (e *GraphError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s.%s: %s", e.Group, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Group, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// NewGraphError creates a new GraphError.
func NewGraphError(group, name string, err error) *GraphError {
	return &GraphError{Group: group, Name: name, Err: err}
}
