package connector

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedAddress is returned when a connector URL does not fit the
	// protocol://{host}:{port}/{endpoint} format.
	ErrMalformedAddress = errors.New("malformed connector address")

	// ErrPortParse is returned when a connector URL exists but its port
	// segment is not an integer.
	ErrPortParse = errors.New("connector port is not an integer")
)

// AddressError wraps address errors with the offending URL.
type AddressError struct {
	URL string
	Err error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%q does not fit the protocol://{host}:{port}/{endpoint} format", e.URL)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// NewAddressError creates a new AddressError.
func NewAddressError(url string, err error) *AddressError {
	return &AddressError{URL: url, Err: err}
}
