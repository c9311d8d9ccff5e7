package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by dependent operations before the first
	// successful catalog load.
	ErrNotLoaded = errors.New("resolver: catalog not loaded")

	// ErrUnknownOption is returned when a value is not in the field's option set.
	ErrUnknownOption = errors.New("resolver: value not in option set")

	// ErrSuperseded is returned by LoadCatalog when a newer load replaced it
	// before the catalog was loaded.
	ErrSuperseded = errors.New("resolver: catalog load superseded")
)

// NetworkError reports a failed request or a non-2xx response.
type NetworkError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DataShapeError reports a response with success=false or without the
// expected array.
type DataShapeError struct {
	Endpoint string
	Reason   string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Reason)
}
