package bundle

import (
	"errors"
	"fmt"
)

// ErrAcquisition wraps every failure to materialize a reference bundle.
var ErrAcquisition = errors.New("reference bundle acquisition failed")

// ErrCatalog wraps failures to enumerate the components of a bundle.
var ErrCatalog = errors.New("component catalog unavailable")

// SetupError reports that a component's reference data could not be loaded.
// It is isolated to that component rather than aborting the run.
type SetupError struct {
	Component string
	Err       error
}

// Error implements the error interface
func (e *SetupError) Error() string {
	return fmt.Sprintf("component %s: %v", e.Component, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *SetupError) Unwrap() error {
	return e.Err
}
