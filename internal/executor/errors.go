package executor

import (
	"fmt"
)

// RunPhase is the setup phase of a run that failed.
type RunPhase int

const (
	// PhaseAcquisition represents failures materializing the reference bundle.
	PhaseAcquisition RunPhase = iota
	// PhaseCatalog represents failures enumerating components.
	PhaseCatalog
)

// String returns the string representation of RunPhase.
func (p RunPhase) String() string {
	switch p {
	case PhaseAcquisition:
		return "acquisition"
	case PhaseCatalog:
		return "catalog"
	default:
		return "unknown"
	}
}

// RunError is a fatal setup failure. No comparisons ran and no report exists.
type RunError struct {
	Phase   RunPhase
	Version string
	Err     error
}

// Error implements the error interface for RunError.
func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed for version %s: %v", e.Phase, e.Version, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *RunError) Unwrap() error {
	return e.Err
}
