package domain

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed request before the pipeline runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResolutionError reports an address that could not be geocoded.
type ResolutionError struct {
	Address string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to geocode address %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("failed to geocode address %q", e.Address)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// SolverError reports that no feasible route was found for an n-node matrix.
type SolverError struct {
	Nodes int
	Err   error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("no feasible route for %dx%d matrix: %v", e.Nodes, e.Nodes, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	var ve *ValidationError
	var re *ResolutionError
	return errors.As(err, &ve) || errors.As(err, &re)
}
