package pipeline

import "fmt"

// CancelledError reports a batch stopped between points by its context.
type CancelledError struct {
	Processed int
	Remaining int
	Cause     error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("batch cancelled after %d points (%d remaining): %v", e.Processed, e.Remaining, e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }
