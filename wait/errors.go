package wait

import (
	"fmt"
	"runtime/debug"
	"time"
)

// TimeoutError reports that a wait's budget ran out before the condition
// became ready. Produced by Result.Err, never returned by Run directly.
type TimeoutError struct {
	Description string
	Elapsed     time.Duration
	Attempts    int
	LastErr     error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("vigil: waited %v for %s (%d polls): last error: %v", e.Elapsed, e.Description, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("vigil: waited %v for %s (%d polls): condition never became ready", e.Elapsed, e.Description, e.Attempts)
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// FatalError wraps a non-transient probe error with the wait's context. The
// underlying error keeps its identity through Unwrap.
type FatalError struct {
	Description string
	Elapsed     time.Duration
	Attempts    int
	Err         error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("vigil: wait for %s aborted after %v (%d polls): %v", e.Description, e.Elapsed, e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// PanicError reports a panic recovered from inside condition evaluation.
type PanicError struct {
	Description string
	Value       any
	Stack       []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("vigil: panic evaluating %s: %v", e.Description, e.Value)
}

func newPanicError(desc string, value any) *PanicError {
	return &PanicError{Description: desc, Value: value, Stack: debug.Stack()}
}
