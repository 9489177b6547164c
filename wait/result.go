package wait

import "time"

// Result is the outcome of one wait. When TimedOut is set the wait completed
// normally without the condition becoming ready; Value is the zero value and
// LastErr holds the last transient error observed, if any, so callers can
// tell "never appeared" apart from "appeared then failed a stricter check".
type Result[T any] struct {
	Value    T
	Elapsed  time.Duration
	Attempts int

	TimedOut    bool
	LastErr     error
	Description string
}

// Err converts a timed-out result into a *TimeoutError, for callers that
// treat the condition never becoming ready as a failure. It returns nil for
// successful results.
func (r Result[T]) Err() error {
	if !r.TimedOut {
		return nil
	}
	return &TimeoutError{
		Description: r.Description,
		Elapsed:     r.Elapsed,
		Attempts:    r.Attempts,
		LastErr:     r.LastErr,
	}
}
