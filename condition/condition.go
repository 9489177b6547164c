// Package condition models a single repeatable check over remote state.
//
// A Condition is evaluated once per poll by the wait engine. "Not satisfied
// yet" is a first-class outcome, not an error: conditions return NotYet when
// the state simply has not settled, and reserve the error channel for probe
// failures. Errors a condition expects to resolve with more polling are
// wrapped with Transient so the engine keeps going.
package condition

import (
	"context"
	"errors"

	"github.com/probekit/vigil/probe"
)

// Outcome is the result of one evaluation: either Ready with a value, or
// NotYet.
type Outcome[T any] struct {
	Ready bool
	Value T
}

// NotYet reports that the condition is not satisfied yet.
func NotYet[T any]() Outcome[T] { return Outcome[T]{} }

// Ready reports that the condition is satisfied, carrying the produced value.
func Ready[T any](v T) Outcome[T] { return Outcome[T]{Ready: true, Value: v} }

// Condition is a pure, repeatable predicate over remote state. Evaluate must
// be read-only with respect to the probe and must not block beyond a single
// state check; the engine owns all waiting. Describe is used in timeout
// diagnostics ("waited 15s for <description>").
type Condition[T any] interface {
	Evaluate(ctx context.Context, p probe.Probe) (Outcome[T], error)
	Describe() string
}

// EvalFunc is the function form of a condition body.
type EvalFunc[T any] func(ctx context.Context, p probe.Probe) (Outcome[T], error)

type funcCondition[T any] struct {
	desc string
	fn   EvalFunc[T]
}

func (c funcCondition[T]) Evaluate(ctx context.Context, p probe.Probe) (Outcome[T], error) {
	return c.fn(ctx, p)
}

func (c funcCondition[T]) Describe() string { return c.desc }

// New builds a Condition from a description and an evaluation function.
func New[T any](desc string, fn EvalFunc[T]) Condition[T] {
	return funcCondition[T]{desc: desc, fn: fn}
}

// Func builds a condition from a caller-supplied boolean predicate. The
// predicate classifies its own errors: wrap with Transient to keep polling,
// return bare errors to abort.
func Func(desc string, fn func(ctx context.Context, p probe.Probe) (bool, error)) Condition[bool] {
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[bool], error) {
		ok, err := fn(ctx, p)
		if err != nil {
			return NotYet[bool](), err
		}
		if !ok {
			return NotYet[bool](), nil
		}
		return Ready(true), nil
	})
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as expected to resolve with more polling. The engine
// records it and continues instead of aborting. Wrapping nil returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// transientIfKind marks err transient when its probe kind is in kinds.
func transientIfKind(err error, kinds ...probe.ErrorKind) error {
	k, ok := probe.KindOf(err)
	if !ok {
		return err
	}
	for _, want := range kinds {
		if k == want {
			return Transient(err)
		}
	}
	return err
}
