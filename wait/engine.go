// Package wait implements the bounded-polling engine: it re-evaluates a
// condition against a probe at a controlled cadence until the condition is
// satisfied, a fatal error occurs, or the time budget runs out.
package wait

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/probekit/vigil/condition"
	"github.com/probekit/vigil/observe"
	"github.com/probekit/vigil/policy"
	"github.com/probekit/vigil/probe"
)

// Engine executes waits. It holds no per-wait state: independent Run calls
// may share one Engine concurrently, each against its own probe.
type Engine struct {
	observer      observe.Observer
	clock         func() time.Time
	sleep         func(context.Context, time.Duration) error
	limiter       *rate.Limiter
	recoverPanics bool
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Observer observe.Observer
	Clock    func() time.Time

	// Limiter, when set, gates every condition evaluation across all waits
	// sharing this engine. Useful when the remote session rate-limits
	// queries.
	Limiter *rate.Limiter

	// RecoverPanics captures panics raised inside condition evaluation and
	// reports them as fatal PanicErrors instead of unwinding the caller.
	RecoverPanics bool
}

// Option configures an Engine.
type Option func(*EngineOptions)

// WithObserver sets the observer.
func WithObserver(o observe.Observer) Option {
	return func(opts *EngineOptions) { opts.Observer = o }
}

// WithClock sets the clock function.
func WithClock(f func() time.Time) Option {
	return func(opts *EngineOptions) { opts.Clock = f }
}

// WithPollLimiter sets a shared rate limit on condition evaluations.
func WithPollLimiter(l *rate.Limiter) Option {
	return func(opts *EngineOptions) { opts.Limiter = l }
}

// WithRecoverPanics sets whether to capture and report panics in conditions.
func WithRecoverPanics(recover bool) Option {
	return func(opts *EngineOptions) { opts.RecoverPanics = recover }
}

// NewEngine creates an Engine with default options.
func NewEngine(opts ...Option) *Engine {
	var cfg EngineOptions
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngineFromOptions(cfg)
}

// NewEngineFromOptions creates an Engine from a config struct.
func NewEngineFromOptions(opts EngineOptions) *Engine {
	e := &Engine{
		observer:      opts.Observer,
		clock:         opts.Clock,
		limiter:       opts.Limiter,
		recoverPanics: opts.RecoverPanics,
	}

	if e.observer == nil {
		e.observer = observe.NoopObserver{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.sleep == nil {
		e.sleep = sleepWithContext
	}

	return e
}

// Do runs a boolean condition and folds the outcome into a single error:
// nil on success, a *TimeoutError when the budget ran out, or the fatal
// error otherwise.
func (e *Engine) Do(ctx context.Context, p probe.Probe, cond condition.Condition[bool], pol policy.WaitPolicy) error {
	res, err := Run(ctx, e, p, cond, pol)
	if err != nil {
		return err
	}
	return res.Err()
}

// Run polls cond through p under pol until it is Ready, the budget is
// exhausted, or a fatal error occurs.
//
// A timeout is a normal outcome, reported via Result.TimedOut, not an error;
// the returned error is non-nil only for invalid policies, fatal probe
// errors, condition panics, and context cancellation. The first evaluation
// happens immediately with no prior suspension.
func Run[T any](ctx context.Context, e *Engine, p probe.Probe, cond condition.Condition[T], pol policy.WaitPolicy) (Result[T], error) {
	res, _, err := runInternal(ctx, e, p, cond, pol, false)
	return res, err
}

// RunWithTimeline is Run plus the full per-poll timeline for diagnostics.
func RunWithTimeline[T any](ctx context.Context, e *Engine, p probe.Probe, cond condition.Condition[T], pol policy.WaitPolicy) (Result[T], observe.Timeline, error) {
	return runInternal(ctx, e, p, cond, pol, true)
}

func runInternal[T any](ctx context.Context, e *Engine, p probe.Probe, cond condition.Condition[T], pol policy.WaitPolicy, wantTimeline bool) (Result[T], observe.Timeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e == nil {
		e = DefaultEngine()
	} else if e.observer == nil || e.clock == nil || e.sleep == nil {
		e = NewEngineFromOptions(EngineOptions{
			Observer:      e.observer,
			Clock:         e.clock,
			Limiter:       e.limiter,
			RecoverPanics: e.recoverPanics,
		})
	}

	capture, hasCapture := observe.TimelineCaptureFromContext(ctx)
	fullTimeline := wantTimeline || hasCapture || !isNoopObserver(e.observer)

	desc := cond.Describe()
	res := Result[T]{Description: desc}
	start := e.clock()

	tl := observe.Timeline{Description: desc, Start: start}

	finish := func(end time.Time, finalErr error, timedOut bool) observe.Timeline {
		tl.End = end
		tl.FinalErr = finalErr
		tl.TimedOut = timedOut
		if hasCapture {
			capture.Store(&tl)
		}
		return tl
	}

	norm, err := pol.Normalize()
	if err != nil {
		if fullTimeline {
			e.observer.OnStart(ctx, desc, pol)
			e.observer.OnFailure(ctx, desc, finish(e.clock(), err, false))
		} else {
			finish(e.clock(), err, false)
		}
		return res, tl, err
	}

	if fullTimeline {
		tl.Attributes = timelineAttributes(norm)
		e.observer.OnStart(ctx, desc, norm)
	}

	deadline := start.Add(norm.Timeout)
	interval := norm.PollInterval

	// Conditions evaluate under a context that cannot leak an outer
	// timeline capture into nested waits.
	evalCtx := observe.WithoutTimelineCapture(ctx)

	var lastErr error
	var delay time.Duration

	for {
		if err := ctx.Err(); err != nil {
			res.Elapsed = e.clock().Sub(start)
			if fullTimeline {
				e.observer.OnFailure(ctx, desc, finish(e.clock(), err, false))
			} else {
				finish(e.clock(), err, false)
			}
			return res, tl, err
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				res.Elapsed = e.clock().Sub(start)
				if fullTimeline {
					e.observer.OnFailure(ctx, desc, finish(e.clock(), err, false))
				} else {
					finish(e.clock(), err, false)
				}
				return res, tl, err
			}
		}

		res.Attempts++
		pollStart := e.clock()
		pctx := observe.WithPollInfo(evalCtx, observe.PollInfo{Attempt: res.Attempts, Description: desc})

		out, evalErr, panicErr := evaluateWithRecovery(e.recoverPanics, pctx, p, cond)
		pollEnd := e.clock()

		rec := observe.PollRecord{
			Attempt:   res.Attempts,
			StartTime: pollStart,
			EndTime:   pollEnd,
			Delay:     delay,
		}

		if panicErr != nil {
			rec.Status = observe.PollFatalError
			rec.Err = panicErr
			res.Elapsed = pollEnd.Sub(start)
			if fullTimeline {
				tl.Polls = append(tl.Polls, rec)
				e.observer.OnPoll(ctx, desc, rec)
				e.observer.OnFailure(ctx, desc, finish(pollEnd, panicErr, false))
			} else {
				finish(pollEnd, panicErr, false)
			}
			return res, tl, panicErr
		}

		if evalErr == nil && out.Ready {
			rec.Status = observe.PollReady
			res.Value = out.Value
			res.Elapsed = pollEnd.Sub(start)
			if fullTimeline {
				tl.Polls = append(tl.Polls, rec)
				e.observer.OnPoll(ctx, desc, rec)
				e.observer.OnSuccess(ctx, desc, finish(pollEnd, nil, false))
			} else {
				finish(pollEnd, nil, false)
			}
			return res, tl, nil
		}

		if evalErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && isContextError(evalErr) {
				res.Elapsed = pollEnd.Sub(start)
				if fullTimeline {
					e.observer.OnFailure(ctx, desc, finish(pollEnd, ctxErr, false))
				} else {
					finish(pollEnd, ctxErr, false)
				}
				return res, tl, ctxErr
			}

			if !isTransient(evalErr, norm) {
				rec.Status = observe.PollFatalError
				rec.Err = evalErr
				res.Elapsed = pollEnd.Sub(start)
				ferr := &FatalError{
					Description: desc,
					Elapsed:     res.Elapsed,
					Attempts:    res.Attempts,
					Err:         evalErr,
				}
				if fullTimeline {
					tl.Polls = append(tl.Polls, rec)
					e.observer.OnPoll(ctx, desc, rec)
					e.observer.OnFailure(ctx, desc, finish(pollEnd, ferr, false))
				} else {
					finish(pollEnd, ferr, false)
				}
				return res, tl, ferr
			}

			rec.Status = observe.PollTransientError
			rec.Err = evalErr
			lastErr = evalErr
		} else {
			rec.Status = observe.PollNotYet
		}

		if fullTimeline {
			tl.Polls = append(tl.Polls, rec)
			e.observer.OnPoll(ctx, desc, rec)
		}

		// Evaluate-before-deadline-check ordering: a Ready result on the
		// final permitted attempt beats the timeout.
		if !pollEnd.Before(deadline) {
			res.TimedOut = true
			res.LastErr = lastErr
			res.Elapsed = pollEnd.Sub(start)
			if fullTimeline {
				e.observer.OnTimeout(ctx, desc, finish(pollEnd, lastErr, true))
			} else {
				finish(pollEnd, lastErr, true)
			}
			return res, tl, nil
		}

		d := applyJitter(interval, norm.Jitter)
		if remaining := deadline.Sub(pollEnd); d > remaining {
			d = remaining
		}
		if err := e.sleep(ctx, d); err != nil {
			res.Elapsed = e.clock().Sub(start)
			if fullTimeline {
				e.observer.OnFailure(ctx, desc, finish(e.clock(), err, false))
			} else {
				finish(e.clock(), err, false)
			}
			return res, tl, err
		}
		delay = d

		interval = nextInterval(interval, norm.IntervalMultiplier, norm.MaxInterval)
	}
}

func evaluateWithRecovery[T any](recoverPanics bool, ctx context.Context, p probe.Probe, cond condition.Condition[T]) (out condition.Outcome[T], err error, panicErr error) {
	if recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				panicErr = newPanicError(cond.Describe(), r)
			}
		}()
	}
	out, err = cond.Evaluate(ctx, p)
	return out, err, nil
}

// isTransient applies the union semantics: an error is transient if the
// condition marked it so, or its kind is in the policy's ignore set. A
// closed session is never transient.
func isTransient(err error, pol policy.WaitPolicy) bool {
	if condition.IsTransient(err) {
		return true
	}
	if k, ok := probe.KindOf(err); ok && k != probe.KindSessionClosed && pol.IgnoresKind(k) {
		return true
	}
	return false
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isNoopObserver(obs observe.Observer) bool {
	switch obs.(type) {
	case observe.NoopObserver, *observe.NoopObserver:
		return true
	default:
		return false
	}
}

func timelineAttributes(pol policy.WaitPolicy) map[string]string {
	attrs := make(map[string]string, 2)
	if pol.Meta.Preset != "" {
		attrs["preset"] = pol.Meta.Preset
	}
	if pol.Meta.Normalization.Changed {
		attrs["normalized_fields"] = strings.Join(pol.Meta.Normalization.ChangedFields, ",")
	}
	return attrs
}
