// Package otel traces waits: one span per wait with a poll event per
// evaluation and outcome attributes.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/probekit/vigil/condition"
	"github.com/probekit/vigil/policy"
	"github.com/probekit/vigil/probe"
	"github.com/probekit/vigil/wait"
)

// Run wraps wait.RunWithTimeline in a span named "vigil.wait". Fatal errors
// mark the span as errored; a timeout is recorded as a normal outcome
// attribute, matching the engine's view that timeouts are results.
func Run[T any](ctx context.Context, tracer trace.Tracer, e *wait.Engine, p probe.Probe, cond condition.Condition[T], pol policy.WaitPolicy) (wait.Result[T], error) {
	ctx, span := tracer.Start(ctx, "vigil.wait", trace.WithAttributes(
		attribute.String("vigil.condition", cond.Describe()),
		attribute.Int64("vigil.timeout_ms", pol.Timeout.Milliseconds()),
		attribute.Int64("vigil.poll_interval_ms", pol.PollInterval.Milliseconds()),
	))
	defer span.End()

	res, tl, err := wait.RunWithTimeline(ctx, e, p, cond, pol)

	for _, rec := range tl.Polls {
		attrs := []attribute.KeyValue{
			attribute.Int("vigil.attempt", rec.Attempt),
			attribute.String("vigil.status", rec.Status.String()),
			attribute.Int64("vigil.delay_ms", rec.Delay.Milliseconds()),
		}
		if rec.Err != nil {
			attrs = append(attrs, attribute.String("vigil.poll_error", rec.Err.Error()))
		}
		span.AddEvent("poll", trace.WithTimestamp(rec.EndTime), trace.WithAttributes(attrs...))
	}

	span.SetAttributes(
		attribute.Int("vigil.polls", res.Attempts),
		attribute.Int64("vigil.elapsed_ms", res.Elapsed.Milliseconds()),
		attribute.String("vigil.outcome", outcomeOf(res.TimedOut, err)),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return res, err
}

func outcomeOf(timedOut bool, err error) string {
	switch {
	case err != nil:
		return "fatal"
	case timedOut:
		return "timeout"
	default:
		return "success"
	}
}
