// Package vigil is the convenience facade over the wait engine: build a
// condition, pick or tweak a policy, and wait on the default engine.
package vigil

import (
	"context"

	"github.com/probekit/vigil/condition"
	"github.com/probekit/vigil/observe"
	"github.com/probekit/vigil/policy"
	"github.com/probekit/vigil/probe"
	"github.com/probekit/vigil/wait"
)

// Init sets the default engine.
// It must be called before Until/UntilValue are used.
func Init(e *wait.Engine) {
	wait.SetDefault(e)
}

// UntilValue waits on cond with the default engine and returns its produced
// value. A timeout is returned as a *wait.TimeoutError. Policy options are
// applied on top of the default preset; an invalid combination is a
// *policy.ConfigError and no polling happens.
func UntilValue[T any](ctx context.Context, p probe.Probe, cond condition.Condition[T], opts ...policy.Option) (T, error) {
	var zero T
	pol, err := policy.New(opts...)
	if err != nil {
		return zero, err
	}
	res, err := wait.Run(ctx, wait.DefaultEngine(), p, cond, pol)
	if err != nil {
		return res.Value, err
	}
	return res.Value, res.Err()
}

// Until waits on a boolean condition with the default engine.
func Until(ctx context.Context, p probe.Probe, cond condition.Condition[bool], opts ...policy.Option) error {
	_, err := UntilValue(ctx, p, cond, opts...)
	return err
}

// UntilValueWithTimeline is UntilValue plus the full per-poll timeline.
func UntilValueWithTimeline[T any](ctx context.Context, p probe.Probe, cond condition.Condition[T], opts ...policy.Option) (T, observe.Timeline, error) {
	var zero T
	pol, err := policy.New(opts...)
	if err != nil {
		return zero, observe.Timeline{}, err
	}
	res, tl, err := wait.RunWithTimeline(ctx, wait.DefaultEngine(), p, cond, pol)
	if err != nil {
		return res.Value, tl, err
	}
	return res.Value, tl, res.Err()
}
