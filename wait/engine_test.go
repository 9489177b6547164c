package wait

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/probekit/vigil/condition"
	"github.com/probekit/vigil/observe"
	"github.com/probekit/vigil/policy"
	"github.com/probekit/vigil/probe"
	"github.com/probekit/vigil/probe/probetest"
)

// fakeClock advances only when the engine sleeps, so tests cover exact
// timing without real waiting.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(clock *fakeClock) *Engine {
	e := NewEngine(WithClock(clock.Now))
	e.sleep = func(_ context.Context, d time.Duration) error {
		clock.Advance(d)
		return nil
	}
	return e
}

func testPolicy(timeout, interval time.Duration) policy.WaitPolicy {
	return policy.WaitPolicy{Timeout: timeout, PollInterval: interval}
}

func readyAfter(calls int) condition.Condition[int] {
	n := 0
	return condition.New("ready after calls", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		n++
		if n >= calls {
			return condition.Ready(n), nil
		}
		return condition.NotYet[int](), nil
	})
}

func neverReady() condition.Condition[int] {
	return condition.New("never ready", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		return condition.NotYet[int](), nil
	})
}

func TestRun_ImmediateSuccess(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)
	slept := false
	e.sleep = func(context.Context, time.Duration) error {
		slept = true
		return nil
	}

	res, err := Run(context.Background(), e, probetest.New(), readyAfter(1), testPolicy(5*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TimedOut {
		t.Fatalf("unexpected timeout")
	}
	if res.Attempts != 1 {
		t.Fatalf("attempts=%d, want 1", res.Attempts)
	}
	if res.Elapsed != 0 {
		t.Fatalf("elapsed=%v, want 0", res.Elapsed)
	}
	if slept {
		t.Fatalf("engine slept before an already-ready condition")
	}
}

func TestRun_TimeoutAttemptsAndLastErr(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	res, err := Run(context.Background(), e, probetest.New(), neverReady(), testPolicy(5*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected timeout")
	}
	// Polls at 0, 0.5s, ..., 5.0s inclusive.
	if res.Attempts != 11 {
		t.Fatalf("attempts=%d, want 11", res.Attempts)
	}
	if res.LastErr != nil {
		t.Fatalf("lastErr=%v, want nil for a condition that never errored", res.LastErr)
	}
	if res.Elapsed != 5*time.Second {
		t.Fatalf("elapsed=%v, want 5s", res.Elapsed)
	}
}

func TestRun_TransientErrorsThenReady(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	calls := 0
	cond := condition.New("flaky", func(context.Context, probe.Probe) (condition.Outcome[string], error) {
		calls++
		if calls <= 3 {
			return condition.NotYet[string](), condition.Transient(probe.NotFound("#banner"))
		}
		return condition.Ready("found"), nil
	})

	res, err := Run(context.Background(), e, probetest.New(), cond, testPolicy(5*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TimedOut {
		t.Fatalf("unexpected timeout")
	}
	if res.Value != "found" {
		t.Fatalf("value=%q, want %q", res.Value, "found")
	}
	if res.Attempts != 4 {
		t.Fatalf("attempts=%d, want 4", res.Attempts)
	}
	if res.Elapsed != 1500*time.Millisecond {
		t.Fatalf("elapsed=%v, want 1.5s", res.Elapsed)
	}
}

func TestRun_TimeoutCarriesLastTransientError(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	cond := condition.New("always detached", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		return condition.NotYet[int](), condition.Transient(probe.Detached("#spinner"))
	})

	res, err := Run(context.Background(), e, probetest.New(), cond, testPolicy(1*time.Second, 250*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected timeout")
	}
	if !probe.IsKind(res.LastErr, probe.KindDetached) {
		t.Fatalf("lastErr=%v, want detached probe error", res.LastErr)
	}

	terr := res.Err()
	if terr == nil {
		t.Fatalf("expected timeout error")
	}
	msg := terr.Error()
	if !strings.Contains(msg, "always detached") || !strings.Contains(msg, "detached") {
		t.Fatalf("unhelpful timeout message: %q", msg)
	}
}

func TestRun_FatalShortCircuit(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	boom := errors.New("session exploded")
	calls := 0
	cond := condition.New("doomed", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		calls++
		return condition.NotYet[int](), probe.SessionClosed(boom)
	})

	_, err := Run(context.Background(), e, probetest.New(), cond, testPolicy(time.Hour, time.Second))
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
	var ferr *FatalError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FatalError, got %T", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("fatal wrapper lost the original error identity")
	}
}

func TestRun_PolicyIgnoredKindsUnion(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	// The condition does not mark the error transient; the policy does.
	cond := condition.New("unmarked", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		return condition.NotYet[int](), probe.NotFound("#x")
	})

	pol := testPolicy(1*time.Second, 250*time.Millisecond)
	pol.IgnoredKinds = []probe.ErrorKind{probe.KindNotFound}

	res, err := Run(context.Background(), e, probetest.New(), cond, pol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected timeout, not fatal abort")
	}
	if !probe.IsKind(res.LastErr, probe.KindNotFound) {
		t.Fatalf("lastErr=%v, want not_found", res.LastErr)
	}
}

func TestRun_SessionClosedNeverIgnored(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	cond := condition.New("closed", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		return condition.NotYet[int](), probe.SessionClosed(errors.New("gone"))
	})

	// A policy cannot ignore session_closed; Validate rejects it outright.
	pol := testPolicy(time.Second, 100*time.Millisecond)
	pol.IgnoredKinds = []probe.ErrorKind{probe.KindSessionClosed}

	_, err := Run(context.Background(), e, probetest.New(), cond, pol)
	var cerr *policy.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRun_ConfigErrorsBeforeAnyPoll(t *testing.T) {
	cases := []struct {
		name string
		pol  policy.WaitPolicy
	}{
		{name: "zero timeout", pol: testPolicy(0, time.Second)},
		{name: "negative timeout", pol: testPolicy(-time.Second, time.Second)},
		{name: "zero interval", pol: testPolicy(time.Second, 0)},
		{name: "negative interval", pol: testPolicy(time.Second, -time.Millisecond)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := newFakeClock()
			e := newTestEngine(clock)
			calls := 0
			cond := condition.New("untouched", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
				calls++
				return condition.Ready(1), nil
			})

			_, err := Run(context.Background(), e, probetest.New(), cond, tc.pol)
			var cerr *policy.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if calls != 0 {
				t.Fatalf("condition evaluated %d times on invalid policy", calls)
			}
		})
	}
}

func TestRun_IntervalClampedToRemainingBudget(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	// Interval far larger than the budget: one immediate attempt plus one
	// final attempt at the deadline boundary, nothing more.
	res, err := Run(context.Background(), e, probetest.New(), neverReady(), testPolicy(1*time.Second, 10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected timeout")
	}
	if res.Attempts != 2 {
		t.Fatalf("attempts=%d, want 2", res.Attempts)
	}
	if res.Elapsed != 1*time.Second {
		t.Fatalf("elapsed=%v, want 1s", res.Elapsed)
	}
}

func TestRun_SuccessOnFinalAttemptBeatsTimeout(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	// Ready exactly on the attempt that lands on the deadline.
	res, err := Run(context.Background(), e, probetest.New(), readyAfter(3), testPolicy(1*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TimedOut {
		t.Fatalf("success on the final attempt must beat the timeout")
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts=%d, want 3", res.Attempts)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, e, probetest.New(), neverReady(), testPolicy(time.Hour, time.Second))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_CancellationDuringSleep(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	ctx, cancel := context.WithCancel(context.Background())
	e.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := Run(ctx, e, probetest.New(), neverReady(), testPolicy(time.Hour, time.Second))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_PanicRecovered(t *testing.T) {
	clock := newFakeClock()
	e := NewEngine(WithClock(clock.Now), WithRecoverPanics(true))
	e.sleep = func(context.Context, time.Duration) error { return nil }

	cond := condition.New("panicky", func(context.Context, probe.Probe) (condition.Outcome[int], error) {
		panic("boom")
	})

	_, err := Run(context.Background(), e, probetest.New(), cond, testPolicy(time.Second, 100*time.Millisecond))
	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if perr.Value != "boom" || len(perr.Stack) == 0 {
		t.Fatalf("panic context missing: %+v", perr)
	}
}

func TestRun_IdempotentRerun(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	p := probetest.Static(&probetest.Node{VisibleVal: true})
	cond := condition.Visible("#banner")

	for i := 0; i < 2; i++ {
		res, err := Run(context.Background(), e, p, cond, testPolicy(time.Second, 100*time.Millisecond))
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if res.TimedOut || res.Attempts != 1 {
			t.Fatalf("run %d: res=%+v, want one-poll success", i, res)
		}
	}
	if p.Calls() != 2 {
		t.Fatalf("probe calls=%d, want 2 read-only queries", p.Calls())
	}
}

func TestRun_PresenceScenario(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	// Probe reports no match for the first 3 queries, then a node.
	p := probetest.New(
		probetest.Step{},
		probetest.Step{},
		probetest.Step{},
		probetest.Step{Nodes: []probe.Node{&probetest.Node{VisibleVal: true}}},
	)

	res, err := Run(context.Background(), e, p, condition.Presence("#banner"), testPolicy(5*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TimedOut {
		t.Fatalf("unexpected timeout")
	}
	if res.Attempts != 4 {
		t.Fatalf("attempts=%d, want 4", res.Attempts)
	}
	if res.Elapsed != 1500*time.Millisecond {
		t.Fatalf("elapsed=%v, want 1.5s", res.Elapsed)
	}
	if res.Value == nil {
		t.Fatalf("expected the matched node as the value")
	}
}

func TestRun_GoneImmediately(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	res, err := Run(context.Background(), e, probetest.New(), condition.Gone("#spinner"), testPolicy(5*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TimedOut || res.Attempts != 1 || res.Elapsed != 0 {
		t.Fatalf("res=%+v, want zero-wait success", res)
	}
}

func TestRun_NilEngineUsesDefault(t *testing.T) {
	p := probetest.Static(&probetest.Node{VisibleVal: true})
	res, err := Run(context.Background(), nil, p, condition.Presence("#x"), testPolicy(time.Second, 100*time.Millisecond))
	if err != nil || res.TimedOut {
		t.Fatalf("res=%+v err=%v, want success", res, err)
	}
}

func TestRunWithTimeline_RecordsPolls(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	res, tl, err := RunWithTimeline(context.Background(), e, probetest.New(), readyAfter(3), testPolicy(5*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Polls) != res.Attempts {
		t.Fatalf("timeline polls=%d, attempts=%d", len(tl.Polls), res.Attempts)
	}
	if tl.Polls[0].Status != observe.PollNotYet {
		t.Fatalf("first poll status=%v, want not_yet", tl.Polls[0].Status)
	}
	if last := tl.Polls[len(tl.Polls)-1]; last.Status != observe.PollReady || last.Delay != 500*time.Millisecond {
		t.Fatalf("last poll=%+v, want ready after 500ms delay", last)
	}
	if tl.Elapsed() != res.Elapsed {
		t.Fatalf("timeline elapsed=%v, result elapsed=%v", tl.Elapsed(), res.Elapsed)
	}
}

func TestRun_TimelineCaptureFromContext(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	ctx, capture := observe.RecordTimeline(context.Background())
	res, err := Run(ctx, e, probetest.New(), neverReady(), testPolicy(1*time.Second, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tl := capture.Timeline()
	if tl == nil {
		t.Fatalf("expected captured timeline")
	}
	if !tl.TimedOut {
		t.Fatalf("captured timeline not marked timed out")
	}
	if len(tl.Polls) != res.Attempts {
		t.Fatalf("captured polls=%d, attempts=%d", len(tl.Polls), res.Attempts)
	}
}

func TestEngineDo_FoldsTimeoutIntoError(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(clock)

	err := e.Do(context.Background(), probetest.New(), condition.Func("stuck", func(context.Context, probe.Probe) (bool, error) {
		return false, nil
	}), testPolicy(1*time.Second, 250*time.Millisecond))

	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if !strings.Contains(terr.Error(), "stuck") {
		t.Fatalf("timeout message missing condition description: %q", terr.Error())
	}
}

func TestSleepWithContext(t *testing.T) {
	if err := sleepWithContext(context.Background(), 0); err != nil {
		t.Fatalf("expected nil for zero duration, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, 10*time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
