package wait

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/probekit/vigil/policy"
)

func TestApplyJitterNeverExceedsInterval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		interval := time.Duration(rapid.Int64Range(int64(time.Millisecond), int64(30*time.Second)).Draw(t, "interval"))
		kind := rapid.SampledFrom([]policy.Jitter{policy.JitterNone, policy.JitterFull, policy.JitterEqual}).Draw(t, "kind")

		got := applyJitter(interval, kind)
		if got < 0 || got > interval {
			t.Fatalf("applyJitter(%v, %v) = %v, out of [0, interval]", interval, kind, got)
		}
		if kind == policy.JitterEqual && got < interval/2 {
			t.Fatalf("equal jitter below half: %v < %v", got, interval/2)
		}
	})
}

func TestNextIntervalMonotoneUpToCap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		current := time.Duration(rapid.Int64Range(int64(time.Millisecond), int64(10*time.Second)).Draw(t, "current"))
		multiplier := rapid.Float64Range(1, 10).Draw(t, "multiplier")
		max := time.Duration(rapid.Int64Range(int64(time.Millisecond), int64(30*time.Second)).Draw(t, "max"))

		got := nextInterval(current, multiplier, max)
		if got > max {
			t.Fatalf("nextInterval exceeded cap: %v > %v", got, max)
		}
		if current <= max && got < current && got != max {
			t.Fatalf("interval shrank without hitting the cap: %v -> %v", current, got)
		}
	})
}
