package policy

import "time"

// Default is the general-purpose preset: a 10s budget polled every 250ms.
func Default() WaitPolicy {
	return WaitPolicy{
		Timeout:            10 * time.Second,
		PollInterval:       250 * time.Millisecond,
		IntervalMultiplier: 1,
		Jitter:             JitterNone,
		Meta:               Metadata{Preset: "default"},
	}
}

// Fast suits conditions expected to settle almost immediately.
func Fast() WaitPolicy {
	return WaitPolicy{
		Timeout:            2 * time.Second,
		PollInterval:       50 * time.Millisecond,
		IntervalMultiplier: 1,
		Jitter:             JitterNone,
		Meta:               Metadata{Preset: "fast"},
	}
}

// Slow suits conditions gated on slow remote work, with growing intervals to
// keep probe traffic down over a long budget.
func Slow() WaitPolicy {
	return WaitPolicy{
		Timeout:            60 * time.Second,
		PollInterval:       500 * time.Millisecond,
		IntervalMultiplier: 2,
		MaxInterval:        5 * time.Second,
		Jitter:             JitterEqual,
		Meta:               Metadata{Preset: "slow"},
	}
}
