package policy

import (
	"time"

	"github.com/probekit/vigil/probe"
)

// Option mutates a WaitPolicy under construction.
type Option func(*WaitPolicy)

// New builds a policy from the defaults plus opts and normalizes it. An
// invalid combination (non-positive Timeout or PollInterval, a bad jitter
// mode, an unignorable kind) is a *ConfigError, never repaired.
func New(opts ...Option) (WaitPolicy, error) {
	p := Default()
	for _, opt := range opts {
		opt(&p)
	}
	return p.Normalize()
}

// Timeout sets the total wall-clock budget.
func Timeout(d time.Duration) Option {
	return func(p *WaitPolicy) { p.Timeout = d }
}

// PollInterval sets the delay between condition evaluations.
func PollInterval(d time.Duration) Option {
	return func(p *WaitPolicy) { p.PollInterval = d }
}

// Growth enables interval growth: after each poll the interval is multiplied
// by multiplier, capped at max.
func Growth(multiplier float64, max time.Duration) Option {
	return func(p *WaitPolicy) {
		p.IntervalMultiplier = multiplier
		p.MaxInterval = max
	}
}

// WithJitter sets the interval jitter mode.
func WithJitter(j Jitter) Option {
	return func(p *WaitPolicy) { p.Jitter = j }
}

// Ignore adds probe error kinds to the policy's transient set.
func Ignore(kinds ...probe.ErrorKind) Option {
	return func(p *WaitPolicy) {
		p.IgnoredKinds = append(p.IgnoredKinds, kinds...)
	}
}
