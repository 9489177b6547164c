// Package policy defines the wait policy schema: how long to wait, how often
// to poll, and which probe error kinds to ride out.
package policy

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/probekit/vigil/probe"
)

// Jitter selects how the poll interval is randomized before each suspension.
type Jitter string

const (
	JitterNone  Jitter = "none"
	JitterFull  Jitter = "full"
	JitterEqual Jitter = "equal"
)

// NormalizationInfo records which fields Normalize had to adjust.
type NormalizationInfo struct {
	Changed       bool     `json:"-"`
	ChangedFields []string `json:"-"`
}

// Metadata carries provenance for a resolved policy.
type Metadata struct {
	Preset        string            `json:"-"`
	Normalization NormalizationInfo `json:"-"`
}

// WaitPolicy bounds a single wait: a total wall-clock budget and the cadence
// at which the condition is re-evaluated inside it.
//
// PollInterval may exceed Timeout; the engine then degrades to a single
// evaluation attempt at the deadline boundary. IntervalMultiplier of 1 (the
// default) keeps a flat cadence; values above 1 grow the interval after each
// poll, capped at MaxInterval.
type WaitPolicy struct {
	Timeout      time.Duration `json:"timeout" validate:"required,gt=0"`
	PollInterval time.Duration `json:"poll_interval" validate:"required,gt=0"`

	IntervalMultiplier float64       `json:"interval_multiplier,omitempty"`
	MaxInterval        time.Duration `json:"max_interval,omitempty"`
	Jitter             Jitter        `json:"jitter,omitempty"`

	// IgnoredKinds are treated as transient regardless of how the condition
	// classified them (union semantics).
	IgnoredKinds []probe.ErrorKind `json:"ignored_kinds,omitempty"`

	Meta Metadata `json:"-"`
}

const (
	minPollFloor          = 1 * time.Millisecond
	maxIntervalCeiling    = 30 * time.Second
	maxIntervalMultiplier = 10.0
)

var validate = validator.New()

// Validate checks the hard constraints: Timeout and PollInterval must be
// positive. Violations are configuration errors, reported before any poll.
func (p WaitPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return &ConfigError{Field: errs[0].Field(), Value: errs[0].Value()}
		}
		return &ConfigError{Field: "policy", Value: err.Error()}
	}
	switch p.Jitter {
	case "", JitterNone, JitterFull, JitterEqual:
	default:
		return &ConfigError{Field: "Jitter", Value: string(p.Jitter)}
	}
	// session_closed is deliberately not in the ignorable set.
	for _, k := range p.IgnoredKinds {
		switch k {
		case probe.KindNotFound, probe.KindDetached, probe.KindNotEnabled:
		default:
			return &ConfigError{Field: "IgnoredKinds", Value: string(k)}
		}
	}
	return nil
}

// Normalize validates p and clamps the soft fields into their working
// ranges. It never repairs a non-positive Timeout or PollInterval; those
// stay hard errors.
func (p WaitPolicy) Normalize() (WaitPolicy, error) {
	if err := p.Validate(); err != nil {
		return WaitPolicy{}, err
	}

	normalized := p
	norm := &normalized.Meta.Normalization

	markChanged := func(field string) {
		norm.Changed = true
		for _, f := range norm.ChangedFields {
			if f == field {
				return
			}
		}
		norm.ChangedFields = append(norm.ChangedFields, field)
	}

	if normalized.PollInterval < minPollFloor {
		normalized.PollInterval = minPollFloor
		markChanged("poll_interval")
	}

	if normalized.IntervalMultiplier == 0 {
		normalized.IntervalMultiplier = 1
		markChanged("interval_multiplier")
	}
	if normalized.IntervalMultiplier < 1 {
		normalized.IntervalMultiplier = 1
		markChanged("interval_multiplier")
	} else if normalized.IntervalMultiplier > maxIntervalMultiplier {
		normalized.IntervalMultiplier = maxIntervalMultiplier
		markChanged("interval_multiplier")
	}

	if normalized.MaxInterval <= 0 {
		normalized.MaxInterval = normalized.PollInterval
		if normalized.IntervalMultiplier > 1 {
			normalized.MaxInterval = normalized.Timeout
		}
		markChanged("max_interval")
	}
	if normalized.MaxInterval < normalized.PollInterval {
		normalized.MaxInterval = normalized.PollInterval
		markChanged("max_interval")
	}
	if normalized.MaxInterval > maxIntervalCeiling {
		normalized.MaxInterval = maxIntervalCeiling
		markChanged("max_interval")
	}

	if normalized.Jitter == "" {
		normalized.Jitter = JitterNone
		markChanged("jitter")
	}

	return normalized, nil
}

// IgnoresKind reports whether kind is in the policy's ignore set.
func (p WaitPolicy) IgnoresKind(kind probe.ErrorKind) bool {
	for _, k := range p.IgnoredKinds {
		if k == kind {
			return true
		}
	}
	return false
}
