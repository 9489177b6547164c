// Package observe defines the observability surface of the wait engine:
// per-poll records, per-wait timelines, and the Observer callback interface.
package observe

import (
	"context"
	"time"

	"github.com/probekit/vigil/policy"
)

// PollStatus describes what a single evaluation produced.
type PollStatus int

const (
	PollUnknown PollStatus = iota
	PollReady
	PollNotYet
	PollTransientError
	PollFatalError
)

func (s PollStatus) String() string {
	switch s {
	case PollReady:
		return "ready"
	case PollNotYet:
		return "not_yet"
	case PollTransientError:
		return "transient_error"
	case PollFatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}

// PollRecord describes a single condition evaluation.
type PollRecord struct {
	Attempt   int
	StartTime time.Time
	EndTime   time.Time

	Status PollStatus
	Err    error

	// Delay is the suspension that preceded this attempt (zero for the first).
	Delay time.Duration
}

// Timeline is the structured record of a single wait and all of its polls.
type Timeline struct {
	Description string
	Start       time.Time
	End         time.Time

	// Attributes holds wait-level metadata (preset name, normalization notes).
	Attributes map[string]string

	Polls    []PollRecord
	TimedOut bool
	FinalErr error
}

// Elapsed returns the wall-clock span of the wait.
func (tl Timeline) Elapsed() time.Duration {
	return tl.End.Sub(tl.Start)
}

// Observer receives lifecycle callbacks for a single wait. Implementations
// must be safe for concurrent use; independent waits may share one Observer.
type Observer interface {
	OnStart(ctx context.Context, desc string, pol policy.WaitPolicy)
	OnPoll(ctx context.Context, desc string, rec PollRecord)

	OnSuccess(ctx context.Context, desc string, tl Timeline)
	OnTimeout(ctx context.Context, desc string, tl Timeline)
	OnFailure(ctx context.Context, desc string, tl Timeline)
}
