package observe

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/probekit/vigil/policy"
)

// ZerologObserver logs wait lifecycle events through a zerolog.Logger.
// Per-poll events go out at trace level so a default-level logger only sees
// wait outcomes.
type ZerologObserver struct {
	Logger zerolog.Logger
}

// NewZerologObserver wraps logger in an observer.
func NewZerologObserver(logger zerolog.Logger) *ZerologObserver {
	return &ZerologObserver{Logger: logger}
}

func (o *ZerologObserver) OnStart(ctx context.Context, desc string, pol policy.WaitPolicy) {
	o.Logger.Debug().
		Str("condition", desc).
		Dur("timeout", pol.Timeout).
		Dur("poll_interval", pol.PollInterval).
		Msg("wait started")
}

func (o *ZerologObserver) OnPoll(ctx context.Context, desc string, rec PollRecord) {
	ev := o.Logger.Trace().
		Str("condition", desc).
		Int("attempt", rec.Attempt).
		Str("status", rec.Status.String()).
		Dur("delay", rec.Delay)
	if rec.Err != nil {
		ev = ev.AnErr("poll_error", rec.Err)
	}
	ev.Msg("poll")
}

func (o *ZerologObserver) OnSuccess(ctx context.Context, desc string, tl Timeline) {
	o.Logger.Debug().
		Str("condition", desc).
		Dur("elapsed", tl.Elapsed()).
		Int("polls", len(tl.Polls)).
		Msg("wait satisfied")
}

func (o *ZerologObserver) OnTimeout(ctx context.Context, desc string, tl Timeline) {
	ev := o.Logger.Warn().
		Str("condition", desc).
		Dur("elapsed", tl.Elapsed()).
		Int("polls", len(tl.Polls))
	if tl.FinalErr != nil {
		ev = ev.AnErr("last_error", tl.FinalErr)
	}
	ev.Msg("wait timed out")
}

func (o *ZerologObserver) OnFailure(ctx context.Context, desc string, tl Timeline) {
	o.Logger.Error().
		Str("condition", desc).
		Dur("elapsed", tl.Elapsed()).
		Int("polls", len(tl.Polls)).
		Err(tl.FinalErr).
		Msg("wait failed")
}
