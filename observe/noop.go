package observe

import (
	"context"

	"github.com/probekit/vigil/policy"
)

// NoopObserver implements Observer with no-op methods.
type NoopObserver struct{}

func (NoopObserver) OnStart(context.Context, string, policy.WaitPolicy) {}
func (NoopObserver) OnPoll(context.Context, string, PollRecord)         {}
func (NoopObserver) OnSuccess(context.Context, string, Timeline)        {}
func (NoopObserver) OnTimeout(context.Context, string, Timeline)        {}
func (NoopObserver) OnFailure(context.Context, string, Timeline)        {}
