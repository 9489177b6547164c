package observe

import (
	"context"

	"github.com/probekit/vigil/policy"
)

// BaseObserver implements Observer with no-op methods.
//
// Users can embed BaseObserver to implement only the callbacks they need.
type BaseObserver struct{}

func (BaseObserver) OnStart(context.Context, string, policy.WaitPolicy) {}
func (BaseObserver) OnPoll(context.Context, string, PollRecord)         {}
func (BaseObserver) OnSuccess(context.Context, string, Timeline)        {}
func (BaseObserver) OnTimeout(context.Context, string, Timeline)        {}
func (BaseObserver) OnFailure(context.Context, string, Timeline)        {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) OnStart(ctx context.Context, desc string, pol policy.WaitPolicy) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnStart(ctx, desc, pol)
		}
	}
}

func (m MultiObserver) OnPoll(ctx context.Context, desc string, rec PollRecord) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnPoll(ctx, desc, rec)
		}
	}
}

func (m MultiObserver) OnSuccess(ctx context.Context, desc string, tl Timeline) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnSuccess(ctx, desc, tl)
		}
	}
}

func (m MultiObserver) OnTimeout(ctx context.Context, desc string, tl Timeline) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnTimeout(ctx, desc, tl)
		}
	}
}

func (m MultiObserver) OnFailure(ctx context.Context, desc string, tl Timeline) {
	for _, o := range m.Observers {
		if o != nil {
			o.OnFailure(ctx, desc, tl)
		}
	}
}
