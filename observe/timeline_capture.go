package observe

import (
	"context"
	"sync/atomic"
)

// TimelineCapture receives the timeline of one wait after it finishes.
// Timeline returns nil until then.
type TimelineCapture struct {
	tl atomic.Pointer[Timeline]
}

// Timeline returns the captured timeline, or nil if the wait has not
// finished. Safe on a nil receiver.
func (c *TimelineCapture) Timeline() *Timeline {
	if c == nil {
		return nil
	}
	return c.tl.Load()
}

// Store publishes a finished timeline. The engine calls this once per wait;
// a nil receiver or nil timeline is a no-op.
func (c *TimelineCapture) Store(tl *Timeline) {
	if c == nil || tl == nil {
		return
	}
	c.tl.Store(tl)
}

type timelineCaptureKey struct{}

// RecordTimeline requests timeline capture for the next wait run under the
// returned context. Read the result from the capture once the wait returns.
func RecordTimeline(ctx context.Context) (context.Context, *TimelineCapture) {
	if ctx == nil {
		ctx = context.Background()
	}
	capture := &TimelineCapture{}
	return context.WithValue(ctx, timelineCaptureKey{}, capture), capture
}

// TimelineCaptureFromContext returns the pending capture, if one was
// requested and not disabled.
func TimelineCaptureFromContext(ctx context.Context) (*TimelineCapture, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(timelineCaptureKey{}).(*TimelineCapture)
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}

// WithoutTimelineCapture masks any pending capture in derived contexts. The
// engine applies it to the per-poll context handed to conditions so a nested
// wait cannot publish into the outer wait's capture.
func WithoutTimelineCapture(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, timelineCaptureKey{}, (*TimelineCapture)(nil))
}
