package observe

import "context"

type pollInfoKey struct{}

// PollInfo is per-attempt metadata attached to the evaluation context.
type PollInfo struct {
	Attempt     int
	Description string
}

// WithPollInfo returns a context derived from ctx that carries info.
func WithPollInfo(ctx context.Context, info PollInfo) context.Context {
	return context.WithValue(ctx, pollInfoKey{}, info)
}

// PollFromContext returns the PollInfo from ctx, if present.
func PollFromContext(ctx context.Context) (PollInfo, bool) {
	info, ok := ctx.Value(pollInfoKey{}).(PollInfo)
	return info, ok
}
