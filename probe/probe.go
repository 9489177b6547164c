// Package probe defines the read-only interface the wait engine polls
// through, plus the error vocabulary shared by conditions and policies.
package probe

import "context"

// Locator identifies zero or more nodes in the remote state, in whatever
// syntax the backing Probe understands (a CSS selector for browser-backed
// probes).
type Locator string

// Node is a handle to a single matched node. Handles are snapshots of a
// match, not live references: the underlying node may disappear between the
// query and any accessor call, in which case accessors return a Detached
// error.
type Node interface {
	// Visible reports whether the node currently has nonzero rendered extent.
	Visible(ctx context.Context) (bool, error)

	// Enabled reports whether the node currently accepts interaction.
	Enabled(ctx context.Context) (bool, error)

	// Text returns the node's current rendered text.
	Text(ctx context.Context) (string, error)

	// Attribute returns the named attribute's value. ok is false when the
	// attribute is absent.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)
}

// Probe is the abstract interface to live remote state. Implementations are
// owned by the caller, one per logical worker, and must only be read from.
//
// Query returns all nodes currently matching loc; an empty slice (not an
// error) means no match. Count reports the number of matches and treats zero
// as an ordinary answer, never an error.
type Probe interface {
	Query(ctx context.Context, loc Locator) ([]Node, error)
	Count(ctx context.Context, loc Locator) (int, error)
}

// First returns the first node matching loc, or a NotFound error.
func First(ctx context.Context, p Probe, loc Locator) (Node, error) {
	nodes, err := p.Query(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, NotFound(loc)
	}
	return nodes[0], nil
}
