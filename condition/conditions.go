package condition

import (
	"context"
	"fmt"

	"github.com/probekit/vigil/probe"
)

// Presence is satisfied once at least one node matches loc, yielding the
// first match. A not-found query error is transient.
func Presence(loc probe.Locator) Condition[probe.Node] {
	desc := fmt.Sprintf("element present at %q", string(loc))
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[probe.Node], error) {
		nodes, err := p.Query(ctx, loc)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound)
		}
		if len(nodes) == 0 {
			return NotYet[probe.Node](), nil
		}
		return Ready(nodes[0]), nil
	})
}

// Visible is satisfied once a node matching loc exists and has nonzero
// rendered extent. Not-found and detached errors are transient.
func Visible(loc probe.Locator) Condition[probe.Node] {
	desc := fmt.Sprintf("element visible at %q", string(loc))
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[probe.Node], error) {
		node, err := probe.First(ctx, p, loc)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached)
		}
		visible, err := node.Visible(ctx)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached)
		}
		if !visible {
			return NotYet[probe.Node](), nil
		}
		return Ready(node), nil
	})
}

// Clickable is satisfied once a node matching loc is both visible and
// enabled. Not-found, detached, and not-enabled errors are transient.
func Clickable(loc probe.Locator) Condition[probe.Node] {
	desc := fmt.Sprintf("element clickable at %q", string(loc))
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[probe.Node], error) {
		node, err := probe.First(ctx, p, loc)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached, probe.KindNotEnabled)
		}
		visible, err := node.Visible(ctx)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached, probe.KindNotEnabled)
		}
		if !visible {
			return NotYet[probe.Node](), nil
		}
		enabled, err := node.Enabled(ctx)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached, probe.KindNotEnabled)
		}
		if !enabled {
			return NotYet[probe.Node](), nil
		}
		return Ready(node), nil
	})
}

// TextIs is satisfied once a visible node matching loc renders exactly want.
// A mismatch is NotYet, not an error; not-found and detached are transient.
func TextIs(loc probe.Locator, want string) Condition[probe.Node] {
	desc := fmt.Sprintf("element at %q with text %q", string(loc), want)
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[probe.Node], error) {
		node, err := probe.First(ctx, p, loc)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached)
		}
		visible, err := node.Visible(ctx)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached)
		}
		if !visible {
			return NotYet[probe.Node](), nil
		}
		text, err := node.Text(ctx)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached)
		}
		if text != want {
			return NotYet[probe.Node](), nil
		}
		return Ready(node), nil
	})
}

// CountIs is satisfied once exactly want nodes match loc, yielding the
// count. Zero matches is an ordinary answer; no errors are swallowed.
func CountIs(loc probe.Locator, want int) Condition[int] {
	desc := fmt.Sprintf("%d elements at %q", want, string(loc))
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[int], error) {
		n, err := p.Count(ctx, loc)
		if err != nil {
			return NotYet[int](), err
		}
		if n != want {
			return NotYet[int](), nil
		}
		return Ready(n), nil
	})
}

// AttributeIs is satisfied once a node matching loc carries the attribute
// with exactly the wanted value. An absent attribute or differing value is
// NotYet; a not-found query error is transient.
func AttributeIs(loc probe.Locator, name, want string) Condition[probe.Node] {
	desc := fmt.Sprintf("element at %q with attribute %s=%q", string(loc), name, want)
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[probe.Node], error) {
		node, err := probe.First(ctx, p, loc)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound)
		}
		value, ok, err := node.Attribute(ctx, name)
		if err != nil {
			return NotYet[probe.Node](), transientIfKind(err, probe.KindNotFound, probe.KindDetached)
		}
		if !ok || value != want {
			return NotYet[probe.Node](), nil
		}
		return Ready(node), nil
	})
}

// Gone is satisfied once no node matches loc. Detachment mid-check counts as
// gone; absence is the success state, so nothing is an error here short of a
// real probe failure.
func Gone(loc probe.Locator) Condition[bool] {
	desc := fmt.Sprintf("element gone from %q", string(loc))
	return New(desc, func(ctx context.Context, p probe.Probe) (Outcome[bool], error) {
		n, err := p.Count(ctx, loc)
		if err != nil {
			if probe.IsKind(err, probe.KindNotFound) || probe.IsKind(err, probe.KindDetached) {
				return Ready(true), nil
			}
			return NotYet[bool](), err
		}
		if n != 0 {
			return NotYet[bool](), nil
		}
		return Ready(true), nil
	})
}
