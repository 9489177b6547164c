// Package playwright adapts a playwright-go page to the probe interface, so
// the standard conditions can wait on live browser state.
package playwright

import (
	"context"
	"strings"

	pw "github.com/playwright-community/playwright-go"

	"github.com/probekit/vigil/probe"
)

// Probe implements probe.Probe over a playwright Page. Locators are CSS
// selectors (or any selector syntax playwright accepts). The probe performs
// read-only queries only; it never interacts with the page.
type Probe struct {
	page pw.Page
}

// NewProbe wraps page. The caller keeps ownership of the page: one page per
// logical worker, never shared between concurrent waits.
func NewProbe(page pw.Page) *Probe {
	return &Probe{page: page}
}

func (p *Probe) Query(ctx context.Context, loc probe.Locator) ([]probe.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := p.page.Locator(string(loc))
	n, err := l.Count()
	if err != nil {
		return nil, mapError(loc, err)
	}
	nodes := make([]probe.Node, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, &node{loc: loc, l: l.Nth(i)})
	}
	return nodes, nil
}

func (p *Probe) Count(ctx context.Context, loc probe.Locator) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.page.Locator(string(loc)).Count()
	if err != nil {
		return 0, mapError(loc, err)
	}
	return n, nil
}

type node struct {
	loc probe.Locator
	l   pw.Locator
}

func (n *node) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := n.l.IsVisible()
	if err != nil {
		return false, mapError(n.loc, err)
	}
	return v, nil
}

func (n *node) Enabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := n.l.IsEnabled()
	if err != nil {
		return false, mapError(n.loc, err)
	}
	return v, nil
}

func (n *node) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := n.l.TextContent()
	if err != nil {
		return "", mapError(n.loc, err)
	}
	return t, nil
}

func (n *node) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	// getAttribute in the page distinguishes an absent attribute (null) from
	// an empty value; GetAttribute flattens both to "".
	v, err := n.l.Evaluate("(el, name) => el.getAttribute(name)", name)
	if err != nil {
		return "", false, mapError(n.loc, err)
	}
	value, ok := attributeValue(v)
	return value, ok, nil
}

// attributeValue interprets a getAttribute evaluation result: a null result
// means the attribute is absent.
func attributeValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// mapError classifies playwright failures onto probe kinds. Anything not
// clearly recognized is returned as-is and treated as fatal.
func mapError(loc probe.Locator, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Target closed") ||
		strings.Contains(msg, "has been closed"):
		return probe.SessionClosed(err)
	case strings.Contains(msg, "not attached"):
		return &probe.Error{Kind: probe.KindDetached, Locator: loc, Err: err}
	default:
		return err
	}
}
