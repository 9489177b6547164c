// Package probetest provides scripted probe doubles for exercising waits
// without a live remote session.
package probetest

import (
	"context"
	"sync"

	"github.com/probekit/vigil/probe"
)

// Node is a scripted probe.Node. When Err is set every accessor returns it.
type Node struct {
	VisibleVal bool
	EnabledVal bool
	TextVal    string
	Attrs      map[string]string
	Err        error
}

func (n *Node) Visible(context.Context) (bool, error) {
	if n.Err != nil {
		return false, n.Err
	}
	return n.VisibleVal, nil
}

func (n *Node) Enabled(context.Context) (bool, error) {
	if n.Err != nil {
		return false, n.Err
	}
	return n.EnabledVal, nil
}

func (n *Node) Text(context.Context) (string, error) {
	if n.Err != nil {
		return "", n.Err
	}
	return n.TextVal, nil
}

func (n *Node) Attribute(_ context.Context, name string) (string, bool, error) {
	if n.Err != nil {
		return "", false, n.Err
	}
	v, ok := n.Attrs[name]
	return v, ok, nil
}

// Step is one scripted response: either an error or a set of matched nodes.
type Step struct {
	Nodes []probe.Node
	Err   error
}

// Probe replays scripted steps, one per Query/Count call, repeating the last
// step once the script runs out. It records how many calls were made.
type Probe struct {
	mu    sync.Mutex
	steps []Step
	calls int
}

// New builds a probe from steps. An empty script reports zero matches
// forever.
func New(steps ...Step) *Probe {
	return &Probe{steps: steps}
}

// Static builds a probe that always reports the given nodes.
func Static(nodes ...probe.Node) *Probe {
	return New(Step{Nodes: nodes})
}

func (p *Probe) step() Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.steps) == 0 {
		return Step{}
	}
	i := p.calls - 1
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	return p.steps[i]
}

// Calls reports how many Query/Count calls the probe has served.
func (p *Probe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Probe) Query(ctx context.Context, _ probe.Locator) ([]probe.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := p.step()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Nodes, nil
}

func (p *Probe) Count(ctx context.Context, _ probe.Locator) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := p.step()
	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.Nodes), nil
}
