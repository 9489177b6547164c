package policy

import (
	"errors"
	"fmt"
)

// ErrPresetNotFound is returned by providers for unknown preset names.
var ErrPresetNotFound = errors.New("vigil: wait policy preset not found")

// Provider resolves a named wait policy preset. Implementations must return
// normalized policies.
type Provider interface {
	PolicyFor(name string) (WaitPolicy, error)
}

// StaticProvider is an in-process Provider backed by a map, with the built-in
// presets ("default", "fast", "slow") always available as a base layer.
// Entries in Policies shadow the built-ins.
type StaticProvider struct {
	Policies map[string]WaitPolicy
}

func (p *StaticProvider) PolicyFor(name string) (WaitPolicy, error) {
	if p != nil && p.Policies != nil {
		if pol, ok := p.Policies[name]; ok {
			if pol.Meta.Preset == "" {
				pol.Meta.Preset = name
			}
			return pol.Normalize()
		}
	}

	switch name {
	case "default", "":
		return Default().Normalize()
	case "fast":
		return Fast().Normalize()
	case "slow":
		return Slow().Normalize()
	}

	return WaitPolicy{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}
