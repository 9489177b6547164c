package policy

import "fmt"

// ConfigError indicates a fundamentally invalid wait policy. It is fatal and
// reported before any polling happens.
type ConfigError struct {
	Field string
	Value any
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("vigil: invalid wait policy: %s=%v", e.Field, e.Value)
}
