package wait

import (
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	globalEngine *Engine
	globalOnce   sync.Once
)

// DefaultEngine returns the shared, lazy-initialized default engine.
func DefaultEngine() *Engine {
	globalOnce.Do(func() {
		if globalEngine == nil {
			globalEngine = NewEngine()
		}
	})
	return globalEngine
}

// SetDefault configures the default engine.
// It must be called before DefaultEngine() is used (e.g. at startup).
// If called after initialization, it logs a warning and does nothing.
func SetDefault(e *Engine) {
	if e == nil {
		return
	}

	// Best-effort startup check; not race-free against DefaultEngine.
	if globalEngine != nil {
		log.Warn().Msg("vigil: SetDefault called after default engine already initialized; ignoring")
		return
	}

	globalOnce.Do(func() {
		globalEngine = e
	})
}
