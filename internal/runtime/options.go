package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/debrief/pkg/domain"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithScript replaces the default reflection script. The script must be valid.
func WithScript(script domain.Script) EngineOption {
	return func(e *Engine) {
		e.script = script
	}
}

// WithLogger sets the structured logger used by the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used to stamp states.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
