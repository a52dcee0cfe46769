package observability

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aretw0/debrief/pkg/domain"
)

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMessage: func(ctx context.Context, e *domain.MessageEvent) {
			logger.DebugContext(ctx, "message", "session_id", e.SessionID, "role", e.Message.Role)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
		OnModelCall: func(ctx context.Context, e *domain.ModelCallEvent) {
			logger.DebugContext(ctx, "model_call",
				"session_id", e.SessionID,
				"op", e.Op,
				"duration", e.Duration,
				"fallback", e.Fallback,
				"err", e.Err,
			)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEndEvent) {
			logger.InfoContext(ctx, "session_end",
				"session_id", e.SessionID,
				"turns", e.Turns,
				"goals", len(e.Summary.Goals),
				"fallback", e.Fallback,
			)
		},
	}
}

// Chain fans each event out to every hook set, in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnMessage = chain(out.OnMessage, h.OnMessage)
		out.OnTransition = chain(out.OnTransition, h.OnTransition)
		out.OnModelCall = chain(out.OnModelCall, h.OnModelCall)
		out.OnSessionEnd = chain(out.OnSessionEnd, h.OnSessionEnd)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
