package ports

import (
	"context"

	"github.com/aretw0/debrief/pkg/domain"
)

// Conversation is the session-ID based API consumed by presentation adapters (HTTP, MCP, chat bots).
// Every mutating call returns the resulting view even when it also returns an error,
// so a failed turn can still be displayed and retried.
type Conversation interface {
	// Open loads the session or creates it, asking the first scripted question.
	Open(ctx context.Context, sessionID string) (*domain.View, error)

	// Send submits a free-text user message.
	Send(ctx context.Context, sessionID, text string) (*domain.View, error)

	// Answer submits a yes/no button click.
	Answer(ctx context.Context, sessionID string, yes bool) (*domain.View, error)

	// Retry re-runs a turn whose model call failed.
	Retry(ctx context.Context, sessionID string) (*domain.View, error)

	// End terminates the session and persists its summary.
	End(ctx context.Context, sessionID string) (*domain.View, error)

	// Get returns the current view without changing it.
	Get(ctx context.Context, sessionID string) (*domain.View, error)

	// Sessions lists known session IDs.
	Sessions(ctx context.Context) ([]string, error)

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
}
