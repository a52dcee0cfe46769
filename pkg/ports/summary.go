package ports

import (
	"context"

	"github.com/aretw0/debrief/pkg/domain"
)

// SummarySink persists the summary of a finished session.
// It is called exactly once per session end.
type SummarySink interface {
	Persist(ctx context.Context, sessionID string, summary domain.Summary) error
}

// SummaryReader is implemented by sinks that can read summaries back.
type SummaryReader interface {
	// Summary returns domain.ErrSessionNotFound when nothing was persisted for the session.
	Summary(ctx context.Context, sessionID string) (domain.Summary, error)
}
