package ports

import (
	"context"

	"github.com/aretw0/debrief/pkg/domain"
)

// ModelGateway translates transcript snapshots into model calls.
// Implementations are stateless and must not retry; a failed call is returned
// wrapped with domain.ErrModelUnavailable. Malformed output is never an error,
// it is reported through Reply.Fallback.
type ModelGateway interface {
	// FollowUp generates one question deepening the current topic from the full transcript.
	FollowUp(ctx context.Context, transcript []domain.Message) (domain.Reply[string], error)

	// ShouldTransition decides from the current topic only whether to offer moving on.
	ShouldTransition(ctx context.Context, flag []domain.Message) (domain.Reply[bool], error)

	// Summarize extracts goals and follow-up opportunities from the full transcript.
	Summarize(ctx context.Context, transcript []domain.Message) (domain.Reply[domain.Summary], error)
}
