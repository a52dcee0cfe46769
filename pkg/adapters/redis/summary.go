package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/debrief/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// SummarySink implements ports.SummarySink and ports.SummaryReader using Redis hashes.
type SummarySink struct {
	client backend.UniversalClient
	key    string
}

// NewSummarySink stores summaries in the hash <prefix>summaries, keyed by session ID.
func NewSummarySink(client backend.UniversalClient, prefix string) *SummarySink {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SummarySink{client: client, key: prefix + "summaries"}
}

// Persist overwrites the summary of a session.
func (s *SummarySink) Persist(ctx context.Context, sessionID string, summary domain.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, sessionID, data).Err(); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	return nil
}

// Summary reads the summary of a session.
func (s *SummarySink) Summary(ctx context.Context, sessionID string) (domain.Summary, error) {
	val, err := s.client.HGet(ctx, s.key, sessionID).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Summary{}, domain.ErrSessionNotFound
		}
		return domain.Summary{}, fmt.Errorf("failed to read summary: %w", err)
	}
	var summary domain.Summary
	if err := json.Unmarshal(val, &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return summary, nil
}
