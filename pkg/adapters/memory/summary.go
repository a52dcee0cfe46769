package memory

import (
	"context"
	"sync"

	"github.com/aretw0/debrief/pkg/domain"
)

// SummarySink implements ports.SummarySink and ports.SummaryReader in memory.
type SummarySink struct {
	data map[string]domain.Summary
	mu   sync.RWMutex
}

// NewSummarySink creates an empty sink.
func NewSummarySink() *SummarySink {
	return &SummarySink{data: make(map[string]domain.Summary)}
}

// Persist stores the summary, replacing any previous one for the session.
func (s *SummarySink) Persist(ctx context.Context, sessionID string, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = domain.Summary{
		Goals:                 append([]string{}, summary.Goals...),
		FollowUpOpportunities: append([]string{}, summary.FollowUpOpportunities...),
	}
	return nil
}

// Summary returns the persisted summary of a session.
func (s *SummarySink) Summary(ctx context.Context, sessionID string) (domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.data[sessionID]
	if !ok {
		return domain.Summary{}, domain.ErrSessionNotFound
	}
	return summary, nil
}
