package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/debrief/pkg/domain"
)

// RecordingSink is a ports.SummarySink keeping every persisted summary in call order.
type RecordingSink struct {
	mu      sync.Mutex
	Err     error
	Records []SummaryRecord
}

// SummaryRecord is one Persist call.
type SummaryRecord struct {
	SessionID string
	Summary   domain.Summary
}

func (s *RecordingSink) Persist(_ context.Context, sessionID string, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Records = append(s.Records, SummaryRecord{SessionID: sessionID, Summary: summary})
	return nil
}

// Count returns the number of successful Persist calls.
func (s *RecordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Records)
}
