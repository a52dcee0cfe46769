package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
)

// Mask replaces redacted text in stored transcripts.
const Mask = "***"

// Common redaction patterns.
const (
	EmailPattern = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`
	PhonePattern = `\+?\d[\d\s().\-]{7,}\d`
)

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks transcript text matching any pattern before it is stored.
// Masking is lossy: a resumed session sees the masked text.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	// The engine keeps using state after Save, so mask a copy.
	cloned := state.Clone()
	m.mask(cloned.Transcript)
	m.mask(cloned.FlagTranscript)
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask redacts user messages only; coach messages are scripted or model generated.
func (m *piiMiddleware) mask(msgs []domain.Message) {
	for i := range msgs {
		if msgs[i].Role != domain.RoleUser {
			continue
		}
		for _, p := range m.patterns {
			msgs[i].Content = p.ReplaceAllString(msgs[i].Content, Mask)
		}
	}
}
