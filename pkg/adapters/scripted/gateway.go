// Package scripted provides a deterministic, offline model gateway for demos and tests.
package scripted

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/debrief/pkg/domain"
)

// DefaultFollowUps are cycled through when no follow-ups are configured.
var DefaultFollowUps = []string{
	"How did that make you feel?",
	"What impact did that have on the rest of your day?",
	"Is there anything you would do differently next time?",
}

// Gateway is a ports.ModelGateway that needs no model.
// It offers to move on once the user has replied Depth times in the current topic,
// cycles through canned follow-ups, and summarizes by collecting the user replies.
type Gateway struct {
	depth     int
	followUps []string

	mu   sync.Mutex
	next int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithDepth sets how many user replies a topic needs before a transition is offered (default 2).
func WithDepth(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.depth = n
		}
	}
}

// WithFollowUps replaces DefaultFollowUps.
func WithFollowUps(questions ...string) Option {
	return func(g *Gateway) {
		if len(questions) > 0 {
			g.followUps = questions
		}
	}
}

// New creates a scripted gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{depth: 2, followUps: DefaultFollowUps}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) FollowUp(ctx context.Context, transcript []domain.Message) (domain.Reply[string], error) {
	if err := ctx.Err(); err != nil {
		return domain.Reply[string]{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	g.mu.Lock()
	q := g.followUps[g.next%len(g.followUps)]
	g.next++
	g.mu.Unlock()
	return domain.Parsed(q, q), nil
}

func (g *Gateway) ShouldTransition(ctx context.Context, flag []domain.Message) (domain.Reply[bool], error) {
	if err := ctx.Err(); err != nil {
		return domain.Reply[bool]{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	replies := 0
	for _, m := range flag {
		if m.Role == domain.RoleUser {
			replies++
		}
	}
	move := replies >= g.depth
	return domain.Parsed(move, fmt.Sprintf(`{"binary_value": %d}`, boolToInt(move))), nil
}

func (g *Gateway) Summarize(ctx context.Context, transcript []domain.Message) (domain.Reply[domain.Summary], error) {
	if err := ctx.Err(); err != nil {
		return domain.Reply[domain.Summary]{}, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	goals := []string{}
	for _, m := range transcript {
		if m.Role == domain.RoleUser && !isYesNo(m.Content) {
			goals = append(goals, m.Content)
		}
	}
	opportunities := []string{}
	if len(goals) > 0 {
		opportunities = append(opportunities, fmt.Sprintf("Ask how %q went", goals[0]))
	}
	return domain.Parsed(domain.Summary{Goals: goals, FollowUpOpportunities: opportunities}, ""), nil
}

func isYesNo(s string) bool {
	if domain.IsAffirmative(s) {
		return true
	}
	switch s {
	case "no", "No", "n", "N":
		return true
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
