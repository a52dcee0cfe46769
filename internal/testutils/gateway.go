package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/debrief/pkg/domain"
)

// MockGateway is a ports.ModelGateway returning queued replies.
// When a queue is empty the conservative defaults are returned
// (no transition, a generic follow-up, an empty summary).
type MockGateway struct {
	mu sync.Mutex

	FollowUps   []domain.Reply[string]
	Transitions []domain.Reply[bool]
	Summaries   []domain.Reply[domain.Summary]

	// Errs queues failures per operation. A nil entry lets the call through.
	Errs map[domain.ModelOp][]error

	Calls []Call
}

// Call records one gateway invocation.
type Call struct {
	Op         domain.ModelOp
	Transcript []domain.Message
}

// NewMockGateway creates an empty mock.
func NewMockGateway() *MockGateway {
	return &MockGateway{Errs: map[domain.ModelOp][]error{}}
}

// QueueFollowUp appends follow-up questions.
func (g *MockGateway) QueueFollowUp(questions ...string) *MockGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, q := range questions {
		g.FollowUps = append(g.FollowUps, domain.Parsed(q, q))
	}
	return g
}

// QueueTransition appends transition decisions.
func (g *MockGateway) QueueTransition(decisions ...bool) *MockGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range decisions {
		g.Transitions = append(g.Transitions, domain.Parsed(d, fmt.Sprint(d)))
	}
	return g
}

// QueueSummary appends a summary.
func (g *MockGateway) QueueSummary(s domain.Summary) *MockGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Summaries = append(g.Summaries, domain.Parsed(s, ""))
	return g
}

// Fail queues an error for the next call of op.
func (g *MockGateway) Fail(op domain.ModelOp, err error) *MockGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Errs[op] = append(g.Errs[op], err)
	return g
}

// CallsTo returns the recorded calls of one operation.
func (g *MockGateway) CallsTo(op domain.ModelOp) []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Call
	for _, c := range g.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (g *MockGateway) begin(op domain.ModelOp, transcript []domain.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, Call{Op: op, Transcript: append([]domain.Message(nil), transcript...)})
	if errs := g.Errs[op]; len(errs) > 0 {
		g.Errs[op] = errs[1:]
		if errs[0] != nil {
			return fmt.Errorf("%w: %w", domain.ErrModelUnavailable, errs[0])
		}
	}
	return nil
}

func (g *MockGateway) FollowUp(_ context.Context, transcript []domain.Message) (domain.Reply[string], error) {
	if err := g.begin(domain.OpFollowUp, transcript); err != nil {
		return domain.Reply[string]{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.FollowUps) == 0 {
		return domain.Parsed("Tell me more.", ""), nil
	}
	r := g.FollowUps[0]
	g.FollowUps = g.FollowUps[1:]
	return r, nil
}

func (g *MockGateway) ShouldTransition(_ context.Context, flag []domain.Message) (domain.Reply[bool], error) {
	if err := g.begin(domain.OpShouldTransition, flag); err != nil {
		return domain.Reply[bool]{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Transitions) == 0 {
		return domain.Parsed(false, ""), nil
	}
	r := g.Transitions[0]
	g.Transitions = g.Transitions[1:]
	return r, nil
}

func (g *MockGateway) Summarize(_ context.Context, transcript []domain.Message) (domain.Reply[domain.Summary], error) {
	if err := g.begin(domain.OpSummarize, transcript); err != nil {
		return domain.Reply[domain.Summary]{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Summaries) == 0 {
		return domain.Parsed(domain.Summary{Goals: []string{}, FollowUpOpportunities: []string{}}, ""), nil
	}
	r := g.Summaries[0]
	g.Summaries = g.Summaries[1:]
	return r, nil
}
