package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
)

// Engine is the conversation state machine.
// It holds no session data: every operation takes a state and returns a new one.
type Engine struct {
	gateway ports.ModelGateway
	sink    ports.SummarySink
	script  domain.Script
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a new engine with dependencies.
func NewEngine(gateway ports.ModelGateway, sink ports.SummarySink, opts ...EngineOption) *Engine {
	e := &Engine{
		gateway: gateway,
		sink:    sink,
		script:  domain.DefaultScript(),
		logger:  logging.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Script returns the script driving the sessions.
func (e *Engine) Script() domain.Script {
	return e.script
}

// Start asks the first scripted question. It does nothing on a state that already has messages.
func (e *Engine) Start(ctx context.Context, state *domain.State) *domain.State {
	if len(state.Transcript) > 0 {
		return state
	}
	next := state.Clone()
	e.ask(ctx, next, 0)
	next.UpdatedAt = e.now()
	return next
}

// Submit processes one free-text user message.
// Blank input and ended sessions are no-ops returning the input state.
// When a model call fails the returned state records the user message with
// Pending set, and the error wraps domain.ErrModelUnavailable.
func (e *Engine) Submit(ctx context.Context, state *domain.State, text string) (*domain.State, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return state, nil
	}
	if !state.Active {
		e.logger.DebugContext(ctx, "ignoring message on ended session", "session_id", state.SessionID)
		return state, nil
	}

	next := e.Start(ctx, state).Clone()
	e.record(ctx, next, domain.UserMessage(text))
	next.Pending = true
	next.UpdatedAt = e.now()

	return e.dispatch(ctx, next, text)
}

// SubmitYesNo submits a button click as "yes" or "no".
func (e *Engine) SubmitYesNo(ctx context.Context, state *domain.State, yes bool) (*domain.State, error) {
	if yes {
		return e.Submit(ctx, state, "yes")
	}
	return e.Submit(ctx, state, "no")
}

// Retry re-runs the turn of a pending user message without recording it again.
func (e *Engine) Retry(ctx context.Context, state *domain.State) (*domain.State, error) {
	if !state.Pending || !state.Active {
		return state, nil
	}
	text, ok := state.LastUser()
	if !ok {
		// Nothing left to answer; the flag is stale.
		next := state.Clone()
		next.Pending = false
		return next, nil
	}
	e.logger.InfoContext(ctx, "retrying turn", "session_id", state.SessionID, "cursor", state.Cursor)
	return e.dispatch(ctx, state.Clone(), text)
}

// End terminates the session on request: the transcript is summarized and
// persisted, and no farewell is appended. Ended sessions are returned unchanged.
func (e *Engine) End(ctx context.Context, state *domain.State) (*domain.State, error) {
	if !state.Active {
		return state, nil
	}
	next := state.Clone()
	if err := e.finish(ctx, next, false); err != nil {
		return next, err
	}
	next.Pending = false
	return next, nil
}

// Awaiting reports which special answer the session expects.
func (e *Engine) Awaiting(state *domain.State) domain.Awaiting {
	return state.Awaiting
}

// ShowYesNo reports whether yes/no buttons should be offered.
func (e *Engine) ShowYesNo(state *domain.State) bool {
	return state.Active && !state.Pending && state.Awaiting != domain.AwaitingNone
}

// View projects a state for presentation.
func (e *Engine) View(state *domain.State) *domain.View {
	return domain.NewView(state, e.script.Len())
}

// dispatch runs the turn for the user message that was just recorded on next.
// next is owned by the caller and mutated in place.
func (e *Engine) dispatch(ctx context.Context, next *domain.State, text string) (*domain.State, error) {
	var err error
	switch next.Awaiting {
	case domain.AwaitingClosing:
		if domain.IsAffirmative(text) {
			next.ResetTopic()
			e.say(ctx, next, e.script.Listening, domain.AwaitingNone)
		} else {
			err = e.finish(ctx, next, true)
		}
	case domain.AwaitingTransition:
		if domain.IsAffirmative(text) {
			e.advance(ctx, next)
		} else {
			err = e.followUp(ctx, next)
		}
	default:
		err = e.checkTransition(ctx, next)
	}

	next.UpdatedAt = e.now()
	if err != nil {
		return next, err
	}
	next.Pending = false
	return next, nil
}

func (e *Engine) checkTransition(ctx context.Context, next *domain.State) error {
	start := time.Now()
	reply, err := e.gateway.ShouldTransition(ctx, next.FlagTranscript)
	e.observe(ctx, next.SessionID, domain.OpShouldTransition, start, reply.Fallback, err)
	if err != nil {
		return fmt.Errorf("transition check: %w", err)
	}
	if reply.Value {
		e.say(ctx, next, e.script.TransitionQuestion, domain.AwaitingTransition)
		return nil
	}
	return e.followUp(ctx, next)
}

func (e *Engine) followUp(ctx context.Context, next *domain.State) error {
	start := time.Now()
	reply, err := e.gateway.FollowUp(ctx, next.Transcript)
	e.observe(ctx, next.SessionID, domain.OpFollowUp, start, reply.Fallback, err)
	if err != nil {
		return fmt.Errorf("follow-up: %w", err)
	}
	e.say(ctx, next, reply.Value, domain.AwaitingNone)
	return nil
}

// advance moves to the next scripted question after an affirmative transition answer.
func (e *Engine) advance(ctx context.Context, next *domain.State) {
	next.ResetTopic()
	if next.Cursor >= e.script.Len() {
		e.logger.InfoContext(ctx, "no question left to move on to", "session_id", next.SessionID, "cursor", next.Cursor)
		return
	}
	from := next.Cursor
	e.ask(ctx, next, from)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			SessionID: next.SessionID,
			From:      from,
			To:        next.Cursor,
			Question:  e.script.Questions[from],
		})
	}
}

// finish summarizes and persists the session. Any failure leaves next active and retryable.
func (e *Engine) finish(ctx context.Context, next *domain.State, farewell bool) error {
	start := time.Now()
	reply, err := e.gateway.Summarize(ctx, next.Transcript)
	e.observe(ctx, next.SessionID, domain.OpSummarize, start, reply.Fallback, err)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if e.sink != nil {
		if err := e.sink.Persist(ctx, next.SessionID, reply.Value); err != nil {
			return fmt.Errorf("persist summary: %w", err)
		}
	}

	if farewell {
		e.say(ctx, next, e.script.Farewell, domain.AwaitingNone)
	}
	next.Active = false
	next.UpdatedAt = e.now()

	e.logger.InfoContext(ctx, "session ended", "session_id", next.SessionID, "fallback", reply.Fallback)
	if e.hooks.OnSessionEnd != nil {
		e.hooks.OnSessionEnd(ctx, &domain.SessionEndEvent{
			SessionID: next.SessionID,
			Summary:   reply.Value,
			Turns:     countTurns(next.Transcript),
			Fallback:  reply.Fallback,
		})
	}
	return nil
}

// ask appends the scripted question at index and moves the cursor past it.
func (e *Engine) ask(ctx context.Context, next *domain.State, index int) {
	awaiting := domain.AwaitingNone
	if e.script.IsClosing(index) {
		awaiting = domain.AwaitingClosing
	}
	e.say(ctx, next, e.script.Questions[index], awaiting)
	next.Cursor = index + 1
}

func (e *Engine) say(ctx context.Context, next *domain.State, content string, awaiting domain.Awaiting) {
	e.record(ctx, next, domain.AssistantMessage(content))
	next.Awaiting = awaiting
}

func (e *Engine) record(ctx context.Context, next *domain.State, msg domain.Message) {
	next.Record(msg)
	if e.hooks.OnMessage != nil {
		e.hooks.OnMessage(ctx, &domain.MessageEvent{SessionID: next.SessionID, Message: msg})
	}
}

func (e *Engine) observe(ctx context.Context, sessionID string, op domain.ModelOp, start time.Time, fallback bool, err error) {
	elapsed := time.Since(start)
	switch {
	case err != nil:
		e.logger.WarnContext(ctx, "model call failed", "session_id", sessionID, "op", op, "duration", elapsed, "err", err)
	case fallback:
		e.logger.DebugContext(ctx, "model output did not match the expected shape", "session_id", sessionID, "op", op)
	}
	if e.hooks.OnModelCall != nil {
		e.hooks.OnModelCall(ctx, &domain.ModelCallEvent{
			SessionID: sessionID,
			Op:        op,
			Duration:  elapsed,
			Fallback:  fallback,
			Err:       err,
		})
	}
}

func countTurns(transcript []domain.Message) int {
	n := 0
	for _, m := range transcript {
		if m.Role == domain.RoleUser {
			n++
		}
	}
	return n
}
