package domain

import (
	"context"
	"time"
)

// ModelOp names a model gateway operation.
type ModelOp string

const (
	OpFollowUp         ModelOp = "follow_up"
	OpShouldTransition ModelOp = "should_transition"
	OpSummarize        ModelOp = "summarize"
)

// MessageEvent is emitted for every message appended to a transcript.
type MessageEvent struct {
	SessionID string
	Message   Message
}

// TransitionEvent is emitted when the cursor moves to the next scripted question.
type TransitionEvent struct {
	SessionID string
	From      int
	To        int
	Question  string
}

// ModelCallEvent is emitted after each model gateway call.
type ModelCallEvent struct {
	SessionID string
	Op        ModelOp
	Duration  time.Duration
	Fallback  bool
	Err       error
}

// SessionEndEvent is emitted once a session is terminated and its summary persisted.
type SessionEndEvent struct {
	SessionID string
	Summary   Summary
	Turns     int
	Fallback  bool
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnMessage    func(context.Context, *MessageEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnModelCall  func(context.Context, *ModelCallEvent)
	OnSessionEnd func(context.Context, *SessionEndEvent)
}
