package domain

import (
	"fmt"
	"time"
)

// Awaiting tells which special answer the last assistant message asked for.
type Awaiting string

const (
	AwaitingNone       Awaiting = "none"       // Free-form reply expected
	AwaitingTransition Awaiting = "transition" // Yes/no to the transition question
	AwaitingClosing    Awaiting = "closing"    // Yes/no to the closing question
)

// Phase is the coarse position of a session in the conversation lifecycle.
// It is derived from State and never stored.
type Phase string

const (
	PhaseAwaitingFirstQuestion   Phase = "awaiting_first_question"
	PhaseAwaitingUserReply       Phase = "awaiting_user_reply"
	PhaseAwaitingTransitionReply Phase = "awaiting_transition_reply"
	PhaseClosing                 Phase = "closing"
	PhaseEnded                   Phase = "ended"
)

// State represents the snapshot of one reflection session.
type State struct {
	SessionID string `json:"session_id"`

	// Transcript is the full, append-only history used for follow-ups and the summary.
	Transcript []Message `json:"transcript"`

	// FlagTranscript holds the messages of the current topic only.
	// It feeds the transition check and is always a suffix of Transcript.
	FlagTranscript []Message `json:"flag_transcript"`

	// Cursor is the index of the next scripted question to ask.
	Cursor int `json:"cursor"`

	// Active is false once the session has ended.
	Active bool `json:"active"`

	// Awaiting is set whenever a transition or closing question is appended.
	Awaiting Awaiting `json:"awaiting"`

	// Pending is true when the last user message has not been answered yet,
	// typically because a model call failed.
	Pending bool `json:"pending,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed is set only on states encrypted at rest; it holds the whole
	// snapshot and the conversation fields are left empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewState creates a clean session state.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID:      sessionID,
		Transcript:     []Message{},
		FlagTranscript: []Message{},
		Active:         true,
		Awaiting:       AwaitingNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy so callers can evolve a state without aliasing the original.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Transcript = append(make([]Message, 0, len(s.Transcript)+2), s.Transcript...)
	c.FlagTranscript = append(make([]Message, 0, len(s.FlagTranscript)+2), s.FlagTranscript...)
	return &c
}

// Record appends a message to both transcripts.
func (s *State) Record(msg Message) {
	s.Transcript = append(s.Transcript, msg)
	s.FlagTranscript = append(s.FlagTranscript, msg)
}

// ResetTopic clears the flag transcript at a topic boundary.
func (s *State) ResetTopic() {
	s.FlagTranscript = []Message{}
}

// LastUser returns the content of the last message if it was written by the user.
func (s *State) LastUser() (string, bool) {
	if len(s.Transcript) == 0 {
		return "", false
	}
	last := s.Transcript[len(s.Transcript)-1]
	if last.Role != RoleUser {
		return "", false
	}
	return last.Content, true
}

// Phase derives the lifecycle phase for a script of total questions.
func (s *State) Phase(total int) Phase {
	switch {
	case !s.Active:
		return PhaseEnded
	case len(s.Transcript) == 0:
		return PhaseAwaitingFirstQuestion
	case s.Awaiting == AwaitingClosing || (s.Cursor >= total && s.Awaiting == AwaitingTransition):
		return PhaseClosing
	case s.Awaiting == AwaitingTransition:
		return PhaseAwaitingTransitionReply
	default:
		return PhaseAwaitingUserReply
	}
}

// Validate checks the structural invariants of a state against a script of total questions.
func (s *State) Validate(total int) error {
	if s.Cursor < 0 || s.Cursor > total {
		return fmt.Errorf("%w: cursor %d out of range [0,%d]", ErrInvalidState, s.Cursor, total)
	}
	if len(s.FlagTranscript) > len(s.Transcript) {
		return fmt.Errorf("%w: flag transcript longer than transcript", ErrInvalidState)
	}
	offset := len(s.Transcript) - len(s.FlagTranscript)
	for i, msg := range s.FlagTranscript {
		if s.Transcript[offset+i] != msg {
			return fmt.Errorf("%w: flag transcript is not a suffix of the transcript", ErrInvalidState)
		}
	}
	switch s.Awaiting {
	case AwaitingNone, AwaitingTransition, AwaitingClosing:
	default:
		return fmt.Errorf("%w: unknown awaiting tag %q", ErrInvalidState, s.Awaiting)
	}
	return nil
}
