package domain_test

import (
	"testing"

	"github.com/aretw0/debrief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := domain.NewState("s1")
	assert.Equal(t, "s1", s.SessionID)
	assert.True(t, s.Active)
	assert.Equal(t, 0, s.Cursor)
	assert.Empty(t, s.Transcript)
	assert.Empty(t, s.FlagTranscript)
	assert.Equal(t, domain.AwaitingNone, s.Awaiting)
	assert.Equal(t, domain.PhaseAwaitingFirstQuestion, s.Phase(5))
}

func TestState_CloneIsolation(t *testing.T) {
	s := domain.NewState("s1")
	s.Record(domain.AssistantMessage("Q1"))

	c := s.Clone()
	c.Record(domain.UserMessage("A1"))
	c.ResetTopic()

	assert.Len(t, s.Transcript, 1)
	assert.Len(t, s.FlagTranscript, 1)
	assert.Len(t, c.Transcript, 2)
	assert.Empty(t, c.FlagTranscript)
}

func TestState_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s := domain.NewState("s1")
		s.Record(domain.AssistantMessage("Q1"))
		s.ResetTopic()
		s.Record(domain.UserMessage("A1"))
		s.Cursor = 1
		require.NoError(t, s.Validate(5))
	})

	t.Run("Cursor Out Of Range", func(t *testing.T) {
		s := domain.NewState("s1")
		s.Cursor = 6
		assert.ErrorIs(t, s.Validate(5), domain.ErrInvalidState)
	})

	t.Run("Flag Not A Suffix", func(t *testing.T) {
		s := domain.NewState("s1")
		s.Record(domain.AssistantMessage("Q1"))
		s.Transcript = append(s.Transcript, domain.UserMessage("only in main"))
		assert.ErrorIs(t, s.Validate(5), domain.ErrInvalidState)
	})

	t.Run("Unknown Awaiting", func(t *testing.T) {
		s := domain.NewState("s1")
		s.Awaiting = "maybe"
		assert.ErrorIs(t, s.Validate(5), domain.ErrInvalidState)
	})
}

func TestState_Phase(t *testing.T) {
	s := domain.NewState("s1")
	s.Record(domain.AssistantMessage("Q1"))
	s.Cursor = 1
	assert.Equal(t, domain.PhaseAwaitingUserReply, s.Phase(5))

	s.Awaiting = domain.AwaitingTransition
	assert.Equal(t, domain.PhaseAwaitingTransitionReply, s.Phase(5))

	s.Cursor = 5
	assert.Equal(t, domain.PhaseClosing, s.Phase(5))

	s.Awaiting = domain.AwaitingClosing
	assert.Equal(t, domain.PhaseClosing, s.Phase(5))

	s.Active = false
	assert.Equal(t, domain.PhaseEnded, s.Phase(5))
}

func TestNewView_ShowYesNo(t *testing.T) {
	s := domain.NewState("s1")
	s.Record(domain.AssistantMessage("Q1"))
	assert.False(t, domain.NewView(s, 5).ShowYesNo)

	s.Awaiting = domain.AwaitingTransition
	assert.True(t, domain.NewView(s, 5).ShowYesNo)

	// A pending turn hides the buttons until the reply arrives.
	s.Pending = true
	assert.False(t, domain.NewView(s, 5).ShowYesNo)

	s.Pending = false
	s.Active = false
	assert.False(t, domain.NewView(s, 5).ShowYesNo)
}
