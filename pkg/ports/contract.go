package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/debrief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.Record(domain.AssistantMessage("What is one success you had today?"))
		state.Record(domain.UserMessage("I finished a report."))
		state.Cursor = 1
		state.Awaiting = domain.AwaitingTransition
		state.Pending = true

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.SessionID, loaded.SessionID)
		assert.Equal(t, state.Transcript, loaded.Transcript)
		assert.Equal(t, state.FlagTranscript, loaded.FlagTranscript)
		assert.Equal(t, 1, loaded.Cursor)
		assert.Equal(t, domain.AwaitingTransition, loaded.Awaiting)
		assert.True(t, loaded.Active)
		assert.True(t, loaded.Pending)
	})

	t.Run("Load Returns Isolated Copy", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.Record(domain.AssistantMessage("first"))
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Record(domain.UserMessage("mutated after save"))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, loaded.Transcript, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunSummarySinkContract verifies a SummarySink that can also read summaries back.
func RunSummarySinkContract(t *testing.T, sink interface {
	SummarySink
	SummaryReader
}) {
	ctx := context.Background()
	sessionID := "contract-summary-" + time.Now().Format("20060102150405")

	t.Run("Persist and Read", func(t *testing.T) {
		summary := domain.Summary{
			Goals:                 []string{"Go to bed before 11pm"},
			FollowUpOpportunities: []string{"Ask how sleep went"},
		}
		require.NoError(t, sink.Persist(ctx, sessionID, summary))

		got, err := sink.Summary(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, summary, got)
	})

	t.Run("Persist Overwrites", func(t *testing.T) {
		require.NoError(t, sink.Persist(ctx, sessionID, domain.FallbackSummary()))

		got, err := sink.Summary(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.FallbackSummary(), got)
	})

	t.Run("Read Missing", func(t *testing.T) {
		_, err := sink.Summary(ctx, "missing-"+sessionID)
		assert.True(t, errors.Is(err, domain.ErrSessionNotFound), "expected ErrSessionNotFound, got %v", err)
	})
}
