package debrief_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/internal/testutils"
	"github.com/aretw0/debrief/pkg/adapters/file"
	"github.com/aretw0/debrief/pkg/adapters/memory"
	"github.com/aretw0/debrief/pkg/adapters/scripted"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := debrief.New(nil)
	assert.Error(t, err)

	_, err = debrief.New(scripted.New(), debrief.WithScript(domain.Script{}))
	assert.ErrorIs(t, err, domain.ErrInvalidScript)
}

func TestCoach_Open(t *testing.T) {
	coach, err := debrief.New(scripted.New())
	require.NoError(t, err)
	ctx := context.Background()

	view, err := coach.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", view.SessionID)
	assert.Equal(t, domain.PhaseAwaitingUserReply, view.Phase)
	assert.Equal(t, 1, view.Cursor)
	assert.Equal(t, 5, view.TotalQuestions)
	require.Len(t, view.Transcript, 1)

	t.Run("Reopen Keeps State", func(t *testing.T) {
		_, err := coach.Send(ctx, "s1", "I cooked dinner")
		require.NoError(t, err)

		again, err := coach.Open(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, again.Transcript, 3)
	})

	t.Run("Generated ID", func(t *testing.T) {
		view, err := coach.Open(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, view.SessionID)

		ids, err := coach.Sessions(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, view.SessionID)
	})
}

func TestCoach_UnknownSession(t *testing.T) {
	coach, err := debrief.New(scripted.New())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = coach.Send(ctx, "ghost", "hello")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = coach.Get(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCoach_FullSession(t *testing.T) {
	sink := memory.NewSummarySink()
	coach, err := debrief.New(scripted.New(scripted.WithDepth(1)), debrief.WithSummarySink(sink))
	require.NoError(t, err)
	ctx := context.Background()

	view, err := coach.Open(ctx, "s1")
	require.NoError(t, err)

	for view.Phase != domain.PhaseClosing {
		view, err = coach.Send(ctx, "s1", "Something meaningful")
		require.NoError(t, err)
		require.True(t, view.ShowYesNo)
		view, err = coach.Answer(ctx, "s1", true)
		require.NoError(t, err)
	}
	assert.True(t, view.ShowYesNo)

	view, err = coach.Answer(ctx, "s1", false)
	require.NoError(t, err)
	assert.False(t, view.Active)
	assert.Equal(t, domain.PhaseEnded, view.Phase)
	last, _ := view.LastAssistant()
	assert.Equal(t, domain.DefaultScript().Farewell, last)

	summary, err := coach.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, summary.Goals, "Something meaningful")
}

func TestCoach_FailedTurnIsSavedAndRetried(t *testing.T) {
	gw := testutils.NewMockGateway().Fail(domain.OpShouldTransition, errors.New("timeout")).QueueFollowUp("What made it good?")
	coach, err := debrief.New(gw)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = coach.Open(ctx, "s1")
	require.NoError(t, err)

	view, err := coach.Send(ctx, "s1", "Good day")
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	require.NotNil(t, view)
	assert.True(t, view.Pending)
	assert.True(t, view.Active)

	stored, err := coach.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, stored.Transcript, 2, "the user message survives the failure")

	view, err = coach.Retry(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, view.Pending)
	require.Len(t, view.Transcript, 3)
	assert.Equal(t, "What made it good?", view.Transcript[2].Content)
}

func TestCoach_End(t *testing.T) {
	sink := memory.NewSummarySink()
	coach, err := debrief.New(scripted.New(), debrief.WithSummarySink(sink))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = coach.Open(ctx, "s1")
	require.NoError(t, err)
	view, err := coach.End(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, view.Active)
	assert.Len(t, view.Transcript, 1)

	_, err = coach.Summary(ctx, "s1")
	assert.NoError(t, err)
}

func TestCoach_SummaryWriteOnlySink(t *testing.T) {
	sink := file.NewSummaryFile(t.TempDir() + "/summary.json")
	coach, err := debrief.New(scripted.New(), debrief.WithSummarySink(sink))
	require.NoError(t, err)

	_, err = coach.Summary(context.Background(), "s1")
	assert.ErrorIs(t, err, debrief.ErrSummaryUnavailable)
}

func TestCoach_ConcurrentSessions(t *testing.T) {
	coach, err := debrief.New(scripted.New())
	require.NoError(t, err)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := coach.Open(ctx, id)
			assert.NoError(t, err)
			for i := 0; i < 5; i++ {
				_, err := coach.Send(ctx, id, "reply")
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		view, err := coach.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, view.Transcript, 11, id)
	}
}

func TestCoach_Delete(t *testing.T) {
	coach, err := debrief.New(scripted.New())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = coach.Open(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, coach.Delete(ctx, "s1"))

	_, err = coach.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, debrief.Version())
}
