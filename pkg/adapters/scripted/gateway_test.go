package scripted_test

import (
	"context"
	"testing"

	"github.com/aretw0/debrief/internal/runtime"
	"github.com/aretw0/debrief/pkg/adapters/scripted"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_ShouldTransition(t *testing.T) {
	gw := scripted.New(scripted.WithDepth(2))
	ctx := context.Background()

	flag := []domain.Message{domain.AssistantMessage("Q"), domain.UserMessage("a")}
	reply, err := gw.ShouldTransition(ctx, flag)
	require.NoError(t, err)
	assert.False(t, reply.Value)

	flag = append(flag, domain.AssistantMessage("F"), domain.UserMessage("b"))
	reply, err = gw.ShouldTransition(ctx, flag)
	require.NoError(t, err)
	assert.True(t, reply.Value)
	assert.Equal(t, `{"binary_value": 1}`, reply.Raw)
}

func TestGateway_FollowUpCycles(t *testing.T) {
	gw := scripted.New(scripted.WithFollowUps("one", "two"))
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		r, err := gw.FollowUp(ctx, nil)
		require.NoError(t, err)
		got = append(got, r.Value)
	}
	assert.Equal(t, []string{"one", "two", "one"}, got)
}

func TestGateway_Summarize(t *testing.T) {
	gw := scripted.New()
	reply, err := gw.Summarize(context.Background(), []domain.Message{
		domain.AssistantMessage("Q"),
		domain.UserMessage("Walk every morning"),
		domain.UserMessage("yes"),
		domain.UserMessage("no"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk every morning"}, reply.Value.Goals)
	assert.Len(t, reply.Value.FollowUpOpportunities, 1)
}

func TestGateway_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scripted.New().FollowUp(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

// The scripted gateway drives a full session through the engine in both directions.
func TestGateway_DrivesEngine(t *testing.T) {
	eng := runtime.NewEngine(scripted.New(scripted.WithDepth(1)), nil)
	ctx := context.Background()
	script := domain.DefaultScript()

	state := eng.Start(ctx, domain.NewState("demo"))
	var err error
	for state.Awaiting != domain.AwaitingClosing {
		state, err = eng.Submit(ctx, state, "It went well")
		require.NoError(t, err)
		require.Equal(t, domain.AwaitingTransition, state.Awaiting)
		state, err = eng.Submit(ctx, state, "yes")
		require.NoError(t, err)
	}
	assert.Equal(t, script.Len(), state.Cursor)

	state, err = eng.Submit(ctx, state, "no")
	require.NoError(t, err)
	assert.False(t, state.Active)
}
