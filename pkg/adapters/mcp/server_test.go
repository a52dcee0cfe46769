package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/internal/testutils"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, gw *testutils.MockGateway) *Server {
	t.Helper()
	coach, err := debrief.New(gw)
	require.NoError(t, err)
	return NewServer(coach)
}

func TestServer_Tools(t *testing.T) {
	gw := testutils.NewMockGateway().QueueTransition(true)
	s := newServer(t, gw)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	res, err := s.handleOpen(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", res.View.SessionID)
	assert.Equal(t, 1, res.View.Cursor)

	res, err = s.handleSend(ctx, req, MessageArgs{SessionID: "s1", Text: "I finished the report"})
	require.NoError(t, err)
	assert.True(t, res.View.ShowYesNo)

	res, err = s.handleAnswer(ctx, req, AnswerArgs{SessionID: "s1", Yes: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.View.Cursor)

	res, err = s.handleGet(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, res.View.Active)

	res, err = s.handleEnd(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.False(t, res.View.Active)
}

func TestServer_RetryableFailure(t *testing.T) {
	gw := testutils.NewMockGateway().Fail(domain.OpShouldTransition, errors.New("rate limited"))
	s := newServer(t, gw)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleOpen(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)

	res, err := s.handleSend(ctx, req, MessageArgs{SessionID: "s1", Text: "hello"})
	require.NoError(t, err, "a recorded turn is reported in the result, not as a tool error")
	assert.True(t, res.Retryable)
	assert.Contains(t, res.Error, "rate limited")
	assert.True(t, res.View.Pending)

	res, err = s.handleRetry(ctx, req, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.False(t, res.Retryable)
	assert.False(t, res.View.Pending)
}

func TestServer_ToolErrors(t *testing.T) {
	s := newServer(t, testutils.NewMockGateway())
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	t.Run("Unknown Session", func(t *testing.T) {
		_, err := s.handleGet(ctx, req, SessionArgs{SessionID: "missing"})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Invalid Input", func(t *testing.T) {
		_, err := s.handleSend(ctx, req, MessageArgs{SessionID: "missing", Text: "\xff\xfe"})
		assert.Error(t, err)
	})
}

func TestServer_Protocol(t *testing.T) {
	s := newServer(t, testutils.NewMockGateway())
	ctx := context.Background()

	call := func(t *testing.T, method string, params any) string {
		t.Helper()
		msg, err := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  method,
			"params":  params,
		})
		require.NoError(t, err)
		resp := s.MCPServer().HandleMessage(ctx, msg)
		out, err := json.Marshal(resp)
		require.NoError(t, err)
		return string(out)
	}

	t.Run("List Tools", func(t *testing.T) {
		out := call(t, "tools/list", map[string]any{})
		for _, name := range []string{"open_session", "send_message", "answer", "retry_turn", "end_session", "get_session"} {
			assert.True(t, strings.Contains(out, `"`+name+`"`), name)
		}
	})

	t.Run("Call Open", func(t *testing.T) {
		out := call(t, "tools/call", map[string]any{
			"name":      "open_session",
			"arguments": map[string]any{"session_id": "p1"},
		})
		assert.Contains(t, out, "What is one success you had today?")
	})

	t.Run("Read Script", func(t *testing.T) {
		out := call(t, "resources/read", map[string]any{"uri": ScriptURI})
		assert.Contains(t, out, "transition_question")
	})
}
