package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/debrief/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "**" + s + "**", nil
	}))

	err := h.Output(context.Background(), &domain.View{}, []domain.Message{
		domain.AssistantMessage("Hello"),
		domain.UserMessage("Hi"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Coach: **Hello**\nYou: Hi\n", out.String(), "only assistant messages are rendered")
}

func TestTextHandler_Prompt(t *testing.T) {
	tests := []struct {
		name string
		view *domain.View
		want string
	}{
		{"Free Text", &domain.View{}, "> "},
		{"Yes No", &domain.View{ShowYesNo: true}, "[y/n] > "},
		{"No View", nil, "> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			h := NewTextHandler(strings.NewReader("ok\n"), &out)

			got, err := h.Input(context.Background(), tt.view)
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestTextHandler_Input(t *testing.T) {
	t.Run("Sanitizes And Retries", func(t *testing.T) {
		t.Setenv(EnvMaxInputSize, "5")
		var out bytes.Buffer
		h := NewTextHandler(strings.NewReader("too long line\nfine\x07\n"), &out)

		got, err := h.Input(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "fine", got)
		assert.Contains(t, out.String(), "Please try again")
	})

	t.Run("EOF", func(t *testing.T) {
		h := NewTextHandler(strings.NewReader("last"), io.Discard)

		got, err := h.Input(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "last", got)

		_, err = h.Input(context.Background(), nil)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		h := NewTextHandler(pr, io.Discard)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := h.Input(ctx, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTextHandler_SystemOutput(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out)

	require.NoError(t, h.SystemOutput(context.Background(), "saved"))
	assert.Equal(t, "\n[System] saved\n", out.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(strings.NewReader("")))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
