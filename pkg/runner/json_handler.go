package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/debrief/pkg/domain"
)

// Event types emitted by the JSONHandler, one per line.
const (
	EventMessage = "message"
	EventState   = "state"
	EventSystem  = "system"
)

// Event is a single NDJSON line written by the JSONHandler.
type Event struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	View    *domain.View    `json:"view,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// Command is the structured form accepted on input.
// A plain JSON string or raw text line is treated as Text.
type Command struct {
	Text    string `json:"text,omitempty"`
	Answer  *bool  `json:"answer,omitempty"`
	Command string `json:"command,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view *domain.View, fresh []domain.Message) error {
	for i := range fresh {
		if err := h.Encoder.Encode(Event{Type: EventMessage, Message: &fresh[i]}); err != nil {
			return err
		}
	}
	if view == nil {
		return nil
	}
	return h.Encoder.Encode(Event{Type: EventState, View: view})
}

// Input reads one line and maps it onto the runner's line vocabulary:
// {"answer":true} becomes "yes", {"command":"end"} becomes "quit" and
// {"command":"retry"} becomes an empty line.
func (h *JSONHandler) Input(ctx context.Context, view *domain.View) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var line string
	var cmd Command
	switch {
	case json.Unmarshal([]byte(text), &line) == nil:
	case json.Unmarshal([]byte(text), &cmd) == nil:
		line = cmd.line()
	default:
		line = text
	}
	return SanitizeInput(line)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: EventSystem, Text: msg})
}

func (c Command) line() string {
	switch {
	case c.Command == "end" || c.Command == "quit":
		return "quit"
	case c.Command == "retry":
		return ""
	case c.Answer != nil && *c.Answer:
		return "yes"
	case c.Answer != nil:
		return "no"
	}
	return c.Text
}
