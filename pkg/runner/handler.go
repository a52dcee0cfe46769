package runner

import (
	"context"

	"github.com/aretw0/debrief/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the messages appended since the previous call.
	// The view carries the turn state (yes/no hint, pending turn) for handlers that surface it.
	Output(ctx context.Context, view *domain.View, fresh []domain.Message) error

	// Input reads the next line from the user. The view is the state the answer applies to.
	Input(ctx context.Context, view *domain.View) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. retry hints, summaries).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
