package runner

import (
	"log/slog"

	"github.com/aretw0/debrief/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithConversation configures the conversation the runner drives.
func WithConversation(conv ports.Conversation) Option {
	return func(r *Runner) {
		r.Conversation = conv
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless sets the runner to headless mode (no banner, no hints).
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithSessionID resumes or creates the given session.
// An empty ID lets the conversation generate one.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
// It applies only to the default text handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithBanner prints a header before the first question in interactive mode.
func WithBanner(banner string) Option {
	return func(r *Runner) {
		r.Banner = banner
	}
}
