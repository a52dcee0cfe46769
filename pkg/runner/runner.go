package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
)

// Runner drives a conversation from a line-oriented terminal or pipe.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Conversation ports.Conversation
	Handler      IOHandler
	Logger       *slog.Logger
	SessionID    string
	Headless     bool
	Renderer     ContentRenderer
	Banner       string

	rendered int
}

// RetryHint is shown when a turn failed because the model could not be reached.
const RetryHint = "The coach is unavailable right now. Press Enter to retry, or type quit to leave."

// NewRunner creates a Runner on Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens the session and loops until it ends, the input is exhausted or an interrupt arrives.
// Sessions interrupted mid-way stay in the store and can be resumed with the same ID.
func (r *Runner) Run(ctx context.Context) error {
	if r.Conversation == nil {
		return errors.New("runner: no conversation configured")
	}
	handler := r.resolveHandler()

	signals := NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	view, err := r.Conversation.Open(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	r.SessionID = view.SessionID
	r.Logger.Debug("session opened", "session_id", view.SessionID, "phase", view.Phase)

	if err := r.render(ctx, handler, view); err != nil {
		return err
	}

	for view.Active {
		line, err := handler.Input(ctx, view)
		if err != nil {
			if err == io.EOF || signals.Settle() {
				r.Logger.Debug("runner stopped", "session_id", view.SessionID, "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		next, err := r.step(ctx, view, line)
		if next != nil {
			view = next
		}
		if err != nil {
			if !errors.Is(err, domain.ErrModelUnavailable) {
				return err
			}
			r.Logger.Warn("turn failed", "session_id", view.SessionID, "err", err)
			if renderErr := r.render(ctx, handler, view); renderErr != nil {
				return renderErr
			}
			if err := handler.SystemOutput(ctx, RetryHint); err != nil {
				return err
			}
			continue
		}
		if err := r.render(ctx, handler, view); err != nil {
			return err
		}
	}

	return r.showSummary(ctx, handler, view.SessionID)
}

// step maps one input line onto a conversation operation.
func (r *Runner) step(ctx context.Context, view *domain.View, line string) (*domain.View, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit":
		return r.Conversation.End(ctx, view.SessionID)
	case "":
		if view.Pending {
			return r.Conversation.Retry(ctx, view.SessionID)
		}
		return view, nil
	}
	return r.Conversation.Send(ctx, view.SessionID, line)
}

// render forwards the transcript suffix the handler has not seen yet.
func (r *Runner) render(ctx context.Context, handler IOHandler, view *domain.View) error {
	if r.rendered > len(view.Transcript) {
		r.rendered = 0
	}
	fresh := view.Transcript[r.rendered:]
	r.rendered = len(view.Transcript)
	if err := handler.Output(ctx, view, fresh); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func (r *Runner) showSummary(ctx context.Context, handler IOHandler, sessionID string) error {
	reader, ok := r.Conversation.(ports.SummaryReader)
	if !ok {
		return handler.SystemOutput(ctx, "Conversation ended.")
	}
	summary, err := reader.Summary(ctx, sessionID)
	if err != nil {
		r.Logger.Debug("summary unavailable", "session_id", sessionID, "err", err)
		return handler.SystemOutput(ctx, "Conversation ended.")
	}
	return handler.SystemOutput(ctx, summary.Markdown())
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
	if !r.Headless && r.Banner != "" {
		fmt.Fprintln(th.Writer, r.Banner)
	}
	r.Handler = th
	return th
}
