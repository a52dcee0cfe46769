package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/debrief/internal/presentation/tui"
	"github.com/aretw0/debrief/pkg/runner"
)

// RunOptions configures an interactive terminal session.
type RunOptions struct {
	SessionID string
	Headless  bool
	JSON      bool

	In  io.Reader
	Out io.Writer
}

// RunSession drives one session in the terminal until it ends or input runs out.
func RunSession(ctx context.Context, app *App, opts RunOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	runnerOpts := []runner.Option{
		runner.WithConversation(app.Coach),
		runner.WithSessionID(opts.SessionID),
		runner.WithLogger(app.Logger),
		runner.WithHeadless(opts.Headless || opts.JSON),
	}

	switch {
	case opts.JSON:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewJSONHandler(in, out)))
	case opts.Headless || !runner.IsTerminal(out):
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewTextHandler(in, out)))
	default:
		handler := runner.NewTextHandler(in, out,
			runner.WithTextHandlerRenderer(tui.NewRenderer()),
			runner.WithTextHandlerLabel(tui.Label),
		)
		runnerOpts = append(runnerOpts, runner.WithInputHandler(handler))
		io.WriteString(out, tui.Banner())
	}

	r := runner.NewRunner(runnerOpts...)
	err := r.Run(ctx)
	if err == nil && !opts.Headless && !opts.JSON {
		printSystemMessage(out, "Session '%s' saved. Resume it with --session %s.", r.SessionID, r.SessionID)
	}
	return handleExecutionError(err)
}
