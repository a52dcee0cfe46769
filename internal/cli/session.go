package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/debrief"
)

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Coach.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession prints the raw stored state of a session as indented JSON.
func InspectSession(ctx context.Context, app *App, w io.Writer, sessionID string) error {
	state, err := app.Store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session '%s': %w", sessionID, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes each session, reporting every failure.
func RemoveSessions(ctx context.Context, app *App, w io.Writer, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := app.Coach.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

// ShowSummary prints the summary of an ended session, as markdown or JSON.
func ShowSummary(ctx context.Context, app *App, w io.Writer, sessionID string, asJSON bool) error {
	summary, err := app.Coach.Summary(ctx, sessionID)
	if errors.Is(err, debrief.ErrSummaryUnavailable) {
		return fmt.Errorf("%w: the configured summary sink cannot be read back (set summary.per_session or use the sqlite/redis driver)", err)
	}
	if err != nil {
		return fmt.Errorf("summary of '%s': %w", sessionID, err)
	}
	if asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	fmt.Fprint(w, summary.Markdown())
	return nil
}
