package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/debrief/pkg/domain"
)

// DefaultSummaryPath is where SummaryFile writes when no path is configured.
const DefaultSummaryPath = "chat_history_summary.json"

// SummaryFile implements ports.SummarySink by writing the latest summary to a single file,
// overwriting any previous one.
type SummaryFile struct {
	Path string
}

// NewSummaryFile creates a single-file sink.
func NewSummaryFile(path string) *SummaryFile {
	if path == "" {
		path = DefaultSummaryPath
	}
	return &SummaryFile{Path: path}
}

// Persist writes the summary as indented JSON.
func (f *SummaryFile) Persist(ctx context.Context, sessionID string, summary domain.Summary) error {
	if err := writeSummary(f.Path, summary); err != nil {
		return fmt.Errorf("failed to persist summary of %s: %w", sessionID, err)
	}
	return nil
}

// Read returns the last written summary.
func (f *SummaryFile) Read() (domain.Summary, error) {
	return readSummary(f.Path)
}

// SummaryDir implements ports.SummarySink and ports.SummaryReader with one file per session.
type SummaryDir struct {
	BasePath string
}

// NewSummaryDir creates a per-session sink rooted at basePath.
// If basePath is empty, it defaults to ".debrief/summaries".
func NewSummaryDir(basePath string) *SummaryDir {
	if basePath == "" {
		basePath = filepath.Join(".debrief", "summaries")
	}
	return &SummaryDir{BasePath: basePath}
}

// Persist writes <BasePath>/<sessionID>.json.
func (d *SummaryDir) Persist(ctx context.Context, sessionID string, summary domain.Summary) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if err := writeSummary(filepath.Join(d.BasePath, sessionID+".json"), summary); err != nil {
		return fmt.Errorf("failed to persist summary of %s: %w", sessionID, err)
	}
	return nil
}

// Summary reads the summary of a session.
func (d *SummaryDir) Summary(ctx context.Context, sessionID string) (domain.Summary, error) {
	if err := checkID(sessionID); err != nil {
		return domain.Summary{}, err
	}
	return readSummary(filepath.Join(d.BasePath, sessionID+".json"))
}

// Sessions lists the sessions that have a summary.
func (d *SummaryDir) Sessions() ([]string, error) {
	return listJSON(d.BasePath)
}

func writeSummary(path string, summary domain.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return writeAtomic(path, data)
}

func readSummary(path string) (domain.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Summary{}, domain.ErrSessionNotFound
		}
		return domain.Summary{}, fmt.Errorf("failed to read summary: %w", err)
	}
	var summary domain.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return summary, nil
}
