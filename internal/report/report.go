// Package report writes the per-run execution summary.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"merchant-statements/internal/fileutils"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// PassReport summarizes one work kind of a run: how many units were due,
// and how each of them ended.
type PassReport struct {
	WorkKind  string `json:"work_kind"`
	Pending   int    `json:"pending"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// RunSummary is the full record of one execution.
type RunSummary struct {
	Period     string       `json:"period"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Recipients int          `json:"recipients"`
	Passes     []PassReport `json:"passes"`
}

// Writer persists run summaries under a state directory.
type Writer struct {
	dir    string
	logger logging.Logger
}

// NewWriter creates a summary writer rooted at dir.
func NewWriter(dir string, logger logging.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Write marshals the summary and stores it atomically as
// run_summary_{period}.json. Reruns for the same period overwrite the
// previous summary.
func (w *Writer) Write(period models.Period, summary RunSummary) (string, error) {
	if err := fileutils.EnsureDirectoryExists(w.dir); err != nil {
		return "", fmt.Errorf("error preparing summary directory: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling run summary: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("run_summary_%s.json", period.Key()))
	if err := fileutils.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing run summary: %w", err)
	}

	w.logger.Info("Run summary written",
		logging.F("file", path),
		logging.F("passes", len(summary.Passes)))
	return path, nil
}
