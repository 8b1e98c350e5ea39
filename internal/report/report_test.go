package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

func TestWriteRunSummary(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, &logging.MockLogger{})
	period := models.Period{Year: 2025, Month: 7}

	summary := RunSummary{
		Period:     period.Text(),
		StartedAt:  time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 8, 1, 6, 4, 30, 0, time.UTC),
		Recipients: 42,
		Passes: []PassReport{
			{WorkKind: "fee-statement/generation", Pending: 42, Succeeded: 40, Failed: 2},
			{WorkKind: "delivery", Pending: 40, Succeeded: 39, Failed: 0, Skipped: 1},
		},
	}

	path, err := writer.Write(period, summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run_summary_202507.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded RunSummary
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, summary.Recipients, loaded.Recipients)
	require.Len(t, loaded.Passes, 2)
	assert.Equal(t, "delivery", loaded.Passes[1].WorkKind)
	assert.Equal(t, 1, loaded.Passes[1].Skipped)
}

func TestWriteRunSummaryOverwrites(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, &logging.MockLogger{})
	period := models.Period{Year: 2025, Month: 7}

	_, err := writer.Write(period, RunSummary{Recipients: 1})
	require.NoError(t, err)
	path, err := writer.Write(period, RunSummary{Recipients: 2})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded RunSummary
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, 2, loaded.Recipients)
}

func TestWriteRunSummaryCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "summaries")
	writer := NewWriter(dir, &logging.MockLogger{})

	_, err := writer.Write(models.Period{Year: 2025, Month: 12}, RunSummary{})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "run_summary_202512.json"))
}
