package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

func TestFileSource_Path(t *testing.T) {
	src := NewFileSource("/data/input", &logging.MockLogger{})
	period := models.Period{Year: 2025, Month: 7}

	assert.Equal(t,
		filepath.Join("/data/input", "fee", "2025", "07", "fee_202507.csv"),
		src.Path("fee", period))
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	period := models.Period{Year: 2025, Month: 7}

	src := NewFileSource(dir, &logging.MockLogger{})
	path := src.Path("bonus", period)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))

	content := "store_id,description,amount\n00042,Launch bonus,12.50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	rows, err := src.Load("bonus", period)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "00042", rows[0]["store_id"])
	assert.Equal(t, "12.50", rows[0]["amount"])
}

func TestFileSource_LoadMissingFile(t *testing.T) {
	src := NewFileSource(t.TempDir(), &logging.MockLogger{})

	_, err := src.Load("fee", models.Period{Year: 2025, Month: 7})
	assert.Error(t, err)
}
