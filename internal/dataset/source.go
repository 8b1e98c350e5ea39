package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// RegistryName is the dataset name of the canonical recipient registry.
const RegistryName = "merchants"

// Source retrieves one raw table per dataset name and period.
type Source interface {
	Load(name string, period models.Period) ([]map[string]string, error)
}

// FileSource reads period-addressed CSV tables from a base directory laid
// out as {base}/{name}/{year}/{MM}/{name}_{YYYYMM}.csv.
type FileSource struct {
	BaseDir string
	logger  logging.Logger
}

// NewFileSource creates a FileSource rooted at baseDir.
func NewFileSource(baseDir string, logger logging.Logger) *FileSource {
	return &FileSource{BaseDir: baseDir, logger: logger}
}

// Path returns the table location for a dataset name and period.
func (s *FileSource) Path(name string, period models.Period) string {
	return filepath.Join(
		s.BaseDir,
		name,
		fmt.Sprintf("%d", period.Year),
		fmt.Sprintf("%02d", period.Month),
		fmt.Sprintf("%s_%s.csv", name, period.Key()),
	)
}

// Load reads the table into raw rows: one string map per row, keyed by the
// source header. Cells stay untyped so normalization decides every coercion.
func (s *FileSource) Load(name string, period models.Period) ([]map[string]string, error) {
	path := s.Path(name, period)
	s.logger.Debug("Loading dataset", logging.F("name", name), logging.F("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening dataset %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close dataset file")
		}
	}()

	rows, err := gocsv.CSVToMaps(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing dataset %s: %w", path, err)
	}

	s.logger.Info("Dataset loaded",
		logging.F("name", name),
		logging.F("rows", len(rows)))
	return rows, nil
}
