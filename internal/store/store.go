// Package store loads the fixed statement texts rendered into every document.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// StatementTexts are the fixed blocks shared by every statement of a
// document kind: the informational footer, the highlighted note and the
// active campaign lines.
type StatementTexts struct {
	AdditionalInfo  string   `yaml:"additional_info"`
	ImportantNote   string   `yaml:"important_note"`
	ActiveCampaigns []string `yaml:"active_campaigns"`
}

// TextStore manages loading of per-document statement texts from a YAML
// file keyed by document kind.
type TextStore struct {
	path   string
	logger logging.Logger
}

// NewTextStore creates a store reading from the given YAML file.
func NewTextStore(path string, logger logging.Logger) *TextStore {
	return &TextStore{path: path, logger: logger}
}

// findTextsFile looks for the texts file in standard locations when the
// configured path is relative.
func (s *TextStore) findTextsFile() (string, error) {
	if filepath.IsAbs(s.path) {
		if _, err := os.Stat(s.path); err == nil {
			return s.path, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		s.path,
		filepath.Join("config", s.path),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// Load reads the texts for every document kind. A missing file is not an
// error: every document kind falls back to empty texts.
func (s *TextStore) Load() (map[models.DocumentKind]StatementTexts, error) {
	texts := make(map[models.DocumentKind]StatementTexts, len(models.DocumentKinds))
	for _, doc := range models.DocumentKinds {
		texts[doc] = StatementTexts{}
	}

	path, err := s.findTextsFile()
	if err != nil {
		s.logger.Warn("Statement texts file not found, using empty texts",
			logging.F("file", s.path))
		return texts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading statement texts file: %w", err)
	}

	var raw map[string]StatementTexts
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing statement texts file %s: %w", path, err)
	}

	for name, entry := range raw {
		doc := models.DocumentKind(name)
		if _, ok := texts[doc]; !ok {
			s.logger.Warn("Ignoring texts for unknown document kind",
				logging.F("kind", name))
			continue
		}
		texts[doc] = entry
	}

	s.logger.Info("Statement texts loaded",
		logging.F("file", path),
		logging.F("kinds", len(raw)))
	return texts, nil
}
