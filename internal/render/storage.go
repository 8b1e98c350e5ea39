// Package render produces statement documents from templates and stores
// them under the period-addressed destination scheme.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"merchant-statements/internal/fileutils"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// DestinationKey is the storage naming scheme for generated documents:
// {kind-prefix}/{YYYYMM}/{identifier}.pdf.
func DestinationKey(doc models.DocumentKind, period models.Period, storeID string) string {
	return fmt.Sprintf("%s/%s/%s.pdf", doc.Prefix(), period.Key(), storeID)
}

// Storage is the document store consumed by the renderer and the delivery
// pass. Implementations are external collaborators; FSStorage is the local
// one.
type Storage interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// FSStorage stores documents on the local filesystem under a root directory.
type FSStorage struct {
	root   string
	logger logging.Logger
}

// NewFSStorage creates an FSStorage rooted at root.
func NewFSStorage(root string, logger logging.Logger) *FSStorage {
	return &FSStorage{root: root, logger: logger}
}

func (s *FSStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put writes a document under the key, creating parent directories.
func (s *FSStorage) Put(_ context.Context, key string, body []byte) error {
	path := s.path(key)
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("error storing document %s: %w", key, err)
	}
	s.logger.Debug("Document stored", logging.F("key", key), logging.F("bytes", len(body)))
	return nil
}

// Get reads a document by key.
func (s *FSStorage) Get(_ context.Context, key string) ([]byte, error) {
	body, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("error reading document %s: %w", key, err)
	}
	return body, nil
}

// Exists reports whether a document is stored under the key.
func (s *FSStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking document %s: %w", key, err)
	}
	return true, nil
}
