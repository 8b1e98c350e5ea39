// Package ledger owns the persisted completion log that makes the pipeline
// idempotent and resumable across runs.
package ledger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"merchant-statements/internal/fileutils"
	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// Outcome is the recorded result of one unit of work.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

const timestampLayout = "2006-01-02 15:04:05"

// Record is one immutable completion log row. Records are only ever
// appended; a retried recipient gains an additional row.
type Record struct {
	Timestamp  string `csv:"timestamp"`
	StoreID    string `csv:"store_id"`
	Kind       string `csv:"kind"`
	Outcome    string `csv:"outcome"`
	Address    string `csv:"address"`
	RecordedAt string `csv:"recorded_at"`
}

// LoadError reports persisted ledger state that exists but cannot be read.
// Fatal: treating it as an empty ledger would cause duplicate deliveries.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("completion ledger %s exists but could not be loaded: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Ledger is the in-memory completion log plus its persisted CSV form.
// Appends are serialized behind a mutex; each append flushes the whole file
// through an atomic replace so a crash never leaves a torn file.
type Ledger struct {
	path   string
	logger logging.Logger

	mu      sync.Mutex
	records []Record
}

// Load reads the persisted ledger. A missing file yields an empty ledger; a
// present file that fails to parse yields a LoadError.
func Load(path string, logger logging.Logger) (*Ledger, error) {
	l := &Ledger{path: path, logger: logger}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Info("No completion ledger found, starting empty", logging.F("path", path))
		return l, nil
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close ledger file")
		}
	}()

	var records []Record
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	l.records = records
	logger.Info("Completion ledger loaded",
		logging.F("path", path),
		logging.F("records", len(records)))
	return l, nil
}

// Append records one outcome and flushes the ledger. Safe for concurrent use
// by in-flight workers.
func (l *Ledger) Append(storeID string, kind models.WorkKind, outcome Outcome, address string) error {
	now := time.Now().Format(timestampLayout)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, Record{
		Timestamp:  now,
		StoreID:    storeID,
		Kind:       string(kind),
		Outcome:    string(outcome),
		Address:    address,
		RecordedAt: now,
	})

	return l.flushLocked()
}

// flushLocked persists the full record set via temp file + atomic rename.
// Callers must hold l.mu.
func (l *Ledger) flushLocked() error {
	data, err := gocsv.MarshalString(&l.records)
	if err != nil {
		return fmt.Errorf("error marshaling completion ledger: %w", err)
	}
	if err := fileutils.WriteFileAtomic(l.path, []byte(data), 0644); err != nil {
		return fmt.Errorf("error persisting completion ledger: %w", err)
	}
	return nil
}

// Succeeded returns the set of recipients with any prior success record for
// a work kind. Any success counts, not just the latest record.
func (l *Ledger) Succeeded(kind models.WorkKind) map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	done := make(map[string]bool)
	for _, record := range l.records {
		if record.Kind == string(kind) && record.Outcome == string(OutcomeSuccess) {
			done[record.StoreID] = true
		}
	}
	return done
}

// Pending computes the remaining work set for a kind: every recipient in the
// universe without a prior success record, preserving universe order.
func (l *Ledger) Pending(kind models.WorkKind, universe []string) []string {
	done := l.Succeeded(kind)

	pending := make([]string, 0, len(universe))
	for _, storeID := range universe {
		if !done[storeID] {
			pending = append(pending, storeID)
		}
	}
	return pending
}

// Counts returns per work kind the number of success and failure records.
func (l *Ledger) Counts() map[models.WorkKind]map[Outcome]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := make(map[models.WorkKind]map[Outcome]int)
	for _, record := range l.records {
		kind := models.WorkKind(record.Kind)
		if counts[kind] == nil {
			counts[kind] = make(map[Outcome]int)
		}
		counts[kind][Outcome(record.Outcome)]++
	}
	return counts
}

// Len returns the total number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
