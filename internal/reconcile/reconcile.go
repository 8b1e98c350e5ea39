// Package reconcile restricts transactional datasets to recipients present
// in the canonical registry.
package reconcile

import (
	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// Coverage reports, per kind, how much of a dataset survived reconciliation.
type Coverage struct {
	Kind               models.Kind
	Rows               int
	DroppedRows        int
	DistinctRecipients int
}

// Reconciler filters records against the registry. This is a semi-join: rows
// are dropped or kept whole, never projected, and each kind is filtered
// independently of the others.
type Reconciler struct {
	logger logging.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(logger logging.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Restrict returns the subset of records whose recipient is in the registry,
// plus coverage counts for observability. Records referencing unknown
// recipients are dropped, not errored.
func (r *Reconciler) Restrict(registry *models.Registry, kind models.Kind, records []models.TransactionRecord) ([]models.TransactionRecord, Coverage) {
	surviving := make([]models.TransactionRecord, 0, len(records))
	seen := make(map[string]bool)

	for _, record := range records {
		if !registry.Contains(record.StoreID) {
			continue
		}
		surviving = append(surviving, record)
		seen[record.StoreID] = true
	}

	coverage := Coverage{
		Kind:               kind,
		Rows:               len(surviving),
		DroppedRows:        len(records) - len(surviving),
		DistinctRecipients: len(seen),
	}

	r.logger.Info("Dataset reconciled against registry",
		logging.F("kind", kind),
		logging.F("rows", coverage.Rows),
		logging.F("dropped", coverage.DroppedRows),
		logging.F("recipients", coverage.DistinctRecipients))

	return surviving, coverage
}
