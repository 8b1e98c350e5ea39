package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// dateLayouts are the accepted occurrence date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Normalizer turns raw string-cell tables into typed, canonically named
// records. Identifier cells stay opaque strings end-to-end; numeric coercion
// would drop leading zeros.
type Normalizer struct {
	logger logging.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger logging.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeTransactions converts raw rows of one transactional kind into
// TransactionRecords. An empty table is valid and yields no records. A
// required column missing from a non-empty table is a SchemaError.
func (n *Normalizer) NormalizeTransactions(kind models.Kind, rows []map[string]string) ([]models.TransactionRecord, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("no schema declared for kind %q", kind)
	}

	if len(rows) == 0 {
		n.logger.Debug("Dataset empty, nothing to normalize", logging.F("kind", kind))
		return []models.TransactionRecord{}, nil
	}

	resolved, err := schema.Resolve(headerOf(rows))
	if err != nil {
		return nil, err
	}

	records := make([]models.TransactionRecord, 0, len(rows))
	for i, row := range rows {
		record, err := n.normalizeRow(schema, resolved, row)
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %w", kind, i+1, err)
		}
		records = append(records, record)
	}

	n.logger.Info("Dataset normalized",
		logging.F("kind", kind),
		logging.F("rows", len(records)))
	return records, nil
}

func (n *Normalizer) normalizeRow(schema Schema, resolved map[string]string, row map[string]string) (models.TransactionRecord, error) {
	cell := func(canonical string) string {
		source, ok := resolved[canonical]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[source])
	}

	record := models.TransactionRecord{
		StoreID:      cell(FieldStoreID),
		Kind:         schema.Kind,
		Label:        cell(FieldLabel),
		Description:  cell(FieldDescription),
		POS:          cell(FieldPOS),
		SecondaryKey: cell(FieldSecondaryKey),
		OccurredHour: cell(FieldHour),
	}

	if raw := cell(FieldDate); raw != "" {
		occurred, err := parseDate(raw)
		if err != nil {
			return models.TransactionRecord{}, err
		}
		record.OccurredAt = occurred
	}

	var err error
	if record.Amount, err = parseAmount(cell(FieldAmount)); err != nil {
		return models.TransactionRecord{}, fmt.Errorf("column %s: %w", FieldAmount, err)
	}
	if record.Principal, err = parseAmount(cell(FieldPrincipal)); err != nil {
		return models.TransactionRecord{}, fmt.Errorf("column %s: %w", FieldPrincipal, err)
	}
	if record.PrincipalTax, err = parseAmount(cell(FieldPrincipalTax)); err != nil {
		return models.TransactionRecord{}, fmt.Errorf("column %s: %w", FieldPrincipalTax, err)
	}
	if record.Tax, err = parseAmount(cell(FieldTax)); err != nil {
		return models.TransactionRecord{}, fmt.Errorf("column %s: %w", FieldTax, err)
	}
	if record.Credited, err = parseAmount(cell(FieldCredited)); err != nil {
		return models.TransactionRecord{}, fmt.Errorf("column %s: %w", FieldCredited, err)
	}

	return record, nil
}

// NormalizeRecipients converts raw registry rows into Recipients. The
// registry requires store_id and merchant; contact and address columns are
// optional and left empty when absent.
func (n *Normalizer) NormalizeRecipients(rows []map[string]string) ([]models.Recipient, error) {
	if len(rows) == 0 {
		return []models.Recipient{}, nil
	}

	header := headerOf(rows)
	for _, required := range []string{"store_id", "merchant"} {
		if !header[required] {
			return nil, &SchemaError{Kind: "merchants", Column: required}
		}
	}

	recipients := make([]models.Recipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, models.Recipient{
			StoreID:  strings.TrimSpace(row["store_id"]),
			Merchant: strings.TrimSpace(row["merchant"]),
			Owner:    strings.TrimSpace(row["store_owner"]),
			Address:  strings.TrimSpace(row["address"]),
			Province: strings.TrimSpace(row["province"]),
			Region:   strings.TrimSpace(row["region"]),
			Email:    strings.TrimSpace(row["email"]),
		})
	}

	n.logger.Info("Registry normalized", logging.F("recipients", len(recipients)))
	return recipients, nil
}

// headerOf derives the column set from raw rows. Every row produced by the
// CSV reader carries the full header as keys.
func headerOf(rows []map[string]string) map[string]bool {
	header := make(map[string]bool, len(rows[0]))
	for column := range rows[0] {
		header[column] = true
	}
	return header
}

// parseAmount parses a monetary cell. Empty cells are zero: several source
// extracts omit optional tax columns per row, never whole amounts.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
