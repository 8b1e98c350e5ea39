// Package aggregate groups reconciled transactions into per-recipient
// summaries and assembles statement contexts with deterministic ordering.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

// Engine computes per-kind aggregations once per run. The resulting Tables
// are read-only afterwards: statement assembly never touches the source
// datasets again.
type Engine struct {
	logger logging.Logger
}

// NewEngine creates an aggregation Engine.
func NewEngine(logger logging.Logger) *Engine {
	return &Engine{logger: logger}
}

// kindTable holds one kind's records and summaries indexed by recipient.
type kindTable struct {
	// details are ordered by occurrence timestamp then secondary key.
	details map[string][]models.TransactionRecord
	// summaries are ordered by group key.
	summaries map[string][]models.KindSummary
}

// Tables is the aggregated output of one run, indexed by kind then recipient.
type Tables struct {
	byKind map[models.Kind]*kindTable
}

// Build aggregates every kind's surviving records: grouped by (recipient,
// group key) with count and sum statistics. Sums stay unrounded here;
// rounding happens exactly once, at statement combination.
func (e *Engine) Build(records map[models.Kind][]models.TransactionRecord) *Tables {
	tables := &Tables{byKind: make(map[models.Kind]*kindTable, len(records))}

	for kind, kindRecords := range records {
		table := &kindTable{
			details:   make(map[string][]models.TransactionRecord),
			summaries: make(map[string][]models.KindSummary),
		}

		groups := make(map[string]map[string]*models.KindSummary)
		for _, record := range kindRecords {
			table.details[record.StoreID] = append(table.details[record.StoreID], record)

			byKey, ok := groups[record.StoreID]
			if !ok {
				byKey = make(map[string]*models.KindSummary)
				groups[record.StoreID] = byKey
			}

			key := record.GroupKey()
			summary, ok := byKey[key]
			if !ok {
				summary = &models.KindSummary{StoreID: record.StoreID, Kind: kind, GroupKey: key}
				byKey[key] = summary
			}

			summary.Count++
			summary.Amount = summary.Amount.Add(record.Amount)
			summary.Principal = summary.Principal.Add(record.Principal)
			summary.PrincipalTax = summary.PrincipalTax.Add(record.PrincipalTax)
			summary.Tax = summary.Tax.Add(record.Tax)
			summary.Credited = summary.Credited.Add(record.Credited)
		}

		for storeID, byKey := range groups {
			summaries := make([]models.KindSummary, 0, len(byKey))
			for _, summary := range byKey {
				summaries = append(summaries, *summary)
			}
			sort.Slice(summaries, func(i, j int) bool {
				return summaries[i].GroupKey < summaries[j].GroupKey
			})
			table.summaries[storeID] = summaries
		}

		for storeID := range table.details {
			sortDetails(table.details[storeID])
		}

		tables.byKind[kind] = table

		e.logger.Info("Kind aggregated",
			logging.F("kind", kind),
			logging.F("recipients", len(table.details)),
			logging.F("rows", len(kindRecords)))
	}

	return tables
}

// sortDetails orders records by occurrence timestamp ascending, secondary key
// ascending. This ordering makes document output reproducible byte-for-byte
// regardless of worker scheduling.
func sortDetails(records []models.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].OccurredAt.Equal(records[j].OccurredAt) {
			return records[i].OccurredAt.Before(records[j].OccurredAt)
		}
		return records[i].SecondaryKey < records[j].SecondaryKey
	})
}

// RecipientsWithData returns the sorted distinct recipients that have at
// least one surviving record of the given kind. Recipients without data are
// excluded entirely; they must not appear in any pending-work computation.
func (t *Tables) RecipientsWithData(kind models.Kind) []string {
	table, ok := t.byKind[kind]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(table.details))
	for storeID := range table.details {
		ids = append(ids, storeID)
	}
	sort.Strings(ids)
	return ids
}

// Details returns one recipient's ordered records of a kind.
func (t *Tables) Details(kind models.Kind, storeID string) []models.TransactionRecord {
	table, ok := t.byKind[kind]
	if !ok {
		return nil
	}
	return table.details[storeID]
}

// Summaries returns one recipient's group summaries of a kind, ordered by
// group key.
func (t *Tables) Summaries(kind models.Kind, storeID string) []models.KindSummary {
	table, ok := t.byKind[kind]
	if !ok {
		return nil
	}
	return table.summaries[storeID]
}

// AssembleStatement builds the per-recipient statement context for one
// document kind from the aggregated tables. Returns false when the recipient
// has no data for the document's primary kind: such recipients get no
// statement at all, not one with zeros.
func (e *Engine) AssembleStatement(tables *Tables, recipient models.Recipient, doc models.DocumentKind, period models.Period) (*models.Statement, bool) {
	if len(tables.Details(doc.PrimaryKind(), recipient.StoreID)) == 0 {
		return nil, false
	}

	statement := &models.Statement{
		Recipient: recipient,
		Document:  doc,
		Period:    period,
	}

	totalWithoutTax := decimal.Zero
	totalTax := decimal.Zero

	for _, kind := range doc.ContributingKinds() {
		details := tables.Details(kind, recipient.StoreID)
		if len(details) == 0 {
			continue
		}
		summaries := tables.Summaries(kind, recipient.StoreID)

		section := models.StatementSection{Kind: kind}
		for _, summary := range summaries {
			group := models.GroupSection{Key: summary.GroupKey, Summary: summary}
			for _, record := range details {
				if record.GroupKey() == summary.GroupKey {
					group.Details = append(group.Details, record)
				}
			}
			section.Groups = append(section.Groups, group)

			section.Count += summary.Count
			section.Principal = section.Principal.Add(summary.Principal)
			section.Tax = section.Tax.Add(summary.Tax)

			statement.TotalCount += summary.Count
			statement.TotalAmount = statement.TotalAmount.Add(summary.Amount)
			statement.TotalCredited = statement.TotalCredited.Add(summary.Credited)
		}

		statement.Sections = append(statement.Sections, section)
		statement.Details = append(statement.Details, details...)

		if kind == models.KindAcquiring {
			// Acquiring settles on the tax-inclusive commission; there
			// is no separate tax column to combine.
			totalWithoutTax = totalWithoutTax.Add(sectionPrincipalTax(summaries))
		} else {
			totalWithoutTax = totalWithoutTax.Add(section.Principal)
			totalTax = totalTax.Add(section.Tax)
		}
	}

	sortDetails(statement.Details)

	statement.TotalWithoutTax = totalWithoutTax
	statement.TotalTax = models.Round2(totalTax)
	statement.FinalTotal = models.Round2(totalWithoutTax.Add(statement.TotalTax))

	return statement, true
}

func sectionPrincipalTax(summaries []models.KindSummary) decimal.Decimal {
	total := decimal.Zero
	for _, summary := range summaries {
		total = total.Add(summary.PrincipalTax)
	}
	return total
}
