package models

import "github.com/shopspring/decimal"

// GroupSection is one group within a statement section: the aggregated
// summary row plus its ordered detail rows.
type GroupSection struct {
	Key     string
	Summary KindSummary
	Details []TransactionRecord
}

// StatementSection holds one contributing kind's groups and subtotals.
type StatementSection struct {
	Kind   Kind
	Groups []GroupSection

	Count     int
	Principal decimal.Decimal
	Tax       decimal.Decimal
}

// Statement is the per-recipient, per-document-kind context assembled fresh
// each run from the aggregated tables. It is a read-only view: workers never
// mutate it.
type Statement struct {
	Recipient Recipient
	Document  DocumentKind
	Period    Period

	Sections []StatementSection

	// Details is the flat list of every contributing record, ordered by
	// occurrence timestamp then secondary key.
	Details []TransactionRecord

	// TotalWithoutTax is the sum of principal across all sections,
	// TotalTax the rounded sum of tax, FinalTotal their rounded sum.
	TotalWithoutTax decimal.Decimal
	TotalTax        decimal.Decimal
	FinalTotal      decimal.Decimal

	// Acquiring totals, zero for other document kinds.
	TotalCount    int
	TotalAmount   decimal.Decimal
	TotalCredited decimal.Decimal
}

// Section returns the section for a kind, if present.
func (s *Statement) Section(kind Kind) (StatementSection, bool) {
	for _, sec := range s.Sections {
		if sec.Kind == kind {
			return sec, true
		}
	}
	return StatementSection{}, false
}
