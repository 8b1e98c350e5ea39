package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one normalized row of a transactional dataset. The
// normalizer maps every kind's source schema onto this shape once; nothing
// downstream branches on column presence.
type TransactionRecord struct {
	StoreID string
	Kind    Kind

	// Label is the counterparty entity for fee/refund rows and the
	// bonus/discount category for bonus/discount rows.
	Label string

	// Description is the human-readable operation description.
	Description string

	// POS is the terminal identifier, kept as an opaque string.
	POS string

	// SecondaryKey orders rows within one occurrence timestamp: the
	// transaction id, or the entity transaction id for acquiring rows.
	SecondaryKey string

	// OccurredAt is the transaction date. OccurredHour carries the
	// time-of-day label for acquiring detail rows.
	OccurredAt   time.Time
	OccurredHour string

	// Amount is the underlying operation amount (transaction_amount).
	Amount decimal.Decimal

	// Principal is the settled component: the commission for fee/refund
	// rows, the bonus/discount amount for those kinds.
	Principal decimal.Decimal

	// PrincipalTax is the tax-inclusive commission (comission_amount_igv).
	PrincipalTax decimal.Decimal

	// Tax is the standalone tax column, zero when the source lacks it.
	Tax decimal.Decimal

	// Credited is the amount credited to the merchant (acquiring only).
	Credited decimal.Decimal
}

// GroupKey returns the secondary aggregation dimension for the record:
// counterparty entity or category label, except acquiring which groups by
// calendar date.
func (t TransactionRecord) GroupKey() string {
	if t.Kind == KindAcquiring {
		return t.OccurredAt.Format("2006-01-02")
	}
	return t.Label
}

// KindSummary is one aggregated row per (recipient, kind, group key).
type KindSummary struct {
	StoreID  string
	Kind     Kind
	GroupKey string

	Count        int
	Amount       decimal.Decimal
	Principal    decimal.Decimal
	PrincipalTax decimal.Decimal
	Tax          decimal.Decimal
	Credited     decimal.Decimal
}

// Round2 rounds a decimal to 2 places. Applied exactly once per statement,
// at total combination time, never per row.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
