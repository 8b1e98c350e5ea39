package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-statements/internal/logging"
	"merchant-statements/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func feeRecord(storeID, entity, txID string, day int, principal, tax string) models.TransactionRecord {
	return models.TransactionRecord{
		StoreID:      storeID,
		Kind:         models.KindFee,
		Label:        entity,
		SecondaryKey: txID,
		OccurredAt:   time.Date(2025, 7, day, 0, 0, 0, 0, time.UTC),
		Amount:       dec(principal).Mul(decimal.NewFromInt(10)),
		Principal:    dec(principal),
		Tax:          dec(tax),
	}
}

func TestBuild_GroupsByRecipientAndKey(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	tables := engine.Build(map[models.Kind][]models.TransactionRecord{
		models.KindFee: {
			feeRecord("001", "entityA", "T-2", 2, "5.00", "0.90"),
			feeRecord("001", "entityA", "T-1", 1, "10.00", "1.80"),
			feeRecord("002", "entityB", "T-3", 1, "20.00", "3.60"),
		},
	})

	summaries := tables.Summaries(models.KindFee, "001")
	require.Len(t, summaries, 1)
	assert.Equal(t, "entityA", summaries[0].GroupKey)
	assert.Equal(t, 2, summaries[0].Count)
	assert.True(t, summaries[0].Principal.Equal(dec("15.00")))
	assert.True(t, summaries[0].Tax.Equal(dec("2.70")))

	assert.Equal(t, []string{"001", "002"}, tables.RecipientsWithData(models.KindFee))
}

func TestBuild_DetailOrdering(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	// Same timestamp rows order by secondary key; otherwise by timestamp.
	tables := engine.Build(map[models.Kind][]models.TransactionRecord{
		models.KindFee: {
			feeRecord("001", "entityA", "T-9", 2, "1", "0"),
			feeRecord("001", "entityA", "T-2", 1, "1", "0"),
			feeRecord("001", "entityA", "T-1", 1, "1", "0"),
		},
	})

	details := tables.Details(models.KindFee, "001")
	require.Len(t, details, 3)
	assert.Equal(t, "T-1", details[0].SecondaryKey)
	assert.Equal(t, "T-2", details[1].SecondaryKey)
	assert.Equal(t, "T-9", details[2].SecondaryKey)

	for i := 1; i < len(details); i++ {
		prev, curr := details[i-1], details[i]
		ordered := prev.OccurredAt.Before(curr.OccurredAt) ||
			(prev.OccurredAt.Equal(curr.OccurredAt) && prev.SecondaryKey <= curr.SecondaryKey)
		assert.True(t, ordered)
	}
}

// Mirrors the reference settlement scenario: two recipients, one fee group
// each, totals combined with a single rounding step.
func TestAssembleStatement_SettlementTotals(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	tables := engine.Build(map[models.Kind][]models.TransactionRecord{
		models.KindFee: {
			feeRecord("001", "entityA", "T-1", 1, "10.00", "1.80"),
			feeRecord("001", "entityA", "T-2", 2, "5.00", "0.90"),
			feeRecord("002", "entityB", "T-3", 1, "20.00", "3.60"),
		},
	})

	s1, ok := engine.AssembleStatement(tables, models.Recipient{StoreID: "001"}, models.DocFee, models.Period{Year: 2025, Month: 7})
	require.True(t, ok)
	require.Len(t, s1.Sections, 1)
	require.Len(t, s1.Sections[0].Groups, 1)
	assert.Equal(t, 2, s1.Sections[0].Groups[0].Summary.Count)
	assert.True(t, s1.TotalWithoutTax.Equal(dec("15.00")), "got %s", s1.TotalWithoutTax)
	assert.True(t, s1.TotalTax.Equal(dec("2.70")), "got %s", s1.TotalTax)
	assert.True(t, s1.FinalTotal.Equal(dec("17.70")), "got %s", s1.FinalTotal)

	s2, ok := engine.AssembleStatement(tables, models.Recipient{StoreID: "002"}, models.DocFee, models.Period{Year: 2025, Month: 7})
	require.True(t, ok)
	assert.True(t, s2.FinalTotal.Equal(dec("23.60")), "got %s", s2.FinalTotal)
}

func TestAssembleStatement_RoundsOnceAtCombination(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	// Three thirds of a cent: per-row rounding would yield 0.00 or 0.03
	// depending on order; combining first then rounding yields 0.01.
	records := []models.TransactionRecord{
		{StoreID: "001", Kind: models.KindFee, Label: "e", SecondaryKey: "1", Principal: dec("1"), Tax: dec("0.003")},
		{StoreID: "001", Kind: models.KindFee, Label: "e", SecondaryKey: "2", Principal: dec("1"), Tax: dec("0.003")},
		{StoreID: "001", Kind: models.KindFee, Label: "e", SecondaryKey: "3", Principal: dec("1"), Tax: dec("0.003")},
	}
	tables := engine.Build(map[models.Kind][]models.TransactionRecord{models.KindFee: records})

	s, ok := engine.AssembleStatement(tables, models.Recipient{StoreID: "001"}, models.DocFee, models.Period{Year: 2025, Month: 7})
	require.True(t, ok)

	sumTax := dec("0.009")
	expected := models.Round2(dec("3").Add(models.Round2(sumTax)))
	assert.True(t, s.TotalTax.Equal(models.Round2(sumTax)))
	assert.True(t, s.FinalTotal.Equal(expected), "got %s", s.FinalTotal)
}

func TestAssembleStatement_CombinesContributingKinds(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	tables := engine.Build(map[models.Kind][]models.TransactionRecord{
		models.KindFee: {
			feeRecord("001", "entityA", "T-1", 1, "10.00", "1.80"),
		},
		models.KindBonus: {
			{StoreID: "001", Kind: models.KindBonus, Label: "Referral", Principal: dec("4.00"), Tax: dec("0.72")},
		},
		models.KindDiscount: {
			{StoreID: "001", Kind: models.KindDiscount, Label: "Promo", Principal: dec("-2.00"), Tax: dec("-0.36")},
		},
	})

	s, ok := engine.AssembleStatement(tables, models.Recipient{StoreID: "001"}, models.DocFee, models.Period{Year: 2025, Month: 7})
	require.True(t, ok)
	require.Len(t, s.Sections, 3)

	assert.True(t, s.TotalWithoutTax.Equal(dec("12.00")), "got %s", s.TotalWithoutTax)
	assert.True(t, s.TotalTax.Equal(dec("2.16")), "got %s", s.TotalTax)
	assert.True(t, s.FinalTotal.Equal(dec("14.16")), "got %s", s.FinalTotal)
}

func TestAssembleStatement_NoPrimaryDataMeansNoStatement(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	// Recipient has a bonus but no fee rows: no fee statement is produced
	// even though a contributing kind has data.
	tables := engine.Build(map[models.Kind][]models.TransactionRecord{
		models.KindBonus: {
			{StoreID: "001", Kind: models.KindBonus, Label: "Referral", Principal: dec("4.00")},
		},
	})

	_, ok := engine.AssembleStatement(tables, models.Recipient{StoreID: "001"}, models.DocFee, models.Period{Year: 2025, Month: 7})
	assert.False(t, ok)
	assert.Empty(t, tables.RecipientsWithData(models.KindFee))
}

func TestAssembleStatement_AcquiringGroupsByDate(t *testing.T) {
	engine := NewEngine(&logging.MockLogger{})

	day := func(d int) time.Time { return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC) }
	tables := engine.Build(map[models.Kind][]models.TransactionRecord{
		models.KindAcquiring: {
			{StoreID: "001", Kind: models.KindAcquiring, SecondaryKey: "E-1", OccurredAt: day(1), Amount: dec("100"), PrincipalTax: dec("3.50"), Credited: dec("96.50")},
			{StoreID: "001", Kind: models.KindAcquiring, SecondaryKey: "E-2", OccurredAt: day(1), Amount: dec("50"), PrincipalTax: dec("1.75"), Credited: dec("48.25")},
			{StoreID: "001", Kind: models.KindAcquiring, SecondaryKey: "E-3", OccurredAt: day(2), Amount: dec("10"), PrincipalTax: dec("0.35"), Credited: dec("9.65")},
		},
	})

	s, ok := engine.AssembleStatement(tables, models.Recipient{StoreID: "001"}, models.DocAcquiring, models.Period{Year: 2025, Month: 7})
	require.True(t, ok)
	require.Len(t, s.Sections, 1)
	require.Len(t, s.Sections[0].Groups, 2)

	assert.Equal(t, "2025-07-01", s.Sections[0].Groups[0].Key)
	assert.Equal(t, 2, s.Sections[0].Groups[0].Summary.Count)
	assert.Equal(t, 3, s.TotalCount)
	assert.True(t, s.TotalAmount.Equal(dec("160")))
	assert.True(t, s.TotalCredited.Equal(dec("154.40")))
	assert.True(t, s.FinalTotal.Equal(dec("5.60")), "settles on tax-inclusive commission, got %s", s.FinalTotal)
}
