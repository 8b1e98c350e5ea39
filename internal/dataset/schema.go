// Package dataset loads the raw per-kind source tables and normalizes them
// into the shared record vocabulary.
package dataset

import (
	"fmt"

	"merchant-statements/internal/models"
)

// Canonical field names shared by every normalized dataset.
const (
	FieldStoreID      = "store_id"
	FieldLabel        = "label"
	FieldDescription  = "operation_description"
	FieldPOS          = "pos"
	FieldSecondaryKey = "secondary_key"
	FieldDate         = "transaction_date"
	FieldHour         = "transaction_hour"
	FieldAmount       = "transaction_amount"
	FieldPrincipal    = "principal_amount"
	FieldPrincipalTax = "principal_amount_tax"
	FieldTax          = "tax"
	FieldCredited     = "credited_amount"
)

// Schema declares how one kind's historical source columns map onto the
// canonical vocabulary. Each canonical field lists accepted source column
// names in priority order; the first one present in the header wins.
// Resolution happens once per table, never per row.
type Schema struct {
	Kind models.Kind

	// Aliases maps canonical field name to accepted source columns.
	Aliases map[string][]string

	// Required lists the canonical fields aggregation cannot run without.
	// Monetary fields left out of Required are materialized as zero when
	// the source table lacks them.
	Required []string
}

// SchemaError reports a column required for aggregation that is absent after
// renaming. Fatal: the run aborts before any fan-out.
type SchemaError struct {
	Kind   models.Kind
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset %s: required column %q missing after renaming", e.Kind, e.Column)
}

// schemas holds the per-kind source schema declarations. Alias lists carry
// every historical spelling observed in the source extracts.
var schemas = map[models.Kind]Schema{
	models.KindFee: {
		Kind: models.KindFee,
		Aliases: map[string][]string{
			FieldStoreID:      {"store_id"},
			FieldLabel:        {"entity_description"},
			FieldDescription:  {"operation_description"},
			FieldPOS:          {"pos"},
			FieldSecondaryKey: {"transaction_id"},
			FieldDate:         {"transaction_date"},
			FieldAmount:       {"transaction_amount"},
			FieldPrincipal:    {"comission_amount"},
			FieldPrincipalTax: {"comission_amount_igv"},
			FieldTax:          {"igv"},
		},
		Required: []string{FieldStoreID, FieldLabel, FieldAmount, FieldPrincipal, FieldPrincipalTax},
	},
	models.KindBonus: {
		Kind: models.KindBonus,
		Aliases: map[string][]string{
			FieldStoreID:   {"store_id"},
			FieldLabel:     {"bonus_type", "description"},
			FieldPrincipal: {"monto", "amount"},
			FieldTax:       {"igv"},
		},
		Required: []string{FieldStoreID, FieldLabel, FieldPrincipal},
	},
	models.KindDiscount: {
		Kind: models.KindDiscount,
		Aliases: map[string][]string{
			FieldStoreID:   {"store_id"},
			FieldLabel:     {"discount_type", "discount_item"},
			FieldPrincipal: {"monto", "total_discount_amount"},
			FieldTax:       {"igv"},
		},
		Required: []string{FieldStoreID, FieldLabel, FieldPrincipal},
	},
	models.KindRefund: {
		Kind: models.KindRefund,
		Aliases: map[string][]string{
			FieldStoreID:      {"store_id"},
			FieldLabel:        {"company_description"},
			FieldDescription:  {"operation_description"},
			FieldPOS:          {"pos"},
			FieldSecondaryKey: {"transaction_id"},
			FieldDate:         {"transaction_date"},
			FieldAmount:       {"transaction_amount"},
			FieldPrincipal:    {"comission_amount", "comission"},
			FieldPrincipalTax: {"comission_amount_igv"},
			FieldTax:          {"igv"},
		},
		Required: []string{FieldStoreID, FieldLabel, FieldAmount, FieldPrincipal},
	},
	models.KindAcquiring: {
		Kind: models.KindAcquiring,
		Aliases: map[string][]string{
			FieldStoreID:      {"store_id"},
			FieldPOS:          {"pos"},
			FieldSecondaryKey: {"entity_transaction_id"},
			FieldDate:         {"transaction_date"},
			FieldHour:         {"transaction_hour"},
			FieldAmount:       {"transaction_amount"},
			FieldPrincipalTax: {"comission_amount_igv"},
			FieldCredited:     {"importe_abonado", "credited_amount"},
		},
		Required: []string{FieldStoreID, FieldDate, FieldAmount, FieldPrincipalTax, FieldCredited},
	},
}

// SchemaFor returns the schema declared for a transactional kind.
func SchemaFor(kind models.Kind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// Resolve maps each canonical field to the actual source column present in
// the header. Returns a SchemaError for the first required field with no
// present alias; optional fields simply stay unmapped.
func (s Schema) Resolve(header map[string]bool) (map[string]string, error) {
	resolved := make(map[string]string, len(s.Aliases))
	for canonical, aliases := range s.Aliases {
		for _, alias := range aliases {
			if header[alias] {
				resolved[canonical] = alias
				break
			}
		}
	}
	for _, required := range s.Required {
		if _, ok := resolved[required]; !ok {
			return nil, &SchemaError{Kind: s.Kind, Column: required}
		}
	}
	return resolved, nil
}
