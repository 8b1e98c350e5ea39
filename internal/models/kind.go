// Package models defines the core domain types shared across the application.
package models

import "fmt"

// Kind identifies one of the fixed transactional dataset categories.
type Kind string

const (
	KindFee       Kind = "fee"
	KindBonus     Kind = "bonus"
	KindDiscount  Kind = "discount"
	KindRefund    Kind = "refund"
	KindAcquiring Kind = "acquiring"
)

// TransactionKinds lists every transactional kind in processing order.
var TransactionKinds = []Kind{KindFee, KindBonus, KindDiscount, KindRefund, KindAcquiring}

// DocumentKind identifies a statement document type produced for a recipient.
type DocumentKind string

const (
	// DocFee combines fee, bonus and discount data into one statement.
	DocFee DocumentKind = "fee-statement"
	// DocRefund covers refund data only.
	DocRefund DocumentKind = "refund-statement"
	// DocAcquiring covers acquiring data only.
	DocAcquiring DocumentKind = "acquiring-statement"
)

// DocumentKinds lists every statement document type in generation order.
var DocumentKinds = []DocumentKind{DocFee, DocRefund, DocAcquiring}

// ContributingKinds returns the transactional kinds that feed a document kind.
func (d DocumentKind) ContributingKinds() []Kind {
	switch d {
	case DocFee:
		return []Kind{KindFee, KindBonus, KindDiscount}
	case DocRefund:
		return []Kind{KindRefund}
	case DocAcquiring:
		return []Kind{KindAcquiring}
	}
	return nil
}

// PrimaryKind returns the kind whose presence decides whether a recipient
// gets a statement of this document kind at all.
func (d DocumentKind) PrimaryKind() Kind {
	return d.ContributingKinds()[0]
}

// Prefix returns the storage key prefix for documents of this kind.
func (d DocumentKind) Prefix() string {
	switch d {
	case DocFee:
		return "fee"
	case DocRefund:
		return "refund"
	case DocAcquiring:
		return "acquiring"
	}
	return string(d)
}

// WorkKind identifies one unit-of-work category tracked by the completion
// ledger: generation of one document kind, or delivery of the statement
// bundle. Delivery is recipient-scoped because one message carries every
// available document.
type WorkKind string

const WorkDelivery WorkKind = "delivery"

// GenerationWork returns the work kind for generating one document kind.
func GenerationWork(d DocumentKind) WorkKind {
	return WorkKind(fmt.Sprintf("%s/generation", d))
}
