// Package transactions holds the accounting transaction model, the posting
// validator, and the ledger poster.
package transactions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

// FiscalType identifies the ledger layer a transaction posts into.
type FiscalType string

const (
	FiscalActual      FiscalType = "ACTUAL"
	FiscalBudget      FiscalType = "BUDGET"
	FiscalEncumbrance FiscalType = "ENCUMBRANCE"
	FiscalReference   FiscalType = "REFERENCE"
)

// Transaction is a set of signed entries describing one business event.
// It is created as a draft and transitions to posted exactly once; after that
// it is never mutated, correction happens through a reversal transaction.
type Transaction struct {
	ID               uuid.UUID
	Type             string
	FiscalType       FiscalType
	OrganizationID   string
	TransactionDate  time.Time
	ScheduledPosting *time.Time
	IsPosted         bool
	AutoPost         bool
	PostedAmount     decimal.Decimal
	PostedTime       *time.Time
	SourceDocumentID *uuid.UUID
	ReversedID       *uuid.UUID
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Entries          []Entry
}

// Entry is one signed leg of a transaction.
type Entry struct {
	ID              uuid.UUID
	TransactionID   uuid.UUID
	SequenceID      int
	AccountID       int64
	OrganizationID  string
	Flag            accounts.DebitCreditFlag
	CurrencyUomID   string
	Amount          decimal.Decimal
	Tags            tags.TagVector
	OriginReference string
}

// SignedAmount returns the debit-positive, credit-negative amount.
func (e Entry) SignedAmount() decimal.Decimal {
	if e.Flag == accounts.Credit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// TagBalance is the diagnostic for a per-dimension imbalance: the first
// balance-required dimension whose grouping nets nonzero, with the absolute
// net of the first offending group.
type TagBalance struct {
	Dimension int
	Amount    decimal.Decimal
}
