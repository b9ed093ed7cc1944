// Package facts projects budget, encumbrance, and actual amounts into the
// dimensional fact space used by tag-filtered reporting.
package facts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

// Fact is one denormalized row keyed by (SourceRecordID, OrganizationID).
// Exactly one of the three net amounts is nonzero.
type Fact struct {
	SourceRecordID      string
	OrganizationID      string
	AccountID           int64
	TransactionDate     time.Time
	Tags                tags.TagVector
	BudgetNetAmount     decimal.Decimal
	ActualNetAmount     decimal.Decimal
	EncumberedNetAmount decimal.Decimal
}

// EntryInput feeds one posted BUDGET/ENCUMBRANCE/ACTUAL entry into the builder.
type EntryInput struct {
	SourceRecordID  string
	OrganizationID  string
	AccountID       int64
	NormalBalance   accounts.DebitCreditFlag
	Flag            accounts.DebitCreditFlag
	Amount          decimal.Decimal
	Tags            tags.TagVector
	FiscalType      string
	TransactionDate time.Time
	AutoPost        bool
}

// CommitmentInput feeds an open or partially fulfilled purchase commitment.
type CommitmentInput struct {
	SourceRecordID string
	OrganizationID string
	AccountID      int64
	Remaining      decimal.Decimal
	Tags           tags.TagVector
	CommitmentDate time.Time
}
