// Package history tracks posted debit/credit accumulators per account,
// organization, and fiscal period. Rows only ever increment; a posted amount
// is taken back solely by posting a reversal.
package history

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountHistory accumulates ACTUAL postings for one (account, organization, period).
type AccountHistory struct {
	AccountID      int64
	OrganizationID string
	PeriodID       int64
	PostedDebits   decimal.Decimal
	PostedCredits  decimal.Decimal
	UpdatedAt      time.Time
}

// OrganizationTotal is the all-time accumulator for one (account, organization).
type OrganizationTotal struct {
	AccountID      int64
	OrganizationID string
	PostedDebits   decimal.Decimal
	PostedCredits  decimal.Decimal
}
