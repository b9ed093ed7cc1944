// Package reports assembles the financial statements: trial balance, income
// statement, balance sheet, and cash flow. Builders are pure functions over
// aggregated account rows; the service layer resolves time windows and runs
// the queries.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// Subclass refines EXPENSE/INCOME accounts for the income statement waterfall.
const (
	SubclassCOGS             = "COGS"
	SubclassOperatingExpense = "OPERATING_EXPENSE"
	SubclassOtherExpense     = "OTHER_EXPENSE"
	SubclassTaxExpense       = "TAX_EXPENSE"
	SubclassOtherIncome      = "OTHER_INCOME"
)

// AccountBalance is one account's aggregated debits/credits over a window.
type AccountBalance struct {
	AccountID     int64
	Code          string
	Name          string
	Class         accounts.AccountClass
	Subclass      string
	NormalBalance accounts.DebitCreditFlag
	Debits        decimal.Decimal
	Credits       decimal.Decimal
}

// NetNormal returns the balance signed by the account's normal side: positive
// when the account carries its usual balance.
func (a AccountBalance) NetNormal() decimal.Decimal {
	if a.NormalBalance == accounts.Credit {
		return a.Credits.Sub(a.Debits)
	}
	return a.Debits.Sub(a.Credits)
}

// Window is a half-open reporting interval [From, Thru).
type Window struct {
	From time.Time
	Thru time.Time
}

// Contains reports whether the date falls inside the window.
func (w Window) Contains(date time.Time) bool {
	return !date.Before(w.From) && date.Before(w.Thru)
}
