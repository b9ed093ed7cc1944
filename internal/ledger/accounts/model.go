package accounts

import "time"

// AccountClass enumerates GL account classifications.
type AccountClass string

const (
	ClassAsset     AccountClass = "ASSET"
	ClassLiability AccountClass = "LIABILITY"
	ClassEquity    AccountClass = "EQUITY"
	ClassRevenue   AccountClass = "REVENUE"
	ClassExpense   AccountClass = "EXPENSE"
	ClassIncome    AccountClass = "INCOME"
	ClassOther     AccountClass = "OTHER"
)

// IsIncomeStatement reports whether balances of this class are swept to equity
// at fiscal year end.
func (c AccountClass) IsIncomeStatement() bool {
	return c == ClassRevenue || c == ClassExpense || c == ClassIncome
}

// DebitCreditFlag marks the side of an entry or an account's normal balance.
type DebitCreditFlag string

const (
	Debit  DebitCreditFlag = "D"
	Credit DebitCreditFlag = "C"
)

// Account models a chart of accounts node.
type Account struct {
	ID              int64
	Code            string
	Name            string
	Class           AccountClass
	NormalBalance   DebitCreditFlag
	ParentAccountID *int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrganizationAccount enables an account for an organization.
type OrganizationAccount struct {
	AccountID      int64
	OrganizationID string
	FromDate       time.Time
	ThruDate       *time.Time
}
