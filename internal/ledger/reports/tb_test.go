package reports

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func balance(id int64, code string, class accounts.AccountClass, subclass string, normal accounts.DebitCreditFlag, debits, credits string) AccountBalance {
	return AccountBalance{
		AccountID:     id,
		Code:          code,
		Name:          code,
		Class:         class,
		Subclass:      subclass,
		NormalBalance: normal,
		Debits:        dec(debits),
		Credits:       dec(credits),
	}
}

// balancedLedger is a pre-close year: debits equal credits across accounts,
// net income 45000 not yet swept to equity.
func balancedLedger() []AccountBalance {
	return []AccountBalance{
		balance(101, "1000", accounts.ClassAsset, "", accounts.Debit, "150000", "30000"),
		balance(102, "1100", accounts.ClassAsset, "", accounts.Debit, "20000", "5000"),
		balance(201, "2000", accounts.ClassLiability, "", accounts.Credit, "2000", "42000"),
		balance(301, "3000", accounts.ClassEquity, "", accounts.Credit, "0", "50000"),
		balance(401, "4000", accounts.ClassRevenue, "", accounts.Credit, "0", "120000"),
		balance(501, "5000", accounts.ClassExpense, SubclassCOGS, accounts.Debit, "45000", "0"),
		balance(601, "6000", accounts.ClassExpense, "", accounts.Debit, "25000", "0"),
		balance(701, "7000", accounts.ClassIncome, "", accounts.Credit, "0", "3000"),
		balance(801, "8000", accounts.ClassExpense, SubclassOtherExpense, accounts.Debit, "2000", "0"),
		balance(901, "9000", accounts.ClassExpense, SubclassTaxExpense, accounts.Debit, "6000", "0"),
	}
}

func TestTrialBalanceProvesBooks(t *testing.T) {
	tb := BuildTrialBalance(balancedLedger())

	assert.True(t, tb.TotalDebits.Equal(dec("250000")), "debits %s", tb.TotalDebits)
	assert.True(t, tb.TotalCredits.Equal(tb.TotalDebits))
	assert.True(t, tb.TotalBalances.IsZero(), "balances %s", tb.TotalBalances)
}

func TestTrialBalanceClassTotals(t *testing.T) {
	tb := BuildTrialBalance(balancedLedger())

	assert.True(t, tb.Asset.Equal(dec("135000")))
	assert.True(t, tb.Liability.Equal(dec("40000")))
	assert.True(t, tb.Equity.Equal(dec("50000")))
	assert.True(t, tb.Revenue.Equal(dec("120000")))
	assert.True(t, tb.Expense.Equal(dec("78000")))
	assert.True(t, tb.Income.Equal(dec("3000")))
}

func TestTrialBalanceRowsSortedByCode(t *testing.T) {
	rows := balancedLedger()
	// Reverse order in, sorted order out.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	tb := BuildTrialBalance(rows)
	require.Len(t, tb.Rows, 10)
	for i := 1; i < len(tb.Rows); i++ {
		assert.LessOrEqual(t, tb.Rows[i-1].Code, tb.Rows[i].Code)
	}
}

func TestTrialBalanceRowBalanceIsNormalSigned(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		balance(201, "2000", accounts.ClassLiability, "", accounts.Credit, "2000", "42000"),
	})
	require.Len(t, tb.Rows, 1)
	// Credit-normal account reports a positive balance when in credit.
	assert.True(t, tb.Rows[0].Balance.Equal(dec("40000")))
}

func TestTrialBalanceEmpty(t *testing.T) {
	tb := BuildTrialBalance(nil)
	assert.True(t, tb.TotalDebits.IsZero())
	assert.True(t, tb.TotalBalances.IsZero())
	assert.Empty(t, tb.Rows)
}
