package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

func TestIncomeStatementWaterfall(t *testing.T) {
	is := BuildIncomeStatement(balancedLedger())

	assert.True(t, is.Revenue.Equal(dec("120000")))
	assert.True(t, is.COGS.Equal(dec("45000")))
	assert.True(t, is.GrossProfit.Equal(dec("75000")))
	assert.True(t, is.OperatingExpense.Equal(dec("25000")))
	assert.True(t, is.OperatingIncome.Equal(dec("50000")))
	assert.True(t, is.OtherIncome.Equal(dec("3000")))
	assert.True(t, is.OtherExpense.Equal(dec("2000")))
	assert.True(t, is.PretaxIncome.Equal(dec("51000")))
	assert.True(t, is.TaxExpense.Equal(dec("6000")))
	assert.True(t, is.NetIncome.Equal(dec("45000")))
}

func TestIncomeStatementUnsubclassedExpenseIsOperating(t *testing.T) {
	is := BuildIncomeStatement([]AccountBalance{
		balance(601, "6000", accounts.ClassExpense, "", accounts.Debit, "1000", "0"),
		balance(602, "6100", accounts.ClassExpense, SubclassOperatingExpense, accounts.Debit, "500", "0"),
	})
	assert.True(t, is.OperatingExpense.Equal(dec("1500")))
	assert.True(t, is.OtherExpense.IsZero())
}

func TestIncomeStatementIncomeClassIsOtherIncome(t *testing.T) {
	is := BuildIncomeStatement([]AccountBalance{
		balance(701, "7000", accounts.ClassIncome, "", accounts.Credit, "0", "250"),
	})
	assert.True(t, is.Revenue.IsZero())
	assert.True(t, is.OtherIncome.Equal(dec("250")))
	assert.True(t, is.NetIncome.Equal(dec("250")))
}

func TestIncomeStatementIgnoresBalanceSheetAccounts(t *testing.T) {
	is := BuildIncomeStatement([]AccountBalance{
		balance(101, "1000", accounts.ClassAsset, "", accounts.Debit, "5000", "0"),
		balance(201, "2000", accounts.ClassLiability, "", accounts.Credit, "0", "5000"),
	})
	assert.True(t, is.Revenue.IsZero())
	assert.True(t, is.NetIncome.IsZero())
}

func TestIncomeStatementContraRevenue(t *testing.T) {
	// Sales returns post as debits against the credit-normal revenue account.
	is := BuildIncomeStatement([]AccountBalance{
		balance(401, "4000", accounts.ClassRevenue, "", accounts.Credit, "8000", "120000"),
	})
	assert.True(t, is.Revenue.Equal(dec("112000")))
}
