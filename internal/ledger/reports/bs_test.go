package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// sweptLedger is balancedLedger after the year-end sweep: net income 45000
// sits in retained earnings and the income statement accounts are empty.
func sweptLedger() []AccountBalance {
	return []AccountBalance{
		balance(101, "1000", accounts.ClassAsset, "", accounts.Debit, "150000", "30000"),
		balance(102, "1100", accounts.ClassAsset, "", accounts.Debit, "20000", "5000"),
		balance(201, "2000", accounts.ClassLiability, "", accounts.Credit, "2000", "42000"),
		balance(301, "3000", accounts.ClassEquity, "", accounts.Credit, "0", "50000"),
		balance(302, "3100", accounts.ClassEquity, "", accounts.Credit, "0", "45000"),
	}
}

func TestBalanceSheetSections(t *testing.T) {
	bs := BuildBalanceSheet(sweptLedger())

	assert.True(t, bs.Assets.Total.Equal(dec("135000")))
	assert.True(t, bs.Liabilities.Total.Equal(dec("40000")))
	assert.True(t, bs.Equity.Total.Equal(dec("95000")))
	require.Len(t, bs.Assets.Rows, 2)
	require.Len(t, bs.Equity.Rows, 2)
	assert.Equal(t, "1000", bs.Assets.Rows[0].Code)
}

func TestBalanceSheetBalancedAfterSweep(t *testing.T) {
	bs := BuildBalanceSheet(sweptLedger())
	assert.True(t, bs.Balanced())
}

func TestBalanceSheetUnbalancedUnderPartialView(t *testing.T) {
	// Dropping a liability account models a partial tag filter where one leg
	// of a transaction falls outside the view.
	rows := sweptLedger()[:3]
	bs := BuildBalanceSheet(rows)
	assert.False(t, bs.Balanced())
}

func TestBalanceSheetIgnoresIncomeStatementAccounts(t *testing.T) {
	rows := append(sweptLedger(),
		balance(401, "4000", accounts.ClassRevenue, "", accounts.Credit, "0", "999"))
	bs := BuildBalanceSheet(rows)
	assert.True(t, bs.Balanced())
	assert.Len(t, bs.Assets.Rows, 2)
}

func TestBalanceSheetContraAsset(t *testing.T) {
	// Accumulated depreciation: credit balance on a debit-normal asset reduces
	// the section total.
	bs := BuildBalanceSheet([]AccountBalance{
		balance(101, "1000", accounts.ClassAsset, "", accounts.Debit, "100000", "0"),
		balance(150, "1500", accounts.ClassAsset, "", accounts.Debit, "0", "20000"),
	})
	assert.True(t, bs.Assets.Total.Equal(dec("80000")))
}
