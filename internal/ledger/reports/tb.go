package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// TrialBalanceRow is one account line.
type TrialBalanceRow struct {
	AccountID int64
	Code      string
	Name      string
	Class     accounts.AccountClass
	Debits    decimal.Decimal
	Credits   decimal.Decimal
	Balance   decimal.Decimal
}

// TrialBalance proves the books: TotalDebits equals TotalCredits and
// TotalBalances nets to zero for any balanced ledger.
type TrialBalance struct {
	Asset     decimal.Decimal
	Liability decimal.Decimal
	Equity    decimal.Decimal
	Revenue   decimal.Decimal
	Expense   decimal.Decimal
	Income    decimal.Decimal
	Other     decimal.Decimal

	Rows          []TrialBalanceRow
	TotalDebits   decimal.Decimal
	TotalCredits  decimal.Decimal
	TotalBalances decimal.Decimal
}

// BuildTrialBalance aggregates normal-balance-signed sums per class.
// TotalBalances sums debit-positive balances over every account, so a
// balanced ledger always nets to zero.
func BuildTrialBalance(rows []AccountBalance) TrialBalance {
	out := TrialBalance{}
	for _, acc := range rows {
		signed := acc.Debits.Sub(acc.Credits)
		row := TrialBalanceRow{
			AccountID: acc.AccountID,
			Code:      acc.Code,
			Name:      acc.Name,
			Class:     acc.Class,
			Debits:    acc.Debits,
			Credits:   acc.Credits,
			Balance:   acc.NetNormal(),
		}
		out.Rows = append(out.Rows, row)
		out.TotalDebits = out.TotalDebits.Add(acc.Debits)
		out.TotalCredits = out.TotalCredits.Add(acc.Credits)
		out.TotalBalances = out.TotalBalances.Add(signed)
		switch acc.Class {
		case accounts.ClassAsset:
			out.Asset = out.Asset.Add(row.Balance)
		case accounts.ClassLiability:
			out.Liability = out.Liability.Add(row.Balance)
		case accounts.ClassEquity:
			out.Equity = out.Equity.Add(row.Balance)
		case accounts.ClassRevenue:
			out.Revenue = out.Revenue.Add(row.Balance)
		case accounts.ClassExpense:
			out.Expense = out.Expense.Add(row.Balance)
		case accounts.ClassIncome:
			out.Income = out.Income.Add(row.Balance)
		default:
			out.Other = out.Other.Add(row.Balance)
		}
	}
	sort.Slice(out.Rows, func(i, j int) bool { return out.Rows[i].Code < out.Rows[j].Code })
	return out
}
