package reports

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// CashMovement is one change in a designated cash account over the window,
// decomposed by the nature of the offsetting account on the same transaction.
type CashMovement struct {
	OffsetClass    accounts.AccountClass
	OffsetSubclass string
	Amount         decimal.Decimal
}

// CashFlowStatement satisfies BeginningCash + NetCashFlow == EndingCash.
type CashFlowStatement struct {
	BeginningCash decimal.Decimal
	Operating     decimal.Decimal
	Investing     decimal.Decimal
	Financing     decimal.Decimal
	NetCashFlow   decimal.Decimal
	EndingCash    decimal.Decimal
}

// BuildCashFlowStatement buckets movements by offsetting-account nature:
// income-statement offsets are operating, non-cash asset offsets investing,
// liability and equity offsets financing.
func BuildCashFlowStatement(beginning decimal.Decimal, movements []CashMovement) CashFlowStatement {
	out := CashFlowStatement{BeginningCash: beginning}
	for _, m := range movements {
		switch m.OffsetClass {
		case accounts.ClassRevenue, accounts.ClassExpense, accounts.ClassIncome:
			out.Operating = out.Operating.Add(m.Amount)
		case accounts.ClassAsset:
			out.Investing = out.Investing.Add(m.Amount)
		case accounts.ClassLiability, accounts.ClassEquity:
			out.Financing = out.Financing.Add(m.Amount)
		default:
			out.Operating = out.Operating.Add(m.Amount)
		}
	}
	out.NetCashFlow = out.Operating.Add(out.Investing).Add(out.Financing)
	out.EndingCash = out.BeginningCash.Add(out.NetCashFlow)
	return out
}
