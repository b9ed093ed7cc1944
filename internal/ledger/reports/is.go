package reports

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// IncomeStatement is the fixed waterfall: gross profit, operating income,
// pretax income, net income.
type IncomeStatement struct {
	Revenue          decimal.Decimal
	COGS             decimal.Decimal
	GrossProfit      decimal.Decimal
	OperatingExpense decimal.Decimal
	OperatingIncome  decimal.Decimal
	OtherIncome      decimal.Decimal
	OtherExpense     decimal.Decimal
	PretaxIncome     decimal.Decimal
	TaxExpense       decimal.Decimal
	NetIncome        decimal.Decimal
}

// BuildIncomeStatement classifies revenue and expense accounts into the
// waterfall. Expense accounts without a subclass count as operating expense;
// INCOME-class accounts without a subclass count as other income.
func BuildIncomeStatement(rows []AccountBalance) IncomeStatement {
	out := IncomeStatement{}
	for _, acc := range rows {
		amount := acc.NetNormal()
		switch acc.Class {
		case accounts.ClassRevenue:
			out.Revenue = out.Revenue.Add(amount)
		case accounts.ClassExpense:
			switch acc.Subclass {
			case SubclassCOGS:
				out.COGS = out.COGS.Add(amount)
			case SubclassOtherExpense:
				out.OtherExpense = out.OtherExpense.Add(amount)
			case SubclassTaxExpense:
				out.TaxExpense = out.TaxExpense.Add(amount)
			default:
				out.OperatingExpense = out.OperatingExpense.Add(amount)
			}
		case accounts.ClassIncome:
			out.OtherIncome = out.OtherIncome.Add(amount)
		}
	}
	out.GrossProfit = out.Revenue.Sub(out.COGS)
	out.OperatingIncome = out.GrossProfit.Sub(out.OperatingExpense)
	out.PretaxIncome = out.OperatingIncome.Add(out.OtherIncome).Sub(out.OtherExpense)
	out.NetIncome = out.PretaxIncome.Sub(out.TaxExpense)
	return out
}
