package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// BalanceSheetRow is one account line, reported as a positive magnitude for
// accounts carrying their normal balance.
type BalanceSheetRow struct {
	AccountID int64
	Code      string
	Name      string
	Balance   decimal.Decimal
}

// BalanceSheetSection groups rows for one classification.
type BalanceSheetSection struct {
	Label string
	Rows  []BalanceSheetRow
	Total decimal.Decimal
}

// BalanceSheet reports asset, liability, and equity balances. Liabilities and
// equity are stored credit-negative and negated here for presentation, so
// Assets == Liabilities + Equity holds under an exhaustive tag filter. Under a
// partial filter the equation may legitimately fail because one transaction's
// legs can carry different tag combinations.
type BalanceSheet struct {
	Assets      BalanceSheetSection
	Liabilities BalanceSheetSection
	Equity      BalanceSheetSection
}

// BuildBalanceSheet aggregates balances into the three sections.
func BuildBalanceSheet(rows []AccountBalance) BalanceSheet {
	out := BalanceSheet{
		Assets:      BalanceSheetSection{Label: "Assets"},
		Liabilities: BalanceSheetSection{Label: "Liabilities"},
		Equity:      BalanceSheetSection{Label: "Equity"},
	}
	for _, acc := range rows {
		row := BalanceSheetRow{AccountID: acc.AccountID, Code: acc.Code, Name: acc.Name, Balance: acc.NetNormal()}
		switch acc.Class {
		case accounts.ClassAsset:
			out.Assets.Rows = append(out.Assets.Rows, row)
			out.Assets.Total = out.Assets.Total.Add(row.Balance)
		case accounts.ClassLiability:
			out.Liabilities.Rows = append(out.Liabilities.Rows, row)
			out.Liabilities.Total = out.Liabilities.Total.Add(row.Balance)
		case accounts.ClassEquity:
			out.Equity.Rows = append(out.Equity.Rows, row)
			out.Equity.Total = out.Equity.Total.Add(row.Balance)
		}
	}
	for _, section := range []*BalanceSheetSection{&out.Assets, &out.Liabilities, &out.Equity} {
		sort.Slice(section.Rows, func(i, j int) bool { return section.Rows[i].Code < section.Rows[j].Code })
	}
	return out
}

// Balanced reports whether assets equal liabilities plus equity.
func (b BalanceSheet) Balanced() bool {
	return b.Assets.Total.Equal(b.Liabilities.Total.Add(b.Equity.Total))
}
