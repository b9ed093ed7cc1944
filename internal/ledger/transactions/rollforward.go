package transactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// BuildRollforward constructs the fiscal-year close transaction: one entry
// zeroing each revenue/expense/income account's year balance, offset by a
// single equity entry carrying the net income. The result is an ordinary
// draft; the caller posts it through Post like any other transaction.
func (s *Service) BuildRollforward(ctx context.Context, organizationID string, fiscalYearPeriodID int64, equityAccountID int64, currency string) (Transaction, error) {
	var totals []SweepTotal
	err := s.repo.WithTx(ctx, func(ctx context.Context, txr TxRepository) error {
		var e error
		totals, e = txr.IncomeStatementTotals(ctx, organizationID, fiscalYearPeriodID)
		return e
	})
	if err != nil {
		return Transaction{}, err
	}

	rollforward := Transaction{
		ID:              uuid.New(),
		Type:            "PERIOD_CLOSING",
		FiscalType:      FiscalActual,
		OrganizationID:  organizationID,
		TransactionDate: s.now(),
		AutoPost:        true,
		Description:     "Fiscal year income sweep to equity",
	}
	netIncome := decimal.Zero
	for _, t := range totals {
		net := t.PostedDebits.Sub(t.PostedCredits)
		if net.IsZero() {
			continue
		}
		entry := Entry{
			AccountID:      t.AccountID,
			OrganizationID: organizationID,
			CurrencyUomID:  currency,
			Amount:         net.Abs(),
		}
		if net.IsPositive() {
			entry.Flag = accounts.Credit
		} else {
			entry.Flag = accounts.Debit
		}
		rollforward.Entries = append(rollforward.Entries, entry)
		netIncome = netIncome.Add(t.PostedCredits.Sub(t.PostedDebits))
	}
	if len(rollforward.Entries) == 0 {
		return Transaction{}, nil
	}
	offset := Entry{
		AccountID:      equityAccountID,
		OrganizationID: organizationID,
		CurrencyUomID:  currency,
		Amount:         netIncome.Abs(),
	}
	if netIncome.IsPositive() || netIncome.IsZero() {
		offset.Flag = accounts.Credit
	} else {
		offset.Flag = accounts.Debit
	}
	if !netIncome.IsZero() {
		rollforward.Entries = append(rollforward.Entries, offset)
	}
	return s.CreateDraft(ctx, rollforward)
}
