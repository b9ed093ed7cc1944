package transactions

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

// CanPost validates the transaction against the posting preconditions: not
// posted before, not scheduled in the future, globally balanced per currency,
// and balanced along every balance-required tag dimension. All checks run
// before any mutation.
func CanPost(tx Transaction, cfg tags.DimensionConfig, now time.Time) error {
	if tx.IsPosted {
		return shared.ErrAlreadyPosted
	}
	if tx.ScheduledPosting != nil && tx.ScheduledPosting.After(now) {
		return fmt.Errorf("%w: scheduled %s", shared.ErrScheduledInFuture, tx.ScheduledPosting.Format(time.RFC3339))
	}
	byCurrency := make(map[string]decimal.Decimal)
	currencies := make([]string, 0, 1)
	for _, entry := range tx.Entries {
		if _, ok := byCurrency[entry.CurrencyUomID]; !ok {
			currencies = append(currencies, entry.CurrencyUomID)
		}
		byCurrency[entry.CurrencyUomID] = byCurrency[entry.CurrencyUomID].Add(entry.SignedAmount())
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		if !byCurrency[currency].IsZero() {
			return fmt.Errorf("%w: %s nets %s", shared.ErrUnbalanced, currency, byCurrency[currency].String())
		}
	}
	if diag := AccountingTagsBalance(tx, cfg); diag != nil {
		return &shared.PostingError{
			Err:       shared.ErrTagDimensionUnbalanced,
			Dimension: diag.Dimension,
			Amount:    diag.Amount.String(),
		}
	}
	return nil
}

// AccountingTagsBalance checks every balance-required dimension. Entries group
// by that dimension's exact value; an untagged entry forms its own "no tag"
// group. Each group's net signed sum must be zero. The first dimension and
// group found out of balance is returned as the diagnostic, nil when balanced.
func AccountingTagsBalance(tx Transaction, cfg tags.DimensionConfig) *TagBalance {
	for _, dim := range cfg.BalanceRequired() {
		nets := make(map[string]decimal.Decimal)
		order := make([]string, 0, 4)
		for _, entry := range tx.Entries {
			value := entry.Tags.Value(dim.Index)
			if _, ok := nets[value]; !ok {
				order = append(order, value)
			}
			nets[value] = nets[value].Add(entry.SignedAmount())
		}
		for _, value := range order {
			if !nets[value].IsZero() {
				return &TagBalance{Dimension: dim.Index, Amount: nets[value].Abs()}
			}
		}
	}
	return nil
}

// postedAmount is the total of the debit legs, recorded on the transaction at
// posting time.
func postedAmount(tx Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range tx.Entries {
		if entry.SignedAmount().IsPositive() {
			total = total.Add(entry.Amount)
		}
	}
	return total
}
