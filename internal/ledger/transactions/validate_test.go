package transactions

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func entry(account int64, flag accounts.DebitCreditFlag, amount string, tagValues ...string) Entry {
	return Entry{
		AccountID:     account,
		Flag:          flag,
		CurrencyUomID: "USD",
		Amount:        dec(amount),
		Tags:          tags.TagVector(tagValues),
	}
}

func divisionConfig() tags.DimensionConfig {
	return tags.DimensionConfig{
		OrganizationID: "ACME",
		Dimensions: []tags.Dimension{
			{Index: 1, Name: "Division", BalanceRequired: true},
			{Index: 2, Name: "Department", BalanceRequired: false},
		},
	}
}

func TestCanPostRejectsAlreadyPosted(t *testing.T) {
	tx := Transaction{IsPosted: true}
	err := CanPost(tx, tags.DimensionConfig{}, time.Now())
	assert.ErrorIs(t, err, shared.ErrAlreadyPosted)
}

func TestCanPostRejectsFutureSchedule(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	tx := Transaction{
		ScheduledPosting: &future,
		Entries: []Entry{
			entry(101, accounts.Debit, "100"),
			entry(201, accounts.Credit, "100"),
		},
	}
	err := CanPost(tx, tags.DimensionConfig{}, now)
	assert.ErrorIs(t, err, shared.ErrScheduledInFuture)
}

func TestCanPostAllowsSchedulePassed(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	tx := Transaction{
		ScheduledPosting: &past,
		Entries: []Entry{
			entry(101, accounts.Debit, "100"),
			entry(201, accounts.Credit, "100"),
		},
	}
	assert.NoError(t, CanPost(tx, tags.DimensionConfig{}, now))
}

func TestCanPostRejectsUnbalancedCurrency(t *testing.T) {
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "100.01"),
		entry(201, accounts.Credit, "100.00"),
	}}
	err := CanPost(tx, tags.DimensionConfig{}, time.Now())
	assert.ErrorIs(t, err, shared.ErrUnbalanced)
	assert.Equal(t, shared.CodeUnbalancedTransaction, shared.Code(err))
}

func TestCanPostBalancesPerCurrency(t *testing.T) {
	eur := entry(101, accounts.Debit, "50")
	eur.CurrencyUomID = "EUR"
	eurCredit := entry(201, accounts.Credit, "50")
	eurCredit.CurrencyUomID = "EUR"
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "100"),
		entry(201, accounts.Credit, "100"),
		eur,
		eurCredit,
	}}
	assert.NoError(t, CanPost(tx, tags.DimensionConfig{}, time.Now()))
}

func TestCanPostMixedCurrencyImbalanceNamesCurrency(t *testing.T) {
	eur := entry(101, accounts.Debit, "50")
	eur.CurrencyUomID = "EUR"
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "100"),
		entry(201, accounts.Credit, "100"),
		eur,
	}}
	err := CanPost(tx, tags.DimensionConfig{}, time.Now())
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	assert.Contains(t, err.Error(), "EUR")
}

func TestTagsBalanceTaggedAgainstUntagged(t *testing.T) {
	// A tagged debit offset only by an untagged credit: the global sums are
	// fine, but the CONSUMER group nets +5000 on its own.
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "5000", "DIV_CONSUMER"),
		entry(201, accounts.Credit, "5000"),
	}}
	diag := AccountingTagsBalance(tx, divisionConfig())
	require.NotNil(t, diag)
	assert.Equal(t, 1, diag.Dimension)
	assert.True(t, diag.Amount.Equal(dec("5000")), "got %s", diag.Amount)

	err := CanPost(tx, divisionConfig(), time.Now())
	require.ErrorIs(t, err, shared.ErrTagDimensionUnbalanced)
	var pe *shared.PostingError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Dimension)
	assert.Equal(t, "5000", pe.Amount)
}

func TestTagsBalanceCrossGroupImbalance(t *testing.T) {
	// Debit tagged A, credit tagged B: each group nets nonzero even though the
	// transaction balances globally.
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "1200", "DIV_A"),
		entry(201, accounts.Credit, "1200", "DIV_B"),
	}}
	diag := AccountingTagsBalance(tx, divisionConfig())
	require.NotNil(t, diag)
	assert.Equal(t, 1, diag.Dimension)
	assert.True(t, diag.Amount.Equal(dec("1200")))
}

func TestTagsBalancePerGroup(t *testing.T) {
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "300", "DIV_A"),
		entry(201, accounts.Credit, "300", "DIV_A"),
		entry(102, accounts.Debit, "700"),
		entry(202, accounts.Credit, "700"),
	}}
	assert.Nil(t, AccountingTagsBalance(tx, divisionConfig()))
	assert.NoError(t, CanPost(tx, divisionConfig(), time.Now()))
}

func TestTagsBalanceIgnoresNonBalanceRequiredDimension(t *testing.T) {
	// Dimension 2 is informational; a lopsided department must not block.
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "400", "DIV_A", "DEPT_SALES"),
		entry(201, accounts.Credit, "400", "DIV_A"),
	}}
	assert.Nil(t, AccountingTagsBalance(tx, divisionConfig()))
}

func TestTagsBalanceNoConfiguredDimensions(t *testing.T) {
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "400", "DIV_A"),
		entry(201, accounts.Credit, "400", "DIV_B"),
	}}
	assert.Nil(t, AccountingTagsBalance(tx, tags.DimensionConfig{}))
}

func TestPostedAmountSumsDebitLegs(t *testing.T) {
	tx := Transaction{Entries: []Entry{
		entry(101, accounts.Debit, "60"),
		entry(102, accounts.Debit, "40"),
		entry(201, accounts.Credit, "100"),
	}}
	assert.True(t, postedAmount(tx).Equal(dec("100")))
}
