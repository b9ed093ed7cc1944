package facts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var factDate = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func budgetEntry(id string, flag accounts.DebitCreditFlag, amount string) EntryInput {
	return EntryInput{
		SourceRecordID:  id,
		OrganizationID:  "ACME",
		AccountID:       6100,
		NormalBalance:   accounts.Debit,
		Flag:            flag,
		Amount:          dec(amount),
		FiscalType:      "BUDGET",
		TransactionDate: factDate,
		AutoPost:        true,
	}
}

func TestSignedNetOrientation(t *testing.T) {
	// Debit-normal account: debit positive, credit negative.
	assert.True(t, dec("100").Equal(signedNet(accounts.Debit, accounts.Debit, dec("100"))))
	assert.True(t, dec("-100").Equal(signedNet(accounts.Debit, accounts.Credit, dec("100"))))
	// Credit-normal account flips.
	assert.True(t, dec("100").Equal(signedNet(accounts.Credit, accounts.Credit, dec("100"))))
	assert.True(t, dec("-100").Equal(signedNet(accounts.Credit, accounts.Debit, dec("100"))))
}

func TestBuildSelectsColumnByFiscalType(t *testing.T) {
	budget := budgetEntry("e1", accounts.Debit, "9000")
	encumbrance := budgetEntry("e2", accounts.Debit, "4000")
	encumbrance.FiscalType = "ENCUMBRANCE"
	actual := budgetEntry("e3", accounts.Credit, "250")
	actual.FiscalType = "ACTUAL"

	rows := Build([]EntryInput{budget, encumbrance, actual}, nil)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].BudgetNetAmount.Equal(dec("9000")))
	assert.True(t, rows[0].ActualNetAmount.IsZero())
	assert.True(t, rows[0].EncumberedNetAmount.IsZero())

	assert.True(t, rows[1].EncumberedNetAmount.Equal(dec("4000")))
	assert.True(t, rows[1].BudgetNetAmount.IsZero())

	// Credit leg on a debit-normal account comes out negative.
	assert.True(t, rows[2].ActualNetAmount.Equal(dec("-250")))
}

func TestBuildSkipsManualPostTransactions(t *testing.T) {
	manual := budgetEntry("e1", accounts.Debit, "9000")
	manual.AutoPost = false

	rows := Build([]EntryInput{manual, budgetEntry("e2", accounts.Debit, "100")}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "e2", rows[0].SourceRecordID)
}

func TestBuildSkipsUnknownFiscalType(t *testing.T) {
	ref := budgetEntry("e1", accounts.Debit, "9000")
	ref.FiscalType = "REFERENCE"
	assert.Empty(t, Build([]EntryInput{ref}, nil))
}

func TestBuildCommitments(t *testing.T) {
	open := CommitmentInput{
		SourceRecordID: "PO-100",
		OrganizationID: "ACME",
		AccountID:      6100,
		Remaining:      dec("2500.50"),
		Tags:           tags.TagVector{"DIV_CONSUMER"},
		CommitmentDate: factDate,
	}
	fulfilled := CommitmentInput{
		SourceRecordID: "PO-101",
		OrganizationID: "ACME",
		AccountID:      6100,
		Remaining:      decimal.Zero,
		CommitmentDate: factDate,
	}

	rows := Build(nil, []CommitmentInput{open, fulfilled})
	require.Len(t, rows, 1)
	assert.Equal(t, "PO-100", rows[0].SourceRecordID)
	assert.True(t, rows[0].EncumberedNetAmount.Equal(dec("2500.50")))
	assert.True(t, rows[0].BudgetNetAmount.IsZero())
	assert.Equal(t, "DIV_CONSUMER", rows[0].Tags.Value(1))
}

func TestBuildCarriesTagsThrough(t *testing.T) {
	in := budgetEntry("e1", accounts.Debit, "100")
	in.Tags = tags.TagVector{"DIV_CONSUMER", "DEPT_SALES"}
	rows := Build([]EntryInput{in}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "DIV_CONSUMER", rows[0].Tags.Value(1))
	assert.Equal(t, "DEPT_SALES", rows[0].Tags.Value(2))
	assert.Equal(t, "", rows[0].Tags.Value(3))
}
