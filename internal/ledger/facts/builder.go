package facts

import (
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// signedNet orients an amount by the account's normal balance side: an entry
// on the normal side is positive, the opposite side negative.
func signedNet(normal, flag accounts.DebitCreditFlag, amount decimal.Decimal) decimal.Decimal {
	if flag == normal {
		return amount
	}
	return amount.Neg()
}

// Build projects entries and open commitments into fact rows. It is a pure
// function: rebuilding a window replaces its fact rows rather than
// accumulating, so re-running never double counts. Entries whose transaction
// carries autoPost=false contribute no row at all.
func Build(entries []EntryInput, commitments []CommitmentInput) []Fact {
	out := make([]Fact, 0, len(entries)+len(commitments))
	for _, in := range entries {
		if !in.AutoPost {
			continue
		}
		fact := Fact{
			SourceRecordID:  in.SourceRecordID,
			OrganizationID:  in.OrganizationID,
			AccountID:       in.AccountID,
			TransactionDate: in.TransactionDate,
			Tags:            in.Tags,
		}
		net := signedNet(in.NormalBalance, in.Flag, in.Amount)
		switch in.FiscalType {
		case "BUDGET":
			fact.BudgetNetAmount = net
		case "ENCUMBRANCE":
			fact.EncumberedNetAmount = net
		case "ACTUAL":
			fact.ActualNetAmount = net
		default:
			continue
		}
		out = append(out, fact)
	}
	for _, in := range commitments {
		if in.Remaining.IsZero() {
			continue
		}
		out = append(out, Fact{
			SourceRecordID:      in.SourceRecordID,
			OrganizationID:      in.OrganizationID,
			AccountID:           in.AccountID,
			TransactionDate:     in.CommitmentDate,
			Tags:                in.Tags,
			EncumberedNetAmount: in.Remaining,
		})
	}
	return out
}
