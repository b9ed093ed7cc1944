package facts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

type sqlSources struct {
	db *pgxpool.Pool
}

// NewSources reads posted entries and open purchase commitments for rebuilds.
func NewSources(db *pgxpool.Pool) Sources {
	return &sqlSources{db: db}
}

func (s *sqlSources) ListEntries(ctx context.Context, organizationID string, from, thru time.Time) ([]EntryInput, error) {
	rows, err := s.db.Query(ctx, `SELECT e.id::text, e.organization_id, e.account_id, a.normal_balance,
e.debit_credit_flag, e.amount, t.gl_fiscal_type_id, t.transaction_date, t.auto_post,
e.tag1, e.tag2, e.tag3, e.tag4, e.tag5, e.tag6, e.tag7
FROM acctg_trans_entries e
JOIN acctg_trans t ON t.id = e.acctg_trans_id
JOIN gl_accounts a ON a.id = e.account_id
WHERE e.organization_id=$1 AND t.is_posted=TRUE AND t.gl_fiscal_type_id <> 'REFERENCE'
  AND t.transaction_date >= $2 AND t.transaction_date < $3
ORDER BY t.transaction_date, e.id`, organizationID, from, thru)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EntryInput
	for rows.Next() {
		var in EntryInput
		var amount string
		tagVals := make([]*string, tags.MaxDimensions)
		dest := []any{&in.SourceRecordID, &in.OrganizationID, &in.AccountID, &in.NormalBalance,
			&in.Flag, &amount, &in.FiscalType, &in.TransactionDate, &in.AutoPost}
		for i := range tagVals {
			dest = append(dest, &tagVals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if in.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		vector := make(tags.TagVector, tags.MaxDimensions)
		for i, v := range tagVals {
			if v != nil {
				vector[i] = *v
			}
		}
		in.Tags = vector
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *sqlSources) ListOpenCommitments(ctx context.Context, organizationID string, asOf time.Time) ([]CommitmentInput, error) {
	rows, err := s.db.Query(ctx, `SELECT c.id::text, c.organization_id, c.account_id,
c.committed_amount - c.fulfilled_amount, c.commitment_date,
c.tag1, c.tag2, c.tag3, c.tag4, c.tag5, c.tag6, c.tag7
FROM purchase_commitments c
WHERE c.organization_id=$1 AND c.commitment_date <= $2
  AND c.status IN ('OPEN','PARTIAL')
ORDER BY c.commitment_date, c.id`, organizationID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommitmentInput
	for rows.Next() {
		var in CommitmentInput
		var remaining string
		tagVals := make([]*string, tags.MaxDimensions)
		dest := []any{&in.SourceRecordID, &in.OrganizationID, &in.AccountID, &remaining, &in.CommitmentDate}
		for i := range tagVals {
			dest = append(dest, &tagVals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if in.Remaining, err = decimal.NewFromString(remaining); err != nil {
			return nil, err
		}
		vector := make(tags.TagVector, tags.MaxDimensions)
		for i, v := range tagVals {
			if v != nil {
				vector[i] = *v
			}
		}
		in.Tags = vector
		out = append(out, in)
	}
	return out, rows.Err()
}
