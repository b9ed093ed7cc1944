package facts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

type Repository interface {
	// ReplaceWindow swaps every fact row of the organization whose transaction
	// date falls in [from, thru) for the supplied rows, atomically.
	ReplaceWindow(ctx context.Context, organizationID string, from, thru time.Time, rows []Fact) error
	// UpsertBySource replaces the rows for each source record present in rows.
	UpsertBySource(ctx context.Context, rows []Fact) error
	ListForOrganization(ctx context.Context, organizationID string, asOf time.Time) ([]Fact, error)
}

// Sources supplies the raw material the fact space projects from.
type Sources interface {
	ListEntries(ctx context.Context, organizationID string, from, thru time.Time) ([]EntryInput, error)
	ListOpenCommitments(ctx context.Context, organizationID string, asOf time.Time) ([]CommitmentInput, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func tagColumns(v tags.TagVector) []any {
	out := make([]any, tags.MaxDimensions)
	for i := 0; i < tags.MaxDimensions; i++ {
		val := v.Value(i + 1)
		if val == "" {
			out[i] = nil
		} else {
			out[i] = val
		}
	}
	return out
}

func insertFact(ctx context.Context, tx pgx.Tx, f Fact) error {
	args := []any{f.SourceRecordID, f.OrganizationID, f.AccountID, f.TransactionDate,
		f.BudgetNetAmount, f.ActualNetAmount, f.EncumberedNetAmount}
	args = append(args, tagColumns(f.Tags)...)
	_, err := tx.Exec(ctx, `INSERT INTO gl_account_trans_entry_facts
(source_record_id, organization_id, account_id, transaction_date,
 budget_net_amount, actual_net_amount, encumbered_net_amount,
 tag1, tag2, tag3, tag4, tag5, tag6, tag7)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`, args...)
	return err
}

func (r *repository) ReplaceWindow(ctx context.Context, organizationID string, from, thru time.Time, rows []Fact) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM gl_account_trans_entry_facts
WHERE organization_id=$1 AND transaction_date >= $2 AND transaction_date < $3`, organizationID, from, thru); err != nil {
			return err
		}
		for _, f := range rows {
			if err := insertFact(ctx, tx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) UpsertBySource(ctx context.Context, rows []Fact) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		seen := make(map[string]bool, len(rows))
		for _, f := range rows {
			key := f.SourceRecordID + "|" + f.OrganizationID
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, err := tx.Exec(ctx, `DELETE FROM gl_account_trans_entry_facts
WHERE source_record_id=$1 AND organization_id=$2`, f.SourceRecordID, f.OrganizationID); err != nil {
				return err
			}
		}
		for _, f := range rows {
			if err := insertFact(ctx, tx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) ListForOrganization(ctx context.Context, organizationID string, asOf time.Time) ([]Fact, error) {
	rows, err := r.db.Query(ctx, `SELECT source_record_id, organization_id, account_id, transaction_date,
budget_net_amount, actual_net_amount, encumbered_net_amount,
tag1, tag2, tag3, tag4, tag5, tag6, tag7
FROM gl_account_trans_entry_facts
WHERE organization_id=$1 AND transaction_date <= $2`, organizationID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Fact
	for rows.Next() {
		var f Fact
		var budget, actual, encumbered string
		tagVals := make([]*string, tags.MaxDimensions)
		dest := []any{&f.SourceRecordID, &f.OrganizationID, &f.AccountID, &f.TransactionDate, &budget, &actual, &encumbered}
		for i := range tagVals {
			dest = append(dest, &tagVals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if f.BudgetNetAmount, err = decimal.NewFromString(budget); err != nil {
			return nil, err
		}
		if f.ActualNetAmount, err = decimal.NewFromString(actual); err != nil {
			return nil, err
		}
		if f.EncumberedNetAmount, err = decimal.NewFromString(encumbered); err != nil {
			return nil, err
		}
		vector := make(tags.TagVector, tags.MaxDimensions)
		for i, v := range tagVals {
			if v != nil {
				vector[i] = *v
			}
		}
		f.Tags = vector
		out = append(out, f)
	}
	return out, rows.Err()
}
