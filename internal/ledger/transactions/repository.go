package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/facts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository encapsulates DB operations for accounting transactions.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	CreateDraft(ctx context.Context, tx Transaction) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations a posting transaction needs. Period and
// account lookups are duplicated from their home repositories so every check
// and increment shares one database transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (Transaction, error)
	InsertTransaction(ctx context.Context, tx Transaction) error
	MarkPosted(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error

	FindPeriodsContaining(ctx context.Context, organizationID string, date time.Time) ([]periods.Period, error)
	AccountNormalBalances(ctx context.Context, ids []int64) (map[int64]accounts.DebitCreditFlag, error)

	IncrementHistory(ctx context.Context, accountID int64, organizationID string, periodID int64, debit, credit decimal.Decimal) error
	IncrementOrganizationTotal(ctx context.Context, accountID int64, organizationID string, debit, credit decimal.Decimal) error
	ReplaceFactsBySource(ctx context.Context, rows []facts.Fact) error

	IncomeStatementTotals(ctx context.Context, organizationID string, periodID int64) ([]SweepTotal, error)
}

// SweepTotal carries a revenue/expense/income account's period totals for the
// fiscal year rollforward.
type SweepTotal struct {
	AccountID     int64
	Class         accounts.AccountClass
	NormalBalance accounts.DebitCreditFlag
	PostedDebits  decimal.Decimal
	PostedCredits decimal.Decimal
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const txColumns = `id, type, gl_fiscal_type_id, organization_id, transaction_date, scheduled_posting_date,
is_posted, auto_post, posted_amount, posted_date, source_document_id, reversed_transaction_id, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	var posted string
	err := row.Scan(&t.ID, &t.Type, &t.FiscalType, &t.OrganizationID, &t.TransactionDate, &t.ScheduledPosting,
		&t.IsPosted, &t.AutoPost, &posted, &t.PostedTime, &t.SourceDocumentID, &t.ReversedID, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	if t.PostedAmount, err = decimal.NewFromString(posted); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func loadEntries(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, txID uuid.UUID) ([]Entry, error) {
	rows, err := q.Query(ctx, `SELECT id, acctg_trans_id, sequence_id, account_id, organization_id, debit_credit_flag,
currency_uom_id, amount, tag1, tag2, tag3, tag4, tag5, tag6, tag7, origin_reference
FROM acctg_trans_entries WHERE acctg_trans_id=$1 ORDER BY sequence_id`, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var amount string
		tagVals := make([]*string, tags.MaxDimensions)
		dest := []any{&e.ID, &e.TransactionID, &e.SequenceID, &e.AccountID, &e.OrganizationID, &e.Flag, &e.CurrencyUomID, &amount}
		for i := range tagVals {
			dest = append(dest, &tagVals[i])
		}
		dest = append(dest, &e.OriginReference)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		vector := make(tags.TagVector, tags.MaxDimensions)
		for i, v := range tagVals {
			if v != nil {
				vector[i] = *v
			}
		}
		e.Tags = vector
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM acctg_trans WHERE id=$1`, id))
	if err != nil {
		return Transaction{}, err
	}
	if t.Entries, err = loadEntries(ctx, r.db, id); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) CreateDraft(ctx context.Context, tx Transaction) error {
	return r.WithTx(ctx, func(ctx context.Context, txr TxRepository) error {
		return txr.InsertTransaction(ctx, tx)
	})
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, err := scanTransaction(r.tx.QueryRow(ctx, `SELECT `+txColumns+` FROM acctg_trans WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Transaction{}, err
	}
	if t.Entries, err = loadEntries(ctx, r.tx, id); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO acctg_trans
(id, type, gl_fiscal_type_id, organization_id, transaction_date, scheduled_posting_date,
 is_posted, auto_post, posted_amount, source_document_id, reversed_transaction_id, description)
VALUES ($1,$2,$3,$4,$5,$6,FALSE,$7,0,$8,$9,$10)`,
		t.ID, t.Type, t.FiscalType, t.OrganizationID, t.TransactionDate, t.ScheduledPosting,
		t.AutoPost, t.SourceDocumentID, t.ReversedID, t.Description)
	if err != nil {
		return err
	}
	for _, e := range t.Entries {
		args := []any{e.ID, t.ID, e.SequenceID, e.AccountID, e.OrganizationID, e.Flag, e.CurrencyUomID, e.Amount}
		for i := 0; i < tags.MaxDimensions; i++ {
			val := e.Tags.Value(i + 1)
			if val == "" {
				args = append(args, nil)
			} else {
				args = append(args, val)
			}
		}
		args = append(args, e.OriginReference)
		if _, err := r.tx.Exec(ctx, `INSERT INTO acctg_trans_entries
(id, acctg_trans_id, sequence_id, account_id, organization_id, debit_credit_flag, currency_uom_id, amount,
 tag1, tag2, tag3, tag4, tag5, tag6, tag7, origin_reference)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) MarkPosted(ctx context.Context, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE acctg_trans SET is_posted=TRUE, posted_amount=$2, posted_date=$3, updated_at=NOW()
WHERE id=$1 AND is_posted=FALSE`, id, amount, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAlreadyPosted
	}
	return nil
}

func (r *txRepository) FindPeriodsContaining(ctx context.Context, organizationID string, date time.Time) ([]periods.Period, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, organization_id, from_date, thru_date, period_type, parent_period_id, is_closed, closed_at, closed_by, created_at, updated_at
FROM custom_time_periods
WHERE organization_id=$1 AND from_date <= $2 AND thru_date > $2
ORDER BY thru_date - from_date ASC, id ASC`, organizationID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []periods.Period
	for rows.Next() {
		var p periods.Period
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.FromDate, &p.ThruDate, &p.PeriodType, &p.ParentPeriodID,
			&p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) AccountNormalBalances(ctx context.Context, ids []int64) (map[int64]accounts.DebitCreditFlag, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, normal_balance FROM gl_accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]accounts.DebitCreditFlag, len(ids))
	for rows.Next() {
		var id int64
		var flag accounts.DebitCreditFlag
		if err := rows.Scan(&id, &flag); err != nil {
			return nil, err
		}
		out[id] = flag
	}
	return out, rows.Err()
}

func (r *txRepository) IncrementHistory(ctx context.Context, accountID int64, organizationID string, periodID int64, debit, credit decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO gl_account_histories (account_id, organization_id, period_id, posted_debits, posted_credits, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW())
ON CONFLICT (account_id, organization_id, period_id)
DO UPDATE SET posted_debits = gl_account_histories.posted_debits + EXCLUDED.posted_debits,
              posted_credits = gl_account_histories.posted_credits + EXCLUDED.posted_credits,
              updated_at = NOW()`, accountID, organizationID, periodID, debit, credit)
	return err
}

func (r *txRepository) IncrementOrganizationTotal(ctx context.Context, accountID int64, organizationID string, debit, credit decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO gl_account_organizations (account_id, organization_id, posted_debits, posted_credits)
VALUES ($1,$2,$3,$4)
ON CONFLICT (account_id, organization_id)
DO UPDATE SET posted_debits = gl_account_organizations.posted_debits + EXCLUDED.posted_debits,
              posted_credits = gl_account_organizations.posted_credits + EXCLUDED.posted_credits`, accountID, organizationID, debit, credit)
	return err
}

func (r *txRepository) ReplaceFactsBySource(ctx context.Context, rows []facts.Fact) error {
	seen := make(map[string]bool, len(rows))
	for _, f := range rows {
		key := f.SourceRecordID + "|" + f.OrganizationID
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, err := r.tx.Exec(ctx, `DELETE FROM gl_account_trans_entry_facts WHERE source_record_id=$1 AND organization_id=$2`,
			f.SourceRecordID, f.OrganizationID); err != nil {
			return err
		}
	}
	for _, f := range rows {
		args := []any{f.SourceRecordID, f.OrganizationID, f.AccountID, f.TransactionDate,
			f.BudgetNetAmount, f.ActualNetAmount, f.EncumberedNetAmount}
		for i := 0; i < tags.MaxDimensions; i++ {
			val := f.Tags.Value(i + 1)
			if val == "" {
				args = append(args, nil)
			} else {
				args = append(args, val)
			}
		}
		if _, err := r.tx.Exec(ctx, `INSERT INTO gl_account_trans_entry_facts
(source_record_id, organization_id, account_id, transaction_date,
 budget_net_amount, actual_net_amount, encumbered_net_amount,
 tag1, tag2, tag3, tag4, tag5, tag6, tag7)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) IncomeStatementTotals(ctx context.Context, organizationID string, periodID int64) ([]SweepTotal, error) {
	rows, err := r.tx.Query(ctx, `SELECT h.account_id, a.class, a.normal_balance, h.posted_debits, h.posted_credits
FROM gl_account_histories h
JOIN gl_accounts a ON a.id = h.account_id
WHERE h.organization_id=$1 AND h.period_id=$2 AND a.class IN ('REVENUE','EXPENSE','INCOME')
ORDER BY h.account_id`, organizationID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SweepTotal
	for rows.Next() {
		var t SweepTotal
		var debits, credits string
		if err := rows.Scan(&t.AccountID, &t.Class, &t.NormalBalance, &debits, &credits); err != nil {
			return nil, err
		}
		if t.PostedDebits, err = decimal.NewFromString(debits); err != nil {
			return nil, err
		}
		if t.PostedCredits, err = decimal.NewFromString(credits); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
