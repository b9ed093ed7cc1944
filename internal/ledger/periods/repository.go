package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Period, error)
	// FindContaining returns every period of the organization containing the
	// date, most granular first.
	FindContaining(ctx context.Context, organizationID string, date time.Time) ([]Period, error)
	ListChildren(ctx context.Context, parentPeriodID int64) ([]Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes period operations inside a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Period, error)
	MarkClosed(ctx context.Context, id int64, actorID int64, at time.Time) error
	OpenChildCount(ctx context.Context, parentPeriodID int64) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, organization_id, from_date, thru_date, period_type, parent_period_id, is_closed, closed_at, closed_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.OrganizationID, &p.FromDate, &p.ThruDate, &p.PeriodType, &p.ParentPeriodID, &p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrTimePeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM custom_time_periods WHERE id=$1`, id))
}

func (r *repository) FindContaining(ctx context.Context, organizationID string, date time.Time) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+`
FROM custom_time_periods
WHERE organization_id=$1 AND from_date <= $2 AND thru_date > $2
ORDER BY thru_date - from_date ASC, id ASC`, organizationID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListChildren(ctx context.Context, parentPeriodID int64) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM custom_time_periods WHERE parent_period_id=$1 ORDER BY from_date`, parentPeriodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM custom_time_periods WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) MarkClosed(ctx context.Context, id int64, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE custom_time_periods SET is_closed=TRUE, closed_at=$2, closed_by=$3, updated_at=NOW() WHERE id=$1`, id, at, actorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTimePeriodNotFound
	}
	return nil
}

func (r *txRepository) OpenChildCount(ctx context.Context, parentPeriodID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM custom_time_periods WHERE parent_period_id=$1 AND is_closed=FALSE`, parentPeriodID).Scan(&n)
	return n, err
}
