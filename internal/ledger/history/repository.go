package history

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// Get returns the accumulator row, or found=false when nothing has posted
	// against the triple yet.
	Get(ctx context.Context, accountID int64, organizationID string, periodID int64) (AccountHistory, bool, error)
	GetOrganizationTotal(ctx context.Context, accountID int64, organizationID string) (OrganizationTotal, bool, error)
	ListForPeriod(ctx context.Context, organizationID string, periodID int64) ([]AccountHistory, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanAmounts(debits, credits string) (decimal.Decimal, decimal.Decimal, error) {
	d, err := decimal.NewFromString(debits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	c, err := decimal.NewFromString(credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return d, c, nil
}

func (r *repository) Get(ctx context.Context, accountID int64, organizationID string, periodID int64) (AccountHistory, bool, error) {
	var h AccountHistory
	var debits, credits string
	err := r.db.QueryRow(ctx, `SELECT account_id, organization_id, period_id, posted_debits, posted_credits, updated_at
FROM gl_account_histories WHERE account_id=$1 AND organization_id=$2 AND period_id=$3`,
		accountID, organizationID, periodID).
		Scan(&h.AccountID, &h.OrganizationID, &h.PeriodID, &debits, &credits, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountHistory{}, false, nil
		}
		return AccountHistory{}, false, err
	}
	if h.PostedDebits, h.PostedCredits, err = scanAmounts(debits, credits); err != nil {
		return AccountHistory{}, false, err
	}
	return h, true, nil
}

func (r *repository) GetOrganizationTotal(ctx context.Context, accountID int64, organizationID string) (OrganizationTotal, bool, error) {
	var t OrganizationTotal
	var debits, credits string
	err := r.db.QueryRow(ctx, `SELECT account_id, organization_id, posted_debits, posted_credits
FROM gl_account_organizations WHERE account_id=$1 AND organization_id=$2`, accountID, organizationID).
		Scan(&t.AccountID, &t.OrganizationID, &debits, &credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrganizationTotal{}, false, nil
		}
		return OrganizationTotal{}, false, err
	}
	if t.PostedDebits, t.PostedCredits, err = scanAmounts(debits, credits); err != nil {
		return OrganizationTotal{}, false, err
	}
	return t, true, nil
}

func (r *repository) ListForPeriod(ctx context.Context, organizationID string, periodID int64) ([]AccountHistory, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, organization_id, period_id, posted_debits, posted_credits, updated_at
FROM gl_account_histories WHERE organization_id=$1 AND period_id=$2 ORDER BY account_id`, organizationID, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountHistory
	for rows.Next() {
		var h AccountHistory
		var debits, credits string
		if err := rows.Scan(&h.AccountID, &h.OrganizationID, &h.PeriodID, &debits, &credits, &h.UpdatedAt); err != nil {
			return nil, err
		}
		if h.PostedDebits, h.PostedCredits, err = scanAmounts(debits, credits); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
