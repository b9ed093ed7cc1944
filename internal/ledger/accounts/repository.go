package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Account, error)
	ListForOrganization(ctx context.Context, organizationID string) ([]Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, class, normal_balance, parent_account_id, is_active, created_at, updated_at
FROM gl_accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Class, &a.NormalBalance, &a.ParentAccountID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// ListForOrganization returns accounts enabled for the organization, ordered by code.
func (r *repository) ListForOrganization(ctx context.Context, organizationID string) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.class, a.normal_balance, a.parent_account_id, a.is_active, a.created_at, a.updated_at
FROM gl_accounts a
JOIN gl_account_organizations o ON o.account_id = a.id
WHERE o.organization_id = $1 AND (o.thru_date IS NULL OR o.thru_date > NOW())
ORDER BY a.code`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Class, &a.NormalBalance, &a.ParentAccountID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
