package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// tagConditions renders the filter as SQL over the entry tag columns.
// tags.TagNone selects rows where the column is NULL.
func tagConditions(filter tags.TagFilter, args *[]any) string {
	if len(filter) == 0 {
		return ""
	}
	var sb strings.Builder
	for dim := 1; dim <= tags.MaxDimensions; dim++ {
		want, ok := filter[dim]
		if !ok {
			continue
		}
		if want == tags.TagNone {
			fmt.Fprintf(&sb, " AND e.tag%d IS NULL", dim)
			continue
		}
		*args = append(*args, want)
		fmt.Fprintf(&sb, " AND e.tag%d = $%d", dim, len(*args))
	}
	return sb.String()
}

func (r *repository) AccountBalances(ctx context.Context, organizationID string, w Window, fiscalType string, filter tags.TagFilter) ([]AccountBalance, error) {
	args := []any{organizationID, fiscalType, w.From, w.Thru}
	query := `SELECT a.id, a.code, a.name, a.class, COALESCE(a.subclass, ''), a.normal_balance,
COALESCE(SUM(e.amount) FILTER (WHERE e.debit_credit_flag='D'), 0),
COALESCE(SUM(e.amount) FILTER (WHERE e.debit_credit_flag='C'), 0)
FROM acctg_trans_entries e
JOIN acctg_trans t ON t.id = e.acctg_trans_id
JOIN gl_accounts a ON a.id = e.account_id
WHERE e.organization_id=$1 AND t.is_posted=TRUE AND t.gl_fiscal_type_id=$2
  AND t.transaction_date >= $3 AND t.transaction_date < $4` + tagConditions(filter, &args) + `
GROUP BY a.id, a.code, a.name, a.class, a.subclass, a.normal_balance
ORDER BY a.code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		var debits, credits string
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Class, &b.Subclass, &b.NormalBalance, &debits, &credits); err != nil {
			return nil, err
		}
		if b.Debits, err = decimal.NewFromString(debits); err != nil {
			return nil, err
		}
		if b.Credits, err = decimal.NewFromString(credits); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CashMovements pairs each cash-account entry in the window with the other
// legs of its transaction and attributes the cash change to the offsetting
// account's class, proportionally when a transaction has several offsets.
func (r *repository) CashMovements(ctx context.Context, organizationID string, w Window, filter tags.TagFilter) ([]CashMovement, error) {
	args := []any{organizationID, w.From, w.Thru}
	query := `SELECT oa.class, COALESCE(oa.subclass, ''),
COALESCE(SUM(
    (CASE WHEN e.debit_credit_flag='D' THEN e.amount ELSE -e.amount END)
    * o.amount / NULLIF(tot.offset_total, 0)
), 0)
FROM acctg_trans_entries e
JOIN gl_accounts ca ON ca.id = e.account_id AND ca.is_cash = TRUE
JOIN acctg_trans t ON t.id = e.acctg_trans_id
JOIN acctg_trans_entries o ON o.acctg_trans_id = t.id AND o.id <> e.id
JOIN gl_accounts oa ON oa.id = o.account_id AND oa.is_cash = FALSE
JOIN LATERAL (
    SELECT SUM(x.amount) AS offset_total
    FROM acctg_trans_entries x
    JOIN gl_accounts xa ON xa.id = x.account_id AND xa.is_cash = FALSE
    WHERE x.acctg_trans_id = t.id
) tot ON TRUE
WHERE e.organization_id=$1 AND t.is_posted=TRUE AND t.gl_fiscal_type_id='ACTUAL'
  AND t.transaction_date >= $2 AND t.transaction_date < $3` + tagConditions(filter, &args) + `
GROUP BY oa.class, oa.subclass
ORDER BY oa.class, oa.subclass`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CashMovement
	for rows.Next() {
		var m CashMovement
		var amount string
		if err := rows.Scan(&m.OffsetClass, &m.OffsetSubclass, &amount); err != nil {
			return nil, err
		}
		if m.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) CashBalance(ctx context.Context, organizationID string, asOf time.Time, filter tags.TagFilter) (decimal.Decimal, error) {
	args := []any{organizationID, asOf}
	query := `SELECT COALESCE(SUM(CASE WHEN e.debit_credit_flag='D' THEN e.amount ELSE -e.amount END), 0)
FROM acctg_trans_entries e
JOIN gl_accounts a ON a.id = e.account_id AND a.is_cash = TRUE
JOIN acctg_trans t ON t.id = e.acctg_trans_id
WHERE e.organization_id=$1 AND t.is_posted=TRUE AND t.gl_fiscal_type_id='ACTUAL'
  AND t.transaction_date < $2` + tagConditions(filter, &args)
	var total string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

func (r *repository) FiscalYearClosed(ctx context.Context, organizationID string, date time.Time) (bool, error) {
	var closed bool
	err := r.db.QueryRow(ctx, `SELECT COALESCE(bool_or(is_closed), FALSE)
FROM custom_time_periods
WHERE organization_id=$1 AND period_type='FISCAL_YEAR' AND from_date <= $2 AND thru_date > $2`,
		organizationID, date).Scan(&closed)
	return closed, err
}
