package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// integrityDrift is one posted transaction whose entries do not net to zero.
type integrityDrift struct {
	TransactionID  string
	OrganizationID string
	Currency       string
	Net            string
}

// RunGLIntegrityCheck scans posted transactions for per-currency debit/credit
// drift and logs every offender. A nonzero result means the posting invariant
// was violated after the fact (bad migration, manual SQL) and needs human eyes.
func RunGLIntegrityCheck(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, organizationID string) (int, error) {
	const query = `
		SELECT t.id, t.organization_id, e.currency_uom_id,
		       SUM(CASE WHEN e.debit_credit_flag = 'D' THEN e.amount ELSE -e.amount END)::text AS net
		FROM acctg_trans t
		JOIN acctg_trans_entries e ON e.acctg_trans_id = t.id
		WHERE t.is_posted = TRUE
		  AND ($1 = '' OR t.organization_id = $1)
		GROUP BY t.id, t.organization_id, e.currency_uom_id
		HAVING SUM(CASE WHEN e.debit_credit_flag = 'D' THEN e.amount ELSE -e.amount END) <> 0`

	rows, err := pool.Query(ctx, query, organizationID)
	if err != nil {
		return 0, fmt.Errorf("gl integrity query: %w", err)
	}
	defer rows.Close()

	var drifts []integrityDrift
	for rows.Next() {
		var d integrityDrift
		if err := rows.Scan(&d.TransactionID, &d.OrganizationID, &d.Currency, &d.Net); err != nil {
			return 0, fmt.Errorf("gl integrity scan: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, d := range drifts {
		logger.Error("posted transaction out of balance",
			slog.String("transaction", d.TransactionID),
			slog.String("organization", d.OrganizationID),
			slog.String("currency", d.Currency),
			slog.String("net", d.Net))
	}
	if len(drifts) == 0 {
		logger.Info("gl integrity check clean", slog.String("organization", organizationID))
	}
	return len(drifts), nil
}

// NewGLIntegrityHandler processes TaskGLIntegrity tasks.
func NewGLIntegrityHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload GLIntegrityPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		drift, err := RunGLIntegrityCheck(ctx, pool, logger, payload.OrganizationID)
		if err != nil {
			return err
		}
		if drift > 0 {
			return fmt.Errorf("gl integrity: %d posted transactions out of balance", drift)
		}
		return nil
	}
}
