package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/ledger/facts"
)

// FactRebuildMetrics counts rows written by rebuild runs.
type FactRebuildMetrics interface {
	FactRowsRebuilt(n int)
}

// NewFactRebuildHandler processes TaskFactRebuild tasks against the fact service.
func NewFactRebuildHandler(svc *facts.Service, metrics FactRebuildMetrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload FactRebuildPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.OrganizationID == "" {
			return asynq.SkipRetry
		}
		started := time.Now()
		rows, err := svc.Rebuild(ctx, payload.OrganizationID, payload.FromDate, payload.ThruDate)
		if err != nil {
			logger.Error("fact rebuild failed",
				slog.String("organization", payload.OrganizationID),
				slog.Any("error", err))
			return err
		}
		if metrics != nil {
			metrics.FactRowsRebuilt(rows)
		}
		logger.Info("fact rebuild complete",
			slog.String("organization", payload.OrganizationID),
			slog.Int("rows", rows),
			slog.Duration("elapsed", time.Since(started)))
		return nil
	}
}
