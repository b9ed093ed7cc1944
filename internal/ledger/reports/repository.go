package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

// Repository answers the aggregate queries the statements are built from.
// Queries are read-only and filter by transaction date, never by wall-clock
// posting time, so a report is snapshot-consistent as of its window.
type Repository interface {
	AccountBalances(ctx context.Context, organizationID string, w Window, fiscalType string, filter tags.TagFilter) ([]AccountBalance, error)
	CashMovements(ctx context.Context, organizationID string, w Window, filter tags.TagFilter) ([]CashMovement, error)
	CashBalance(ctx context.Context, organizationID string, asOf time.Time, filter tags.TagFilter) (decimal.Decimal, error)
	FiscalYearClosed(ctx context.Context, organizationID string, date time.Time) (bool, error)
}

// PeriodPort resolves named periods into windows.
type PeriodPort interface {
	Get(ctx context.Context, id int64) (periods.Period, error)
}
