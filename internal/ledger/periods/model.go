package periods

import "time"

// PeriodType enumerates fiscal period granularities.
type PeriodType string

const (
	PeriodMonth      PeriodType = "MONTH"
	PeriodQuarter    PeriodType = "QUARTER"
	PeriodYear       PeriodType = "YEAR"
	PeriodFiscalYear PeriodType = "FISCAL_YEAR"
)

// Period represents a fiscal reporting interval for an organization.
// Same-type periods per organization never overlap, and a child period is
// fully contained in its parent.
type Period struct {
	ID             int64
	OrganizationID string
	FromDate       time.Time
	ThruDate       time.Time
	PeriodType     PeriodType
	ParentPeriodID *int64
	IsClosed       bool
	ClosedAt       *time.Time
	ClosedBy       *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Contains reports whether the date falls inside [FromDate, ThruDate).
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.FromDate) && date.Before(p.ThruDate)
}
