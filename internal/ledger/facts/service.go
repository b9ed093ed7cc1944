package facts

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

type Service struct {
	repo    Repository
	sources Sources
	logger  *slog.Logger
}

func NewService(repo Repository, sources Sources, logger *slog.Logger) *Service {
	return &Service{repo: repo, sources: sources, logger: logger}
}

// Rebuild re-projects the organization's fact rows for [from, thru). The
// window is replaced, not accumulated, so repeated or concurrent rebuilds of
// the same window converge on the same rows.
func (s *Service) Rebuild(ctx context.Context, organizationID string, from, thru time.Time) (int, error) {
	entries, err := s.sources.ListEntries(ctx, organizationID, from, thru)
	if err != nil {
		return 0, err
	}
	commitments, err := s.sources.ListOpenCommitments(ctx, organizationID, thru)
	if err != nil {
		return 0, err
	}
	rows := Build(entries, commitments)
	if err := s.repo.ReplaceWindow(ctx, organizationID, from, thru, rows); err != nil {
		return 0, err
	}
	if s.logger != nil {
		s.logger.Info("fact window rebuilt",
			slog.String("organization", organizationID),
			slog.Time("from", from),
			slog.Time("thru", thru),
			slog.Int("rows", len(rows)))
	}
	return len(rows), nil
}

// TotalEncumbered sums encumberedNetAmount over rows matching the organization
// and, for every dimension present in the filter, an exact tag match. Omitted
// dimensions match any value; tags.TagNone selects the explicit no-tag bucket.
func (s *Service) TotalEncumbered(ctx context.Context, organizationID string, filter tags.TagFilter, asOf time.Time) (decimal.Decimal, error) {
	rows, err := s.repo.ListForOrganization(ctx, organizationID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		if !filter.Matches(row.Tags) {
			continue
		}
		total = total.Add(row.EncumberedNetAmount)
	}
	return total, nil
}
