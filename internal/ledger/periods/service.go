package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// Locker guards the close critical section per (organization, period).
type Locker interface {
	Acquire(ctx context.Context, organizationID string, periodID int64) (func(), error)
}

type Service struct {
	repo Repository
	lock Locker
	now  func() time.Time
}

func NewService(repo Repository, lock Locker) *Service {
	return &Service{repo: repo, lock: lock, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

// ResolvePeriods returns the periods containing the date, most granular first,
// following the parent chain. Periods outside the chain keep their shortest-
// duration-first order after the chain.
func (s *Service) ResolvePeriods(ctx context.Context, organizationID string, date time.Time) ([]Period, error) {
	containing, err := s.repo.FindContaining(ctx, organizationID, date)
	if err != nil {
		return nil, err
	}
	if len(containing) == 0 {
		return nil, shared.ErrTimePeriodNotFound
	}
	return orderByParentChain(containing), nil
}

func orderByParentChain(containing []Period) []Period {
	byID := make(map[int64]Period, len(containing))
	for _, p := range containing {
		byID[p.ID] = p
	}
	ordered := make([]Period, 0, len(containing))
	onChain := make(map[int64]bool, len(containing))
	cur := containing[0]
	for {
		ordered = append(ordered, cur)
		onChain[cur.ID] = true
		if cur.ParentPeriodID == nil {
			break
		}
		parent, ok := byID[*cur.ParentPeriodID]
		if !ok || onChain[parent.ID] {
			break
		}
		cur = parent
	}
	for _, p := range containing {
		if !onChain[p.ID] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Close marks a period closed. Preconditions: the caller holds no posting in
// flight for the period (enforced by the exclusive lock) and every child
// period is already closed. A FISCAL_YEAR close expects the caller to post a
// rollforward transaction through the regular poster afterwards; nothing here
// special-cases it.
func (s *Service) Close(ctx context.Context, organizationID string, periodID int64, actorID int64) (Period, error) {
	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, organizationID, periodID)
		if err != nil {
			return Period{}, err
		}
		defer release()
	}
	var closed Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if period.OrganizationID != organizationID {
			return shared.ErrTimePeriodNotFound
		}
		if period.IsClosed {
			return shared.ErrTimePeriodClosed
		}
		open, err := tx.OpenChildCount(ctx, periodID)
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: %d open under period %d", shared.ErrOpenChildPeriods, open, periodID)
		}
		now := s.now()
		if err := tx.MarkClosed(ctx, periodID, actorID, now); err != nil {
			return err
		}
		closed = period
		closed.IsClosed = true
		closed.ClosedAt = &now
		closed.ClosedBy = &actorID
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	return closed, nil
}
