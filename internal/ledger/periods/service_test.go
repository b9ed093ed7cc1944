package periods

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	periods map[int64]Period
}

func newMockRepository(ps ...Period) *mockRepository {
	m := &mockRepository{periods: make(map[int64]Period, len(ps))}
	for _, p := range ps {
		m.periods[p.ID] = p
	}
	return m
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return Period{}, shared.ErrTimePeriodNotFound
	}
	return p, nil
}

func (m *mockRepository) FindContaining(ctx context.Context, organizationID string, date time.Time) ([]Period, error) {
	var out []Period
	for _, p := range m.periods {
		if p.OrganizationID == organizationID && p.Contains(date) {
			out = append(out, p)
		}
	}
	// Shortest duration first, id as tiebreak, matching the SQL ordering.
	sort.Slice(out, func(i, j int) bool {
		di := out[i].ThruDate.Sub(out[i].FromDate)
		dj := out[j].ThruDate.Sub(out[j].FromDate)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockRepository) ListChildren(ctx context.Context, parentPeriodID int64) ([]Period, error) {
	var out []Period
	for _, p := range m.periods {
		if p.ParentPeriodID != nil && *p.ParentPeriodID == parentPeriodID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTxRepo{mock: m})
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) GetForUpdate(ctx context.Context, id int64) (Period, error) {
	return t.mock.Get(ctx, id)
}

func (t *mockTxRepo) MarkClosed(ctx context.Context, id int64, actorID int64, at time.Time) error {
	p, ok := t.mock.periods[id]
	if !ok {
		return shared.ErrTimePeriodNotFound
	}
	p.IsClosed = true
	p.ClosedAt = &at
	p.ClosedBy = &actorID
	t.mock.periods[id] = p
	return nil
}

func (t *mockTxRepo) OpenChildCount(ctx context.Context, parentPeriodID int64) (int, error) {
	children, _ := t.mock.ListChildren(ctx, parentPeriodID)
	open := 0
	for _, c := range children {
		if !c.IsClosed {
			open++
		}
	}
	return open, nil
}

type grantLocker struct {
	acquired int
	released int
}

func (l *grantLocker) Acquire(ctx context.Context, organizationID string, periodID int64) (func(), error) {
	l.acquired++
	return func() { l.released++ }, nil
}

type heldLocker struct{}

func (heldLocker) Acquire(ctx context.Context, organizationID string, periodID int64) (func(), error) {
	return nil, shared.ErrPeriodLockHeld
}

// ============================================================================
// FIXTURES
// ============================================================================

func i64(v int64) *int64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nestedPeriods() []Period {
	return []Period{
		{ID: 1, OrganizationID: "ACME", PeriodType: PeriodMonth, ParentPeriodID: i64(2),
			FromDate: date(2024, 3, 1), ThruDate: date(2024, 4, 1)},
		{ID: 2, OrganizationID: "ACME", PeriodType: PeriodQuarter, ParentPeriodID: i64(3),
			FromDate: date(2024, 1, 1), ThruDate: date(2024, 4, 1)},
		{ID: 3, OrganizationID: "ACME", PeriodType: PeriodFiscalYear,
			FromDate: date(2024, 1, 1), ThruDate: date(2025, 1, 1)},
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestContainsIsHalfOpen(t *testing.T) {
	p := Period{FromDate: date(2024, 3, 1), ThruDate: date(2024, 4, 1)}
	assert.True(t, p.Contains(date(2024, 3, 1)))
	assert.True(t, p.Contains(date(2024, 3, 31)))
	assert.False(t, p.Contains(date(2024, 4, 1)))
	assert.False(t, p.Contains(date(2024, 2, 29)))
}

func TestResolvePeriodsOrdersByParentChain(t *testing.T) {
	svc := NewService(newMockRepository(nestedPeriods()...), nil)

	resolved, err := svc.ResolvePeriods(context.Background(), "ACME", date(2024, 3, 15))
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	assert.Equal(t, int64(1), resolved[0].ID)
	assert.Equal(t, int64(2), resolved[1].ID)
	assert.Equal(t, int64(3), resolved[2].ID)
}

func TestResolvePeriodsKeepsOffChainPeriods(t *testing.T) {
	ps := nestedPeriods()
	// A calendar year overlapping the fiscal year but outside the month chain.
	ps = append(ps, Period{ID: 4, OrganizationID: "ACME", PeriodType: PeriodYear,
		FromDate: date(2024, 1, 1), ThruDate: date(2025, 1, 1)})
	svc := NewService(newMockRepository(ps...), nil)

	resolved, err := svc.ResolvePeriods(context.Background(), "ACME", date(2024, 3, 15))
	require.NoError(t, err)
	require.Len(t, resolved, 4)
	assert.Equal(t, int64(1), resolved[0].ID)
	assert.Equal(t, int64(4), resolved[3].ID)
}

func TestResolvePeriodsNoMatch(t *testing.T) {
	svc := NewService(newMockRepository(nestedPeriods()...), nil)
	_, err := svc.ResolvePeriods(context.Background(), "ACME", date(2030, 1, 1))
	assert.ErrorIs(t, err, shared.ErrTimePeriodNotFound)
}

func TestCloseMarksPeriod(t *testing.T) {
	repo := newMockRepository(nestedPeriods()...)
	lock := &grantLocker{}
	svc := NewService(repo, lock)
	closedAt := date(2024, 4, 2)
	svc.WithNow(func() time.Time { return closedAt })

	closed, err := svc.Close(context.Background(), "ACME", 1, 7)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, closedAt, *closed.ClosedAt)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, int64(7), *closed.ClosedBy)

	assert.Equal(t, 1, lock.acquired)
	assert.Equal(t, 1, lock.released)
	assert.True(t, repo.periods[1].IsClosed)
}

func TestCloseRequiresChildrenClosed(t *testing.T) {
	repo := newMockRepository(nestedPeriods()...)
	svc := NewService(repo, &grantLocker{})

	_, err := svc.Close(context.Background(), "ACME", 2, 7)
	assert.ErrorIs(t, err, shared.ErrOpenChildPeriods)
	assert.False(t, repo.periods[2].IsClosed)

	// Close the month, then the quarter succeeds.
	_, err = svc.Close(context.Background(), "ACME", 1, 7)
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), "ACME", 2, 7)
	assert.NoError(t, err)
}

func TestCloseRejectsAlreadyClosed(t *testing.T) {
	ps := nestedPeriods()
	ps[0].IsClosed = true
	svc := NewService(newMockRepository(ps...), &grantLocker{})

	_, err := svc.Close(context.Background(), "ACME", 1, 7)
	assert.ErrorIs(t, err, shared.ErrTimePeriodClosed)
}

func TestCloseWrongOrganization(t *testing.T) {
	svc := NewService(newMockRepository(nestedPeriods()...), &grantLocker{})
	_, err := svc.Close(context.Background(), "OTHER", 1, 7)
	assert.ErrorIs(t, err, shared.ErrTimePeriodNotFound)
}

func TestCloseLockContention(t *testing.T) {
	repo := newMockRepository(nestedPeriods()...)
	svc := NewService(repo, heldLocker{})

	_, err := svc.Close(context.Background(), "ACME", 1, 7)
	assert.ErrorIs(t, err, shared.ErrPeriodLockHeld)
	assert.False(t, repo.periods[1].IsClosed)
}
