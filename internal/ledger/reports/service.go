package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

// Query selects a statement's scope: either PeriodID or an explicit window.
// The two forms yield identical results for equivalent intervals. AsOf
// queries (trial balance, balance sheet) use Thru as the exclusive cutoff.
type Query struct {
	OrganizationID string
	PeriodID       int64
	From           time.Time
	Thru           time.Time
	FiscalType     string
	Filter         tags.TagFilter
}

type Service struct {
	repo    Repository
	periods PeriodPort
	cache   *Cache
}

func NewService(repo Repository, periods PeriodPort, cache *Cache) *Service {
	return &Service{repo: repo, periods: periods, cache: cache}
}

// earliest is the open lower bound for as-of queries.
var earliest = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *Service) resolveWindow(ctx context.Context, q Query) (Window, error) {
	if q.PeriodID != 0 {
		period, err := s.periods.Get(ctx, q.PeriodID)
		if err != nil {
			return Window{}, err
		}
		return Window{From: period.FromDate, Thru: period.ThruDate}, nil
	}
	if q.Thru.IsZero() {
		return Window{}, errors.New("reports: period or date range required")
	}
	from := q.From
	if from.IsZero() {
		from = earliest
	}
	return Window{From: from, Thru: q.Thru}, nil
}

func (q Query) fiscalType() string {
	if q.FiscalType == "" {
		return "ACTUAL"
	}
	return q.FiscalType
}

func cacheKey(report string, q Query, w Window) string {
	dims := make([]int, 0, len(q.Filter))
	for dim := range q.Filter {
		dims = append(dims, dim)
	}
	sort.Ints(dims)
	var sb strings.Builder
	for _, dim := range dims {
		fmt.Fprintf(&sb, "%d=%s;", dim, q.Filter[dim])
	}
	return fmt.Sprintf("ledger:report:%s:%s:%s:%d:%d:%s",
		report, q.OrganizationID, q.fiscalType(), w.From.Unix(), w.Thru.Unix(), sb.String())
}

// TrialBalance is an as-of snapshot: sums every posted entry up to the window
// end. Once the fiscal year containing the cutoff is closed, revenue, expense,
// and income report empty and equity carries the swept net income.
func (s *Service) TrialBalance(ctx context.Context, q Query) (TrialBalance, error) {
	w, err := s.resolveWindow(ctx, q)
	if err != nil {
		return TrialBalance{}, err
	}
	w.From = earliest
	key := cacheKey("tb", q, w)
	var cached TrialBalance
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.repo.AccountBalances(ctx, q.OrganizationID, w, q.fiscalType(), q.Filter)
	if err != nil {
		return TrialBalance{}, err
	}
	cutoff := w.Thru.Add(-time.Nanosecond)
	closed, err := s.repo.FiscalYearClosed(ctx, q.OrganizationID, cutoff)
	if err != nil {
		return TrialBalance{}, err
	}
	if closed {
		rows = withoutIncomeStatementRows(rows)
	}
	tb := BuildTrialBalance(rows)
	s.cache.Set(ctx, key, tb)
	return tb, nil
}

func withoutIncomeStatementRows(rows []AccountBalance) []AccountBalance {
	out := rows[:0:0]
	for _, row := range rows {
		if row.Class.IsIncomeStatement() {
			continue
		}
		out = append(out, row)
	}
	return out
}

// IncomeStatement covers activity inside the window.
func (s *Service) IncomeStatement(ctx context.Context, q Query) (IncomeStatement, error) {
	w, err := s.resolveWindow(ctx, q)
	if err != nil {
		return IncomeStatement{}, err
	}
	key := cacheKey("is", q, w)
	var cached IncomeStatement
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.repo.AccountBalances(ctx, q.OrganizationID, w, q.fiscalType(), q.Filter)
	if err != nil {
		return IncomeStatement{}, err
	}
	stmt := BuildIncomeStatement(rows)
	s.cache.Set(ctx, key, stmt)
	return stmt, nil
}

// BalanceSheet is an as-of snapshot like the trial balance.
func (s *Service) BalanceSheet(ctx context.Context, q Query) (BalanceSheet, error) {
	w, err := s.resolveWindow(ctx, q)
	if err != nil {
		return BalanceSheet{}, err
	}
	w.From = earliest
	key := cacheKey("bs", q, w)
	var cached BalanceSheet
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.repo.AccountBalances(ctx, q.OrganizationID, w, q.fiscalType(), q.Filter)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs := BuildBalanceSheet(rows)
	s.cache.Set(ctx, key, bs)
	return bs, nil
}

// CashFlowStatement derives the change in designated cash accounts over the
// window, decomposed by offsetting-account nature. The beginning balance and
// the movement query run concurrently.
func (s *Service) CashFlowStatement(ctx context.Context, q Query) (CashFlowStatement, error) {
	w, err := s.resolveWindow(ctx, q)
	if err != nil {
		return CashFlowStatement{}, err
	}
	key := cacheKey("cf", q, w)
	var cached CashFlowStatement
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	var beginning decimal.Decimal
	var movements []CashMovement
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var e error
		beginning, e = s.repo.CashBalance(gctx, q.OrganizationID, w.From, q.Filter)
		return e
	})
	g.Go(func() error {
		var e error
		movements, e = s.repo.CashMovements(gctx, q.OrganizationID, w, q.Filter)
		return e
	})
	if err := g.Wait(); err != nil {
		return CashFlowStatement{}, err
	}
	cf := BuildCashFlowStatement(beginning, movements)
	s.cache.Set(ctx, key, cf)
	return cf, nil
}
