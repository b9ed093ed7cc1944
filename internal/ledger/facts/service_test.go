package facts

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	rows []Fact
}

func (m *mockRepository) ReplaceWindow(ctx context.Context, organizationID string, from, thru time.Time, rows []Fact) error {
	kept := m.rows[:0]
	for _, f := range m.rows {
		inWindow := f.OrganizationID == organizationID &&
			!f.TransactionDate.Before(from) && f.TransactionDate.Before(thru)
		if !inWindow {
			kept = append(kept, f)
		}
	}
	m.rows = append(kept, rows...)
	return nil
}

func (m *mockRepository) UpsertBySource(ctx context.Context, rows []Fact) error {
	for _, f := range rows {
		kept := m.rows[:0]
		for _, existing := range m.rows {
			if existing.SourceRecordID != f.SourceRecordID || existing.OrganizationID != f.OrganizationID {
				kept = append(kept, existing)
			}
		}
		m.rows = kept
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *mockRepository) ListForOrganization(ctx context.Context, organizationID string, asOf time.Time) ([]Fact, error) {
	var out []Fact
	for _, f := range m.rows {
		if f.OrganizationID == organizationID && !f.TransactionDate.After(asOf) {
			out = append(out, f)
		}
	}
	return out, nil
}

type mockSources struct {
	entries     []EntryInput
	commitments []CommitmentInput
}

func (m *mockSources) ListEntries(ctx context.Context, organizationID string, from, thru time.Time) ([]EntryInput, error) {
	return m.entries, nil
}

func (m *mockSources) ListOpenCommitments(ctx context.Context, organizationID string, asOf time.Time) ([]CommitmentInput, error) {
	return m.commitments, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// FIXTURES
// ============================================================================

func encumberedFact(id string, amount string, tagValues ...string) Fact {
	return Fact{
		SourceRecordID:      id,
		OrganizationID:      "ACME",
		AccountID:           6100,
		TransactionDate:     factDate,
		Tags:                tags.TagVector(tagValues),
		EncumberedNetAmount: dec(amount),
	}
}

func encumbranceFixture() *mockRepository {
	return &mockRepository{rows: []Fact{
		encumberedFact("PO-1", "4000", "DIV_CONSUMER", "DEPT_SALES"),
		encumberedFact("PO-2", "2000", "DIV_CONSUMER", "DEPT_OPS"),
		encumberedFact("PO-3", "27000", "DIV_CONSUMER"),
		encumberedFact("PO-4", "18000.43", "DIV_ENTERPRISE"),
		encumberedFact("PO-5", "788", ""),
	}}
}

// ============================================================================
// TESTS
// ============================================================================

func TestTotalEncumberedUnfiltered(t *testing.T) {
	svc := NewService(encumbranceFixture(), &mockSources{}, discardLogger())

	total, err := svc.TotalEncumbered(context.Background(), "ACME", nil, factDate)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("51788.43")), "got %s", total)
}

func TestTotalEncumberedByDivision(t *testing.T) {
	svc := NewService(encumbranceFixture(), &mockSources{}, discardLogger())

	total, err := svc.TotalEncumbered(context.Background(), "ACME",
		tags.TagFilter{1: "DIV_CONSUMER"}, factDate)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("33000")), "got %s", total)
}

func TestTotalEncumberedCompoundFilter(t *testing.T) {
	svc := NewService(encumbranceFixture(), &mockSources{}, discardLogger())

	total, err := svc.TotalEncumbered(context.Background(), "ACME",
		tags.TagFilter{1: "DIV_CONSUMER", 2: "DEPT_SALES"}, factDate)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("4000")), "got %s", total)
}

func TestTotalEncumberedNoTagBucket(t *testing.T) {
	svc := NewService(encumbranceFixture(), &mockSources{}, discardLogger())

	total, err := svc.TotalEncumbered(context.Background(), "ACME",
		tags.TagFilter{1: tags.TagNone}, factDate)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("788")), "got %s", total)
}

func TestTotalEncumberedRespectsAsOf(t *testing.T) {
	repo := encumbranceFixture()
	late := encumberedFact("PO-9", "99999", "DIV_CONSUMER")
	late.TransactionDate = factDate.AddDate(0, 1, 0)
	repo.rows = append(repo.rows, late)
	svc := NewService(repo, &mockSources{}, discardLogger())

	total, err := svc.TotalEncumbered(context.Background(), "ACME", nil, factDate)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("51788.43")), "got %s", total)
}

func TestRebuildReplacesWindow(t *testing.T) {
	repo := &mockRepository{rows: []Fact{
		encumberedFact("STALE-1", "123"),
	}}
	sources := &mockSources{
		entries: []EntryInput{{
			SourceRecordID:  "e1",
			OrganizationID:  "ACME",
			AccountID:       6100,
			NormalBalance:   accounts.Debit,
			Flag:            accounts.Debit,
			Amount:          dec("9000"),
			FiscalType:      "BUDGET",
			TransactionDate: factDate,
			AutoPost:        true,
		}},
		commitments: []CommitmentInput{{
			SourceRecordID: "PO-100",
			OrganizationID: "ACME",
			AccountID:      6100,
			Remaining:      dec("500"),
			CommitmentDate: factDate,
		}},
	}
	svc := NewService(repo, sources, discardLogger())

	from := factDate.AddDate(0, -1, 0)
	thru := factDate.AddDate(0, 1, 0)
	n, err := svc.Rebuild(context.Background(), "ACME", from, thru)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The stale row inside the window is gone, not accumulated alongside.
	require.Len(t, repo.rows, 2)
	ids := []string{repo.rows[0].SourceRecordID, repo.rows[1].SourceRecordID}
	assert.ElementsMatch(t, []string{"e1", "PO-100"}, ids)
}

func TestRebuildIsIdempotent(t *testing.T) {
	repo := &mockRepository{}
	sources := &mockSources{
		entries: []EntryInput{{
			SourceRecordID:  "e1",
			OrganizationID:  "ACME",
			AccountID:       6100,
			NormalBalance:   accounts.Debit,
			Flag:            accounts.Debit,
			Amount:          dec("9000"),
			FiscalType:      "BUDGET",
			TransactionDate: factDate,
			AutoPost:        true,
		}},
	}
	svc := NewService(repo, sources, discardLogger())

	from := factDate.AddDate(0, -1, 0)
	thru := factDate.AddDate(0, 1, 0)
	for i := 0; i < 3; i++ {
		_, err := svc.Rebuild(context.Background(), "ACME", from, thru)
		require.NoError(t, err)
	}
	assert.Len(t, repo.rows, 1)
}
