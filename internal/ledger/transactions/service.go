package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/facts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records posting activity for the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// MetricsPort counts posting outcomes.
type MetricsPort interface {
	TransactionPosted(fiscalType string)
	PostingRejected(code string)
}

// Service is the ledger poster.
type Service struct {
	repo    Repository
	tagRepo tags.Repository
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
}

func NewService(repo Repository, tagRepo tags.Repository, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, tagRepo: tagRepo, audit: audit, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// CreateDraft validates entry basics and stores an unposted transaction.
func (s *Service) CreateDraft(ctx context.Context, tx Transaction) (Transaction, error) {
	if tx.OrganizationID == "" {
		return Transaction{}, errors.New("ledger: organization required")
	}
	if len(tx.Entries) < 2 {
		return Transaction{}, errors.New("ledger: transaction requires at least two entries")
	}
	for idx, e := range tx.Entries {
		if e.AccountID == 0 {
			return Transaction{}, fmt.Errorf("ledger: entry %d missing account", idx)
		}
		if !e.Amount.IsPositive() {
			return Transaction{}, fmt.Errorf("ledger: entry %d amount must be positive", idx)
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	for i := range tx.Entries {
		if tx.Entries[i].ID == uuid.Nil {
			tx.Entries[i].ID = uuid.New()
		}
		tx.Entries[i].TransactionID = tx.ID
		tx.Entries[i].SequenceID = i + 1
		if tx.Entries[i].OrganizationID == "" {
			tx.Entries[i].OrganizationID = tx.OrganizationID
		}
	}
	if err := s.repo.CreateDraft(ctx, tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Post validates and applies the transaction: ACTUAL entries increment period
// history and all-time totals, BUDGET/ENCUMBRANCE entries replace their fact
// rows, REFERENCE transactions only flip the posted flag. The whole effect is
// one database transaction; a failed validation mutates nothing.
func (s *Service) Post(ctx context.Context, id uuid.UUID) (Transaction, error) {
	cfgCache := make(map[string]tags.DimensionConfig, 1)
	var posted Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, txr TxRepository) error {
		tx, err := txr.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		cfg, ok := cfgCache[tx.OrganizationID]
		if !ok {
			if cfg, err = s.tagRepo.GetConfig(ctx, tx.OrganizationID); err != nil {
				return err
			}
			cfgCache[tx.OrganizationID] = cfg
		}
		now := s.now()
		if err := CanPost(tx, cfg, now); err != nil {
			return err
		}
		switch tx.FiscalType {
		case FiscalActual:
			if err := s.applyActual(ctx, txr, tx); err != nil {
				return err
			}
		case FiscalBudget, FiscalEncumbrance:
			if err := s.applyFacts(ctx, txr, tx); err != nil {
				return err
			}
		case FiscalReference:
			// Audit-only layer, no ledger or fact effect.
		default:
			return fmt.Errorf("ledger: unknown fiscal type %q", tx.FiscalType)
		}
		if err := txr.MarkPosted(ctx, tx.ID, postedAmount(tx), now); err != nil {
			return err
		}
		posted = tx
		posted.IsPosted = true
		posted.PostedAmount = postedAmount(tx)
		posted.PostedTime = &now
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PostingRejected(string(shared.Code(err)))
		}
		return Transaction{}, err
	}
	if s.metrics != nil {
		s.metrics.TransactionPosted(string(posted.FiscalType))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			Action:   "ledger.post",
			Entity:   "acctg_trans",
			EntityID: posted.ID.String(),
			Meta: map[string]any{
				"fiscal_type":   string(posted.FiscalType),
				"posted_amount": posted.PostedAmount.String(),
			},
			At: s.now(),
		})
	}
	return posted, nil
}

// applyActual increments history for every open period containing the
// transaction date. The date's periods are resolved inside the posting
// transaction so a concurrent close cannot slip between check and increment.
func (s *Service) applyActual(ctx context.Context, txr TxRepository, tx Transaction) error {
	resolved, err := txr.FindPeriodsContaining(ctx, tx.OrganizationID, tx.TransactionDate)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		return shared.ErrTimePeriodNotFound
	}
	open := resolved[:0:0]
	for _, p := range resolved {
		if !p.IsClosed {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTimePeriodClosed, tx.TransactionDate.Format("2006-01-02"))
	}
	for _, entry := range tx.Entries {
		debit, credit := entrySides(entry)
		for _, p := range open {
			if err := txr.IncrementHistory(ctx, entry.AccountID, entry.OrganizationID, p.ID, debit, credit); err != nil {
				return err
			}
		}
		if err := txr.IncrementOrganizationTotal(ctx, entry.AccountID, entry.OrganizationID, debit, credit); err != nil {
			return err
		}
	}
	return nil
}

// applyFacts projects BUDGET/ENCUMBRANCE entries into the fact space. Closed
// periods do not block this layer; it feeds reporting, not history.
func (s *Service) applyFacts(ctx context.Context, txr TxRepository, tx Transaction) error {
	ids := make([]int64, 0, len(tx.Entries))
	for _, e := range tx.Entries {
		ids = append(ids, e.AccountID)
	}
	normals, err := txr.AccountNormalBalances(ctx, ids)
	if err != nil {
		return err
	}
	inputs := make([]facts.EntryInput, 0, len(tx.Entries))
	for _, e := range tx.Entries {
		inputs = append(inputs, facts.EntryInput{
			SourceRecordID:  e.ID.String(),
			OrganizationID:  e.OrganizationID,
			AccountID:       e.AccountID,
			NormalBalance:   normals[e.AccountID],
			Flag:            e.Flag,
			Amount:          e.Amount,
			Tags:            e.Tags,
			FiscalType:      string(tx.FiscalType),
			TransactionDate: tx.TransactionDate,
			AutoPost:        tx.AutoPost,
		})
	}
	return txr.ReplaceFactsBySource(ctx, facts.Build(inputs, nil))
}

func flip(flag accounts.DebitCreditFlag) accounts.DebitCreditFlag {
	if flag == accounts.Debit {
		return accounts.Credit
	}
	return accounts.Debit
}

func entrySides(e Entry) (debit, credit decimal.Decimal) {
	if e.SignedAmount().IsPositive() {
		return e.Amount, decimal.Zero
	}
	return decimal.Zero, e.Amount
}

// Reverse builds a new transaction with every entry's flag flipped, identical
// tags and amounts, dated at the void instant, and posts it through the normal
// flow. The original stays untouched for audit.
func (s *Service) Reverse(ctx context.Context, id uuid.UUID, actorID int64) (Transaction, error) {
	original, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if !original.IsPosted {
		return Transaction{}, fmt.Errorf("ledger: cannot reverse unposted transaction %s", id)
	}
	now := s.now()
	reversal := Transaction{
		ID:              uuid.New(),
		Type:            "REVERSE",
		FiscalType:      original.FiscalType,
		OrganizationID:  original.OrganizationID,
		TransactionDate: now,
		AutoPost:        original.AutoPost,
		ReversedID:      &original.ID,
		Description:     fmt.Sprintf("Reversal of %s", original.ID),
	}
	for _, e := range original.Entries {
		flipped := e
		flipped.ID = uuid.New()
		flipped.TransactionID = reversal.ID
		flipped.Flag = flip(e.Flag)
		reversal.Entries = append(reversal.Entries, flipped)
	}
	if err := s.repo.CreateDraft(ctx, reversal); err != nil {
		return Transaction{}, err
	}
	posted, err := s.Post(ctx, reversal.ID)
	if err != nil {
		return Transaction{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "ledger.reverse",
			Entity:   "acctg_trans",
			EntityID: original.ID.String(),
			Meta:     map[string]any{"reversal_id": posted.ID.String()},
			At:       s.now(),
		})
	}
	return posted, nil
}
