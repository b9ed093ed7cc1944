package ledgerhttp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
	"github.com/meridian-erp/meridian-erp/internal/ledger/transactions"
)

// CreateTransactionRequest carries a draft transaction. The caller supplies
// organization, fiscal type, transaction date, and the complete tag vectors;
// the engine validates and aggregates, it never invents tags.
type CreateTransactionRequest struct {
	Type            string         `json:"type" validate:"required"`
	GlFiscalTypeID  string         `json:"glFiscalTypeId" validate:"required,oneof=ACTUAL BUDGET ENCUMBRANCE REFERENCE"`
	OrganizationID  string         `json:"organizationId" validate:"required"`
	TransactionDate time.Time      `json:"transactionDate" validate:"required"`
	ScheduledDate   *time.Time     `json:"scheduledPostingDate,omitempty"`
	AutoPost        bool           `json:"autoPost"`
	Description     string         `json:"description"`
	Entries         []EntryRequest `json:"entries" validate:"required,min=2,dive"`
}

// EntryRequest is one leg of the draft.
type EntryRequest struct {
	GlAccountID     int64             `json:"glAccountId" validate:"required"`
	DebitCreditFlag string            `json:"debitCreditFlag" validate:"required,oneof=D C"`
	CurrencyUomID   string            `json:"currencyUomId" validate:"required"`
	Amount          decimal.Decimal   `json:"amount" validate:"required"`
	Tags            map[string]string `json:"tags,omitempty"`
	OriginReference string            `json:"originReference,omitempty"`
}

func (r CreateTransactionRequest) toDomain() transactions.Transaction {
	tx := transactions.Transaction{
		Type:             r.Type,
		FiscalType:       transactions.FiscalType(r.GlFiscalTypeID),
		OrganizationID:   r.OrganizationID,
		TransactionDate:  r.TransactionDate,
		ScheduledPosting: r.ScheduledDate,
		AutoPost:         r.AutoPost,
		Description:      r.Description,
	}
	for _, e := range r.Entries {
		tx.Entries = append(tx.Entries, transactions.Entry{
			AccountID:       e.GlAccountID,
			OrganizationID:  r.OrganizationID,
			Flag:            accounts.DebitCreditFlag(e.DebitCreditFlag),
			CurrencyUomID:   e.CurrencyUomID,
			Amount:          e.Amount,
			Tags:            toTagVector(e.Tags),
			OriginReference: e.OriginReference,
		})
	}
	return tx
}

func toTagVector(m map[string]string) tags.TagVector {
	if len(m) == 0 {
		return nil
	}
	vector := make(tags.TagVector, tags.MaxDimensions)
	for key, value := range m {
		if dim, ok := parseDimension(key); ok && dim >= 1 && dim <= tags.MaxDimensions {
			vector[dim-1] = value
		}
	}
	return vector
}

// TransactionResponse is the posted/draft transaction view.
type TransactionResponse struct {
	ID              string     `json:"id"`
	GlFiscalTypeID  string     `json:"glFiscalTypeId"`
	OrganizationID  string     `json:"organizationId"`
	TransactionDate time.Time  `json:"transactionDate"`
	IsPosted        bool       `json:"isPosted"`
	PostedAmount    string     `json:"postedAmount"`
	PostedDate      *time.Time `json:"postedDate,omitempty"`
}

func toTransactionResponse(tx transactions.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID.String(),
		GlFiscalTypeID:  string(tx.FiscalType),
		OrganizationID:  tx.OrganizationID,
		TransactionDate: tx.TransactionDate,
		IsPosted:        tx.IsPosted,
		PostedAmount:    tx.PostedAmount.String(),
		PostedDate:      tx.PostedTime,
	}
}

// AccountHistoryResponse answers getAccountHistory.
type AccountHistoryResponse struct {
	GlAccountID    int64  `json:"glAccountId"`
	OrganizationID string `json:"organizationId"`
	PeriodID       int64  `json:"periodId"`
	PostedDebits   string `json:"postedDebits"`
	PostedCredits  string `json:"postedCredits"`
}

// TreeRequest carries the rows for buildAccountTree.
type TreeRequest struct {
	Rows []TreeRowRequest `json:"rows" validate:"required,min=1,dive"`
}

// TreeRowRequest is one (accountId, parentId, selfSum) input row.
type TreeRowRequest struct {
	GlAccountID int64           `json:"glAccountId" validate:"required"`
	Name        string          `json:"name"`
	ParentID    *int64          `json:"parentId,omitempty"`
	DebitCredit string          `json:"debitCredit" validate:"omitempty,oneof=D C"`
	SelfSum     decimal.Decimal `json:"selfSum"`
}
