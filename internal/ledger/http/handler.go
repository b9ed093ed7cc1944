package ledgerhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/history"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/tags"
	"github.com/meridian-erp/meridian-erp/internal/ledger/transactions"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type transactionService interface {
	Get(ctx context.Context, id uuid.UUID) (transactions.Transaction, error)
	CreateDraft(ctx context.Context, tx transactions.Transaction) (transactions.Transaction, error)
	Post(ctx context.Context, id uuid.UUID) (transactions.Transaction, error)
	Reverse(ctx context.Context, id uuid.UUID, actorID int64) (transactions.Transaction, error)
}

type accountService interface {
	ListForOrganization(ctx context.Context, organizationID string) ([]accounts.Account, error)
}

type periodService interface {
	Close(ctx context.Context, organizationID string, periodID int64, actorID int64) (periods.Period, error)
}

type factService interface {
	TotalEncumbered(ctx context.Context, organizationID string, filter tags.TagFilter, asOf time.Time) (decimal.Decimal, error)
}

type reportService interface {
	TrialBalance(ctx context.Context, q reports.Query) (reports.TrialBalance, error)
	IncomeStatement(ctx context.Context, q reports.Query) (reports.IncomeStatement, error)
	BalanceSheet(ctx context.Context, q reports.Query) (reports.BalanceSheet, error)
	CashFlowStatement(ctx context.Context, q reports.Query) (reports.CashFlowStatement, error)
}

// Handler wires the ledger HTTP endpoints.
type Handler struct {
	logger       *slog.Logger
	transactions transactionService
	accounts     accountService
	periods      periodService
	facts        factService
	reports      reportService
	histories    history.Repository
	validate     *validator.Validate
}

// NewHandler constructs a ledger HTTP handler.
func NewHandler(logger *slog.Logger, txSvc transactionService, accountSvc accountService, periodSvc periodService, factSvc factService, reportSvc reportService, histories history.Repository) *Handler {
	return &Handler{
		logger:       logger,
		transactions: txSvc,
		accounts:     accountSvc,
		periods:      periodSvc,
		facts:        factSvc,
		reports:      reportSvc,
		histories:    histories,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/transactions", h.createTransaction)
		r.Post("/transactions/{id}/post", h.postTransaction)
		r.Post("/transactions/{id}/reverse", h.reverseTransaction)
		r.Get("/transactions/{id}", h.getTransaction)
		r.Get("/accounts", h.listAccounts)
		r.Get("/accounts/{accountID}/history", h.getAccountHistory)
		r.Get("/encumbrance/total", h.getEncumbranceTotal)
		r.Get("/reports/trial-balance", h.report(reportTrialBalance))
		r.Get("/reports/income-statement", h.report(reportIncomeStatement))
		r.Get("/reports/balance-sheet", h.report(reportBalanceSheet))
		r.Get("/reports/cash-flow", h.report(reportCashFlow))
		r.Post("/account-tree", h.buildAccountTree)
		r.Post("/periods/{id}/close", h.closePeriod)
	})
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	draft, err := h.transactions.CreateDraft(r.Context(), req.toDomain())
	if err != nil {
		h.respondError(w, "create transaction", err)
		return
	}
	if draft.AutoPost {
		posted, err := h.transactions.Post(r.Context(), draft.ID)
		if err != nil {
			h.respondError(w, "auto post", err)
			return
		}
		httpx.JSON(w, http.StatusCreated, toTransactionResponse(posted))
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(draft))
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be a UUID")
		return
	}
	tx, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) postTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be a UUID")
		return
	}
	tx, err := h.transactions.Post(r.Context(), id)
	if err != nil {
		h.respondError(w, "post transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) reverseTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be a UUID")
		return
	}
	tx, err := h.transactions.Reverse(r.Context(), id, actorID(r))
	if err != nil {
		h.respondError(w, "reverse transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	organizationID := strings.TrimSpace(r.URL.Query().Get("organizationId"))
	if organizationID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Parameter", "organizationId is required")
		return
	}
	list, err := h.accounts.ListForOrganization(r.Context(), organizationID)
	if err != nil {
		h.respondError(w, "list accounts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getAccountHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "account id must be numeric")
		return
	}
	organizationID := strings.TrimSpace(r.URL.Query().Get("organizationId"))
	if organizationID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Parameter", "organizationId is required")
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("periodId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Missing Parameter", "periodId must be numeric")
		return
	}
	hist, found, err := h.histories.Get(r.Context(), accountID, organizationID, periodID)
	if err != nil {
		h.respondError(w, "account history", err)
		return
	}
	if !found {
		// No postings yet: the accumulator reads as zero, not as missing.
		httpx.JSON(w, http.StatusOK, AccountHistoryResponse{
			GlAccountID:    accountID,
			OrganizationID: organizationID,
			PeriodID:       periodID,
			PostedDebits:   "0",
			PostedCredits:  "0",
		})
		return
	}
	httpx.JSON(w, http.StatusOK, AccountHistoryResponse{
		GlAccountID:    hist.AccountID,
		OrganizationID: hist.OrganizationID,
		PeriodID:       hist.PeriodID,
		PostedDebits:   hist.PostedDebits.String(),
		PostedCredits:  hist.PostedCredits.String(),
	})
}

func (h *Handler) getEncumbranceTotal(w http.ResponseWriter, r *http.Request) {
	organizationID := strings.TrimSpace(r.URL.Query().Get("organizationId"))
	if organizationID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Parameter", "organizationId is required")
		return
	}
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", "asOf must be RFC3339")
			return
		}
		asOf = parsed
	}
	filter := parseTagFilter(r.URL.Query())
	total, err := h.facts.TotalEncumbered(r.Context(), organizationID, filter, asOf)
	if err != nil {
		h.respondError(w, "encumbrance total", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"totalEncumbered": total.String()})
}

type reportKind int

const (
	reportTrialBalance reportKind = iota
	reportIncomeStatement
	reportBalanceSheet
	reportCashFlow
)

func (h *Handler) report(kind reportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseReportQuery(r)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", err.Error())
			return
		}
		var payload any
		switch kind {
		case reportTrialBalance:
			payload, err = h.reports.TrialBalance(r.Context(), q)
		case reportIncomeStatement:
			payload, err = h.reports.IncomeStatement(r.Context(), q)
		case reportBalanceSheet:
			payload, err = h.reports.BalanceSheet(r.Context(), q)
		case reportCashFlow:
			payload, err = h.reports.CashFlowStatement(r.Context(), q)
		}
		if err != nil {
			h.respondError(w, "report", err)
			return
		}
		httpx.JSON(w, http.StatusOK, payload)
	}
}

func (h *Handler) buildAccountTree(w http.ResponseWriter, r *http.Request) {
	var req TreeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rows := make([]accounts.TreeRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, accounts.TreeRow{
			AccountID:     row.GlAccountID,
			Name:          row.Name,
			ParentID:      row.ParentID,
			NormalBalance: accounts.DebitCreditFlag(row.DebitCredit),
			SelfSum:       row.SelfSum,
		})
	}
	tree, err := accounts.BuildTree(rows)
	if err != nil {
		h.respondError(w, "account tree", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tree)
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "period id must be numeric")
		return
	}
	organizationID := strings.TrimSpace(r.URL.Query().Get("organizationId"))
	if organizationID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Parameter", "organizationId is required")
		return
	}
	period, err := h.periods.Close(r.Context(), organizationID, periodID, actorID(r))
	if err != nil {
		h.respondError(w, "close period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func parseReportQuery(r *http.Request) (reports.Query, error) {
	q := reports.Query{
		OrganizationID: strings.TrimSpace(r.URL.Query().Get("organizationId")),
		FiscalType:     strings.TrimSpace(r.URL.Query().Get("glFiscalTypeId")),
		Filter:         parseTagFilter(r.URL.Query()),
	}
	if q.OrganizationID == "" {
		return q, errors.New("organizationId is required")
	}
	if raw := r.URL.Query().Get("periodId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, errors.New("periodId must be numeric")
		}
		q.PeriodID = id
		return q, nil
	}
	var err error
	if q.From, err = parseDateParam(r, "fromDate"); err != nil {
		return q, err
	}
	if q.Thru, err = parseDateParam(r, "thruDate"); err != nil {
		return q, err
	}
	if q.Thru.IsZero() {
		return q, errors.New("periodId or thruDate is required")
	}
	return q, nil
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New(name + " must be RFC3339 or YYYY-MM-DD")
}

// parseTagFilter reads tag1..tag7 query parameters into a TagFilter. The value
// _NA_ selects rows with no tag in that dimension.
func parseTagFilter(values map[string][]string) tags.TagFilter {
	var filter tags.TagFilter
	for dim := 1; dim <= tags.MaxDimensions; dim++ {
		key := "tag" + strconv.Itoa(dim)
		if vs, ok := values[key]; ok && len(vs) > 0 && vs[0] != "" {
			if filter == nil {
				filter = make(tags.TagFilter)
			}
			filter[dim] = vs[0]
		}
	}
	return filter
}

func parseDimension(key string) (int, bool) {
	trimmed := strings.TrimPrefix(strings.ToLower(key), "tag")
	dim, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return dim, true
}

// actorID resolves the acting user from the X-Actor-ID header. Zero means
// unattributed; authentication sits in front of this service.
func actorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	code := shared.Code(err)
	switch {
	case errors.Is(err, shared.ErrTransactionNotFound),
		errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrTimePeriodNotFound):
		httpx.ProblemCoded(w, http.StatusNotFound, "Not Found", err.Error(), string(code))
	case errors.Is(err, shared.ErrAlreadyPosted),
		errors.Is(err, shared.ErrPeriodLockHeld),
		errors.Is(err, shared.ErrOpenChildPeriods):
		httpx.ProblemCoded(w, http.StatusConflict, "Conflict", err.Error(), string(code))
	case code != shared.ReasonNone:
		httpx.ProblemCoded(w, http.StatusUnprocessableEntity, "Posting Rejected", err.Error(), string(code))
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
