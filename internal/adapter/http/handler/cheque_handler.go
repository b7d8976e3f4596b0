package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ChequeService defines the behavior needed by ChequeHandler.
type ChequeService interface {
	Create(ctx context.Context, input usecase.ChequeInput, user domain.User) (*domain.IncomingCheque, error)
	Update(ctx context.Context, id string, input usecase.ChequeInput, user domain.User) (*domain.IncomingCheque, error)
	Deposit(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error)
	Clear(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error)
	Bounce(ctx context.Context, input usecase.BounceInput, user domain.User) (*domain.IncomingCheque, error)
	Cancel(ctx context.Context, id, reason string, user domain.User) (*domain.IncomingCheque, error)
	Reconcile(ctx context.Context, id string, user domain.User) (*domain.IncomingCheque, error)
	Delete(ctx context.Context, id string, user domain.User) error
	Get(ctx context.Context, id string) (*domain.IncomingCheque, error)
	List(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error)
	Statistics(ctx context.Context) (domain.ChequeStatistics, error)
	StatisticsByDateRange(ctx context.Context, start, end time.Time) (domain.ChequeStatistics, error)
	ListLedgerEntries(ctx context.Context, chequeID string) ([]*domain.BankLedgerEntry, error)
}

// ChequeHandler handles incoming cheque HTTP requests.
type ChequeHandler struct {
	cheques ChequeService
	now     func() time.Time
}

// NewChequeHandler creates a new ChequeHandler.
func NewChequeHandler(cheques ChequeService) *ChequeHandler {
	return &ChequeHandler{cheques: cheques, now: time.Now}
}

// Create records a received cheque.
func (h *ChequeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ChequeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid cheque", err)
		return
	}

	cheque, err := h.cheques.Create(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to create cheque", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ChequeFromDomain(cheque))
}

// Update edits a cheque that has not reached the bank yet.
func (h *ChequeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ChequeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid cheque", err)
		return
	}

	cheque, err := h.cheques.Update(r.Context(), chi.URLParam(r, "id"), input, user)
	if err != nil {
		writeDomainError(w, "failed to update cheque", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// Deposit marks a cheque as handed to the bank.
func (h *ChequeHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.dated(w, r, "failed to deposit cheque", h.cheques.Deposit)
}

// Clear marks a cheque as cleared and credits the bank.
func (h *ChequeHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.dated(w, r, "failed to clear cheque", h.cheques.Clear)
}

type datedTransition func(context.Context, string, time.Time, domain.User) (*domain.IncomingCheque, error)

// dated runs a transition whose body optionally carries the effective date.
func (h *ChequeHandler) dated(w http.ResponseWriter, r *http.Request, failure string, fn datedTransition) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ChequeDateRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	date, err := req.EffectiveDate(domain.DateOf(h.now()))
	if err != nil {
		writeDomainError(w, "invalid date", err)
		return
	}

	cheque, err := fn(r.Context(), chi.URLParam(r, "id"), date, user)
	if err != nil {
		writeDomainError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// Bounce records the bank's rejection of a cheque.
func (h *ChequeHandler) Bounce(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.BounceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"), domain.DateOf(h.now()))
	if err != nil {
		writeDomainError(w, "invalid bounce", err)
		return
	}

	cheque, err := h.cheques.Bounce(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to bounce cheque", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// Cancel withdraws an uncleared cheque.
func (h *ChequeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CancelRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	cheque, err := h.cheques.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason, user)
	if err != nil {
		writeDomainError(w, "failed to cancel cheque", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// Reconcile marks a cleared cheque as matched against the bank statement.
func (h *ChequeHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cheque, err := h.cheques.Reconcile(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeDomainError(w, "failed to reconcile cheque", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// Delete soft-deletes a cheque.
func (h *ChequeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.cheques.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		writeDomainError(w, "failed to delete cheque", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a cheque by ID.
func (h *ChequeHandler) Get(w http.ResponseWriter, r *http.Request) {
	cheque, err := h.cheques.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get cheque", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeFromDomain(cheque))
}

// List lists cheques filtered by status, bank_id, from and to.
func (h *ChequeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePage(r)
	filter := domain.ChequeFilter{
		Status: domain.ChequeStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		BankID: strings.TrimSpace(q.Get("bank_id")),
		Limit:  limit,
		Offset: offset,
	}
	var err error
	if filter.FromDate, err = optionalDateQuery(r, "from"); err != nil {
		writeDomainError(w, "invalid from date", err)
		return
	}
	if filter.ToDate, err = optionalDateQuery(r, "to"); err != nil {
		writeDomainError(w, "invalid to date", err)
		return
	}

	cheques, err := h.cheques.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list cheques", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.ChequeResponse]{
		Items:  dto.ChequesFromDomain(cheques),
		Limit:  limit,
		Offset: offset,
	})
}

// Statistics totals cheques per status, optionally within a cheque date range.
func (h *ChequeHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	from, err := optionalDateQuery(r, "from")
	if err != nil {
		writeDomainError(w, "invalid from date", err)
		return
	}
	to, err := optionalDateQuery(r, "to")
	if err != nil {
		writeDomainError(w, "invalid to date", err)
		return
	}

	var stats domain.ChequeStatistics
	if from != nil || to != nil {
		today := domain.DateOf(h.now())
		if from == nil {
			from = &time.Time{}
		}
		if to == nil {
			to = &today
		}
		stats, err = h.cheques.StatisticsByDateRange(r.Context(), *from, *to)
	} else {
		stats, err = h.cheques.Statistics(r.Context())
	}
	if err != nil {
		writeDomainError(w, "failed to compute statistics", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChequeStatisticsFromDomain(stats))
}

// LedgerEntries lists the bank ledger entries a cheque produced.
func (h *ChequeHandler) LedgerEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cheques.ListLedgerEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list ledger entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BankLedgerEntryResponse]{
		Items: dto.BankLedgerEntriesFromDomain(entries),
	})
}

func optionalDateQuery(r *http.Request, key string) (*time.Time, error) {
	if strings.TrimSpace(r.URL.Query().Get(key)) == "" {
		return nil, nil
	}
	t, err := parseDateQuery(r, key, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
