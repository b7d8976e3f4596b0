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

// RegisterService defines the behavior needed by RegisterHandler.
type RegisterService interface {
	Open(ctx context.Context, input usecase.OpenRegisterInput, user domain.User) (*domain.CashRegister, error)
	RecordCashIn(ctx context.Context, input usecase.RecordTransactionInput, user domain.User) (*usecase.RecordTransactionResult, error)
	RecordCashOut(ctx context.Context, input usecase.RecordTransactionInput, user domain.User) (*usecase.RecordTransactionResult, error)
	Close(ctx context.Context, input usecase.CloseRegisterInput, user domain.User) (*domain.CashRegister, error)
	DepositToBank(ctx context.Context, input usecase.DepositInput, user domain.User) (*usecase.DepositResult, error)
	Delete(ctx context.Context, id string, user domain.User) error
	Get(ctx context.Context, id string) (*domain.CashRegister, error)
	GetCurrent(ctx context.Context, branchID string) (*domain.CashRegister, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashRegister, error)
	ListByDateRange(ctx context.Context, branchID string, start, end time.Time) ([]*domain.CashRegister, error)
	ListTransactions(ctx context.Context, registerID string) ([]*domain.CashRegisterTransaction, error)
	DailySummary(ctx context.Context, branchID string, date time.Time) (*domain.RegisterDailySummary, error)
}

// SaleService records completed sales into the open register.
type SaleService interface {
	RecordSale(ctx context.Context, input usecase.SaleInput, user domain.User) (*usecase.RecordTransactionResult, error)
}

// RegisterHandler handles cash register HTTP requests.
type RegisterHandler struct {
	registers RegisterService
	sales     SaleService
	now       func() time.Time
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(registers RegisterService, sales SaleService) *RegisterHandler {
	return &RegisterHandler{registers: registers, sales: sales, now: time.Now}
}

// Open opens a register for a branch.
func (h *RegisterHandler) Open(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.OpenRegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid register", err)
		return
	}

	reg, err := h.registers.Open(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to open register", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RegisterFromDomain(reg))
}

// CashIn records cash brought into a register.
func (h *RegisterHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.registers.RecordCashIn)
}

// CashOut records cash taken out of a register.
func (h *RegisterHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.registers.RecordCashOut)
}

type recordFunc func(context.Context, usecase.RecordTransactionInput, domain.User) (*usecase.RecordTransactionResult, error)

func (h *RegisterHandler) record(w http.ResponseWriter, r *http.Request, fn recordFunc) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.RecordTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "invalid transaction", err)
		return
	}

	result, err := fn(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to record transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecordTransactionFromResult(result))
}

// Sale records a cash sale against the branch's open register.
func (h *RegisterHandler) Sale(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.SaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid sale", err)
		return
	}

	result, err := h.sales.RecordSale(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to record sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecordTransactionFromResult(result))
}

// Close closes a register with the counted cash.
func (h *RegisterHandler) Close(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CloseRegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "invalid close", err)
		return
	}

	reg, err := h.registers.Close(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to close register", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterFromDomain(reg))
}

// Deposit moves a closed register's cash into a bank.
func (h *RegisterHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "invalid deposit", err)
		return
	}

	result, err := h.registers.DepositToBank(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to deposit register", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DepositFromResult(result))
}

// Delete removes a register and its transactions.
func (h *RegisterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.registers.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		writeDomainError(w, "failed to delete register", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a register by ID.
func (h *RegisterHandler) Get(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get register", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterFromDomain(reg))
}

// Current returns the branch's open register.
func (h *RegisterHandler) Current(w http.ResponseWriter, r *http.Request) {
	branchID, ok := requireBranch(w, r)
	if !ok {
		return
	}

	reg, err := h.registers.GetCurrent(r.Context(), branchID)
	if err != nil {
		writeDomainError(w, "failed to get open register", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterFromDomain(reg))
}

// List lists a branch's registers, newest first. With start and end the
// listing is restricted to that register date range.
func (h *RegisterHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, ok := requireBranch(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		today := domain.DateOf(h.now())
		start, err := parseDateQuery(r, "start", today)
		if err != nil {
			writeDomainError(w, "invalid start date", err)
			return
		}
		end, err := parseDateQuery(r, "end", today)
		if err != nil {
			writeDomainError(w, "invalid end date", err)
			return
		}
		regs, err := h.registers.ListByDateRange(r.Context(), branchID, start, end)
		if err != nil {
			writeDomainError(w, "failed to list registers", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.ListResponse[*dto.RegisterResponse]{Items: dto.RegistersFromDomain(regs)})
		return
	}

	limit, offset := parsePage(r)
	regs, err := h.registers.ListByBranch(r.Context(), branchID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list registers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.RegisterResponse]{
		Items:  dto.RegistersFromDomain(regs),
		Limit:  limit,
		Offset: offset,
	})
}

// Transactions lists a register's movements in recording order.
func (h *RegisterHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.registers.ListTransactions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.RegisterTransactionResponse]{
		Items: dto.RegisterTransactionsFromDomain(txns),
	})
}

// DailySummary aggregates a branch's registers for one date (default today).
func (h *RegisterHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	branchID, ok := requireBranch(w, r)
	if !ok {
		return
	}
	date, err := parseDateQuery(r, "date", domain.DateOf(h.now()))
	if err != nil {
		writeDomainError(w, "invalid date", err)
		return
	}

	summary, err := h.registers.DailySummary(r.Context(), branchID, date)
	if err != nil {
		writeDomainError(w, "failed to summarize registers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterDailySummaryFromDomain(summary))
}

func requireBranch(w http.ResponseWriter, r *http.Request) (string, bool) {
	branchID := strings.TrimSpace(r.URL.Query().Get("branch_id"))
	if branchID == "" {
		writeError(w, http.StatusBadRequest, "missing branch_id", "")
		return "", false
	}
	return branchID, true
}
