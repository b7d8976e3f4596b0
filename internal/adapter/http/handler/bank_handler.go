package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// BankService defines the behavior needed by BankHandler.
type BankService interface {
	CreateBank(ctx context.Context, input usecase.CreateBankInput, user domain.User) (*domain.Bank, error)
	UpdateBank(ctx context.Context, input usecase.UpdateBankInput, user domain.User) (*domain.Bank, error)
	DeactivateBank(ctx context.Context, id string, user domain.User) (*domain.Bank, error)
	GetBank(ctx context.Context, id string) (*domain.Bank, error)
	ListBanks(ctx context.Context, limit, offset int) ([]*domain.Bank, error)
	ListActiveBanks(ctx context.Context) ([]*domain.Bank, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
	ListLedger(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error)
	ReconcileBank(ctx context.Context, bankID string) (*domain.BankReconciliation, error)
}

// BankHandler handles bank-related HTTP requests.
type BankHandler struct {
	banks BankService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(banks BankService) *BankHandler {
	return &BankHandler{banks: banks}
}

// Create registers a new bank account.
func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.CreateBankRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid bank", err)
		return
	}

	bank, err := h.banks.CreateBank(r.Context(), input, user)
	if err != nil {
		writeDomainError(w, "failed to create bank", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BankFromDomain(bank))
}

// Update edits a bank's descriptive fields.
func (h *BankHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.UpdateBankRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	bank, err := h.banks.UpdateBank(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")), user)
	if err != nil {
		writeDomainError(w, "failed to update bank", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BankFromDomain(bank))
}

// Deactivate stops a bank from taking new deposits.
func (h *BankHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	bank, err := h.banks.DeactivateBank(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		writeDomainError(w, "failed to deactivate bank", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BankFromDomain(bank))
}

// Get retrieves a bank by ID.
func (h *BankHandler) Get(w http.ResponseWriter, r *http.Request) {
	bank, err := h.banks.GetBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get bank", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BankFromDomain(bank))
}

// List lists banks. active=true restricts to banks accepting deposits.
func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		banks, err := h.banks.ListActiveBanks(r.Context())
		if err != nil {
			writeDomainError(w, "failed to list banks", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BankResponse]{Items: dto.BanksFromDomain(banks)})
		return
	}

	limit, offset := parsePage(r)
	banks, err := h.banks.ListBanks(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list banks", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BankResponse]{
		Items:  dto.BanksFromDomain(banks),
		Limit:  limit,
		Offset: offset,
	})
}

// TotalBalance sums the balances of active banks.
func (h *BankHandler) TotalBalance(w http.ResponseWriter, r *http.Request) {
	total, err := h.banks.TotalBalance(r.Context())
	if err != nil {
		writeDomainError(w, "failed to total balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TotalBalanceResponse{TotalBalance: total})
}

// Ledger lists a bank's ledger entries in posting order.
func (h *BankHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	entries, err := h.banks.ListLedger(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BankLedgerEntryResponse]{
		Items:  dto.BankLedgerEntriesFromDomain(entries),
		Limit:  limit,
		Offset: offset,
	})
}

// Reconcile replays a bank's ledger against its cached balance.
func (h *BankHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.banks.ReconcileBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile bank", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BankReconciliationFromDomain(rec))
}
