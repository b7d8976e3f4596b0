package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileAllBanks(ctx context.Context) ([]*domain.BankReconciliation, error)
	VerifyCashBooks(ctx context.Context, branchIDs []string) ([]*domain.CashBookVerification, error)
	GenerateReconciliationReport(ctx context.Context, branchIDs []string) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler serves the cross-checks of banks and cash books.
type ReconciliationHandler struct {
	reconciler ReconciliationService
	branches   []string
}

// NewReconciliationHandler creates a new ReconciliationHandler. branches are
// checked when a request names none.
func NewReconciliationHandler(reconciler ReconciliationService, branches []string) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler, branches: branches}
}

// Banks reconciles every bank.
func (h *ReconciliationHandler) Banks(w http.ResponseWriter, r *http.Request) {
	recs, err := h.reconciler.ReconcileAllBanks(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile banks", err)
		return
	}

	items := make([]*dto.BankReconciliationResponse, len(recs))
	for i, rec := range recs {
		items[i] = dto.BankReconciliationFromDomain(rec)
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BankReconciliationResponse]{Items: items})
}

// CashBooks verifies the cash books of the branch_id query values.
func (h *ReconciliationHandler) CashBooks(w http.ResponseWriter, r *http.Request) {
	results, err := h.reconciler.VerifyCashBooks(r.Context(), h.branchesOr(r.URL.Query()["branch_id"]))
	if err != nil {
		writeDomainError(w, "failed to verify cash books", err)
		return
	}

	items := make([]*dto.CashBookVerificationResponse, len(results))
	for i, v := range results {
		items[i] = dto.CashBookVerificationFromDomain(v)
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.CashBookVerificationResponse]{Items: items})
}

// Report runs the full reconciliation.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconciliationRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	report, err := h.reconciler.GenerateReconciliationReport(r.Context(), h.branchesOr(req.BranchIDs))
	if err != nil {
		writeDomainError(w, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromDomain(report))
}

func (h *ReconciliationHandler) branchesOr(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return h.branches
}
