package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

// CashBookService defines the behavior needed by CashBookHandler.
type CashBookService interface {
	Summary(ctx context.Context, branchID string, start, end time.Time) (*domain.CashBookSummary, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error)
	ListByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time, limit, offset int) ([]*domain.CashBookEntry, error)
	VerifyBranch(ctx context.Context, branchID string) (*domain.CashBookVerification, error)
}

// CashBookHandler serves a branch's cash book.
type CashBookHandler struct {
	cashBook CashBookService
	now      func() time.Time
}

// NewCashBookHandler creates a new CashBookHandler.
func NewCashBookHandler(cashBook CashBookService) *CashBookHandler {
	return &CashBookHandler{cashBook: cashBook, now: time.Now}
}

// List lists a branch's entries in sequence order, optionally within start
// and end transaction dates.
func (h *CashBookHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")
	limit, offset := parsePage(r)

	var (
		entries []*domain.CashBookEntry
		err     error
	)
	q := r.URL.Query()
	if q.Get("start") != "" || q.Get("end") != "" {
		start, end, ok := h.dateRange(w, r)
		if !ok {
			return
		}
		entries, err = h.cashBook.ListByBranchAndDateRange(r.Context(), branchID, start, end, limit, offset)
	} else {
		entries, err = h.cashBook.ListByBranch(r.Context(), branchID, limit, offset)
	}
	if err != nil {
		writeDomainError(w, "failed to list cash book", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.CashBookEntryResponse]{
		Items:  dto.CashBookEntriesFromDomain(entries),
		Limit:  limit,
		Offset: offset,
	})
}

// Summary totals receipts and payments between start and end, which default
// to the first of the current month and today.
func (h *CashBookHandler) Summary(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	summary, err := h.cashBook.Summary(r.Context(), chi.URLParam(r, "branchID"), start, end)
	if err != nil {
		writeDomainError(w, "failed to summarize cash book", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CashBookSummaryFromDomain(summary))
}

// Verify replays a branch's running balances.
func (h *CashBookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	v, err := h.cashBook.VerifyBranch(r.Context(), chi.URLParam(r, "branchID"))
	if err != nil {
		writeDomainError(w, "failed to verify cash book", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CashBookVerificationFromDomain(v))
}

func (h *CashBookHandler) dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	today := domain.DateOf(h.now())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	start, err := parseDateQuery(r, "start", monthStart)
	if err != nil {
		writeDomainError(w, "invalid start date", err)
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDateQuery(r, "end", today)
	if err != nil {
		writeDomainError(w, "invalid end date", err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
