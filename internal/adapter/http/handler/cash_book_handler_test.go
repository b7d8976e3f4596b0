package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type cashBookServiceStub struct {
	summaryFn func(ctx context.Context, branchID string, start, end time.Time) (*domain.CashBookSummary, error)
	listFn    func(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error)
	rangeFn   func(ctx context.Context, branchID string, start, end time.Time, limit, offset int) ([]*domain.CashBookEntry, error)
	verifyFn  func(ctx context.Context, branchID string) (*domain.CashBookVerification, error)
}

func (s *cashBookServiceStub) Summary(ctx context.Context, branchID string, start, end time.Time) (*domain.CashBookSummary, error) {
	return s.summaryFn(ctx, branchID, start, end)
}

func (s *cashBookServiceStub) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error) {
	return s.listFn(ctx, branchID, limit, offset)
}

func (s *cashBookServiceStub) ListByBranchAndDateRange(ctx context.Context, branchID string, start, end time.Time, limit, offset int) ([]*domain.CashBookEntry, error) {
	return s.rangeFn(ctx, branchID, start, end, limit, offset)
}

func (s *cashBookServiceStub) VerifyBranch(ctx context.Context, branchID string) (*domain.CashBookVerification, error) {
	return s.verifyFn(ctx, branchID)
}

func cashBookRouter(stub *cashBookServiceStub, now time.Time) http.Handler {
	h := NewCashBookHandler(stub)
	h.now = func() time.Time { return now }
	r := chi.NewRouter()
	r.Get("/cash-book/{branchID}", h.List)
	r.Get("/cash-book/{branchID}/summary", h.Summary)
	r.Get("/cash-book/{branchID}/verify", h.Verify)
	return r
}

func TestCashBookHandler_SummaryDefaultsToMonthToDate(t *testing.T) {
	now := time.Date(2024, 8, 20, 18, 0, 0, 0, time.UTC)
	stub := &cashBookServiceStub{
		summaryFn: func(ctx context.Context, branchID string, start, end time.Time) (*domain.CashBookSummary, error) {
			if branchID != "main" || start.Day() != 1 || end.Day() != 20 {
				t.Fatalf("unexpected arguments %s %v %v", branchID, start, end)
			}
			s := domain.NewCashBookSummary(branchID, start, end, decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(3))
			return &s, nil
		},
	}

	rr := httptest.NewRecorder()
	cashBookRouter(stub, now).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cash-book/main/summary", nil))

	var resp dto.CashBookSummaryResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.ClosingBalance.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected closing 12, got %s", resp.ClosingBalance)
	}
}

func TestCashBookHandler_SummaryInvalidRange(t *testing.T) {
	stub := &cashBookServiceStub{
		summaryFn: func(ctx context.Context, branchID string, start, end time.Time) (*domain.CashBookSummary, error) {
			return nil, domain.ErrInvalidDateRange
		},
	}
	rr := httptest.NewRecorder()
	cashBookRouter(stub, time.Now()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cash-book/main/summary?start=2024-08-10&end=2024-08-01", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCashBookHandler_ListChoosesRangeQuery(t *testing.T) {
	var ranged, plain bool
	stub := &cashBookServiceStub{
		listFn: func(ctx context.Context, branchID string, limit, offset int) ([]*domain.CashBookEntry, error) {
			plain = true
			return nil, nil
		},
		rangeFn: func(ctx context.Context, branchID string, start, end time.Time, limit, offset int) ([]*domain.CashBookEntry, error) {
			ranged = true
			return []*domain.CashBookEntry{{ID: "cb-1", BranchID: branchID, Sequence: 1, Debit: decimal.NewFromInt(5), RunningBalance: decimal.NewFromInt(5)}}, nil
		},
	}
	router := cashBookRouter(stub, time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cash-book/main?start=2024-08-01", nil))
	if !ranged || plain {
		t.Fatalf("expected ranged listing")
	}

	var page dto.ListResponse[*dto.CashBookEntryResponse]
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Sequence != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cash-book/main", nil))
	if !plain {
		t.Fatalf("expected plain listing without dates")
	}
}

func TestCashBookHandler_VerifyUnknownBranch(t *testing.T) {
	stub := &cashBookServiceStub{
		verifyFn: func(ctx context.Context, branchID string) (*domain.CashBookVerification, error) {
			return nil, domain.ErrBranchNotFound
		},
	}
	rr := httptest.NewRecorder()
	cashBookRouter(stub, time.Now()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cash-book/ghost/verify", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

type reconciliationServiceStub struct {
	banks    []*domain.BankReconciliation
	branches []string
}

func (s *reconciliationServiceStub) ReconcileAllBanks(ctx context.Context) ([]*domain.BankReconciliation, error) {
	return s.banks, nil
}

func (s *reconciliationServiceStub) VerifyCashBooks(ctx context.Context, branchIDs []string) ([]*domain.CashBookVerification, error) {
	s.branches = branchIDs
	out := make([]*domain.CashBookVerification, len(branchIDs))
	for i, id := range branchIDs {
		out[i] = &domain.CashBookVerification{BranchID: id, Valid: true}
	}
	return out, nil
}

func (s *reconciliationServiceStub) GenerateReconciliationReport(ctx context.Context, branchIDs []string) (*usecase.ReconciliationReport, error) {
	s.branches = branchIDs
	return &usecase.ReconciliationReport{
		TotalBanks:        len(s.banks),
		BankDiscrepancies: []*domain.BankReconciliation{{BankID: "b-2"}},
		BranchesChecked:   len(branchIDs),
	}, nil
}

func TestReconciliationHandler_ReportUsesDefaultBranches(t *testing.T) {
	stub := &reconciliationServiceStub{banks: []*domain.BankReconciliation{{BankID: "b-1", Balanced: true}, {BankID: "b-2"}}}
	h := NewReconciliationHandler(stub, []string{"main", "north"})

	rr := httptest.NewRecorder()
	h.Report(rr, httptest.NewRequest(http.MethodPost, "/reconciliation/report", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(stub.branches) != 2 {
		t.Fatalf("expected default branches, got %v", stub.branches)
	}
	var resp dto.ReconciliationReportResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Consistent || len(resp.BankDiscrepancies) != 1 || resp.BranchesChecked != 2 {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestReconciliationHandler_CashBooksFromQuery(t *testing.T) {
	stub := &reconciliationServiceStub{}
	h := NewReconciliationHandler(stub, []string{"main"})

	rr := httptest.NewRecorder()
	h.CashBooks(rr, httptest.NewRequest(http.MethodGet, "/reconciliation/cash-books?branch_id=a&branch_id=b", nil))

	var page dto.ListResponse[*dto.CashBookVerificationResponse]
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 2 || page.Items[1].BranchID != "b" {
		t.Fatalf("unexpected verifications %+v", page.Items)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{
		"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		"redis":    nil,
	})

	rr := httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rr.Code)
	}

	h = NewHealthHandler(map[string]Pinger{
		"redis": PingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})
	rr = httptest.NewRecorder()
	h.Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on checks, got %d", rr.Code)
	}
}
