package handler

import (
	"bytes"
	"context"
	"encoding/json"
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

type chequeServiceStub struct {
	ChequeService // unimplemented methods panic

	createFn     func(ctx context.Context, input usecase.ChequeInput, user domain.User) (*domain.IncomingCheque, error)
	clearFn      func(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error)
	bounceFn     func(ctx context.Context, input usecase.BounceInput, user domain.User) (*domain.IncomingCheque, error)
	cancelFn     func(ctx context.Context, id, reason string, user domain.User) (*domain.IncomingCheque, error)
	listFn       func(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error)
	statsFn      func(ctx context.Context) (domain.ChequeStatistics, error)
	statsRangeFn func(ctx context.Context, start, end time.Time) (domain.ChequeStatistics, error)
}

func (s *chequeServiceStub) Create(ctx context.Context, input usecase.ChequeInput, user domain.User) (*domain.IncomingCheque, error) {
	return s.createFn(ctx, input, user)
}

func (s *chequeServiceStub) Clear(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error) {
	return s.clearFn(ctx, id, date, user)
}

func (s *chequeServiceStub) Bounce(ctx context.Context, input usecase.BounceInput, user domain.User) (*domain.IncomingCheque, error) {
	return s.bounceFn(ctx, input, user)
}

func (s *chequeServiceStub) Cancel(ctx context.Context, id, reason string, user domain.User) (*domain.IncomingCheque, error) {
	return s.cancelFn(ctx, id, reason, user)
}

func (s *chequeServiceStub) List(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error) {
	return s.listFn(ctx, filter)
}

func (s *chequeServiceStub) Statistics(ctx context.Context) (domain.ChequeStatistics, error) {
	return s.statsFn(ctx)
}

func (s *chequeServiceStub) StatisticsByDateRange(ctx context.Context, start, end time.Time) (domain.ChequeStatistics, error) {
	return s.statsRangeFn(ctx, start, end)
}

var chequeToday = time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)

func chequeRouter(stub *chequeServiceStub) http.Handler {
	h := NewChequeHandler(stub)
	h.now = func() time.Time { return chequeToday }

	r := chi.NewRouter()
	r.Post("/cheques", h.Create)
	r.Get("/cheques", h.List)
	r.Get("/cheques/statistics", h.Statistics)
	r.Post("/cheques/{id}/clear", h.Clear)
	r.Post("/cheques/{id}/bounce", h.Bounce)
	r.Post("/cheques/{id}/cancel", h.Cancel)
	return r
}

func sampleCheque(id string, status domain.ChequeStatus) *domain.IncomingCheque {
	return &domain.IncomingCheque{
		ID:           id,
		ChequeNumber: "000123",
		Amount:       decimal.RequireFromString("250.00"),
		ChequeDate:   time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		BankID:       "bank-1",
		Status:       status,
	}
}

func TestChequeHandler_Create(t *testing.T) {
	stub := &chequeServiceStub{
		createFn: func(ctx context.Context, input usecase.ChequeInput, user domain.User) (*domain.IncomingCheque, error) {
			if input.ChequeNumber != "000123" || input.ChequeDate.Day() != 10 || input.CustomerID == nil {
				t.Fatalf("unexpected input %+v", input)
			}
			return sampleCheque("chq-1", domain.ChequeStatusPending), nil
		},
	}

	body := `{"cheque_number":"000123","amount":"250.00","cheque_date":"2024-07-10","bank_id":"bank-1","customer_id":"cust-4"}`
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques", bytes.NewBufferString(body))))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp dto.ChequeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "PENDING" || resp.DepositDate != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChequeHandler_Create_Duplicate(t *testing.T) {
	stub := &chequeServiceStub{
		createFn: func(ctx context.Context, input usecase.ChequeInput, user domain.User) (*domain.IncomingCheque, error) {
			return nil, domain.ErrDuplicateChequeNumber
		},
	}
	body := `{"cheque_number":"000123","amount":"1","cheque_date":"2024-07-10","bank_id":"bank-1"}`
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques", bytes.NewBufferString(body))))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestChequeHandler_Create_BadDate(t *testing.T) {
	stub := &chequeServiceStub{}
	body := `{"cheque_number":"1","amount":"1","cheque_date":"10/07/2024","bank_id":"bank-1"}`
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques", bytes.NewBufferString(body))))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestChequeHandler_ClearDefaultsToToday(t *testing.T) {
	stub := &chequeServiceStub{
		clearFn: func(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error) {
			if !date.Equal(domain.DateOf(chequeToday)) {
				t.Fatalf("expected today, got %v", date)
			}
			c := sampleCheque(id, domain.ChequeStatusCleared)
			c.ClearanceDate = &date
			return c, nil
		},
	}

	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques/chq-1/clear", nil)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp dto.ChequeResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.ClearanceDate == nil || time.Time(*resp.ClearanceDate).Day() != 15 {
		t.Fatalf("unexpected clearance date %+v", resp.ClearanceDate)
	}
}

func TestChequeHandler_ClearWithExplicitDate(t *testing.T) {
	stub := &chequeServiceStub{
		clearFn: func(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error) {
			if date.Day() != 12 {
				t.Fatalf("expected the 12th, got %v", date)
			}
			return sampleCheque(id, domain.ChequeStatusCleared), nil
		},
	}

	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques/chq-1/clear",
		bytes.NewBufferString(`{"date":"2024-07-12"}`))))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestChequeHandler_ClearWrongState(t *testing.T) {
	stub := &chequeServiceStub{
		clearFn: func(ctx context.Context, id string, date time.Time, user domain.User) (*domain.IncomingCheque, error) {
			return nil, domain.ErrChequeNotDeposited
		},
	}
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques/chq-1/clear", nil)))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestChequeHandler_Bounce(t *testing.T) {
	stub := &chequeServiceStub{
		bounceFn: func(ctx context.Context, input usecase.BounceInput, user domain.User) (*domain.IncomingCheque, error) {
			if input.ChequeID != "chq-2" || input.Reason != "insufficient funds" {
				t.Fatalf("unexpected input %+v", input)
			}
			c := sampleCheque("chq-2", domain.ChequeStatusBounced)
			c.BounceReason = input.Reason
			return c, nil
		},
	}
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques/chq-2/bounce",
		bytes.NewBufferString(`{"reason":"insufficient funds"}`))))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestChequeHandler_CancelWithoutBody(t *testing.T) {
	stub := &chequeServiceStub{
		cancelFn: func(ctx context.Context, id, reason string, user domain.User) (*domain.IncomingCheque, error) {
			if reason != "" {
				t.Fatalf("expected empty reason, got %q", reason)
			}
			return sampleCheque(id, domain.ChequeStatusCancelled), nil
		},
	}
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPost, "/cheques/chq-3/cancel", nil)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestChequeHandler_ListFilter(t *testing.T) {
	stub := &chequeServiceStub{
		listFn: func(ctx context.Context, filter domain.ChequeFilter) ([]*domain.IncomingCheque, error) {
			if filter.Status != domain.ChequeStatusPending || filter.BankID != "bank-1" {
				t.Fatalf("unexpected filter %+v", filter)
			}
			if filter.FromDate == nil || filter.FromDate.Day() != 1 || filter.ToDate != nil {
				t.Fatalf("unexpected date filter %+v", filter)
			}
			return []*domain.IncomingCheque{sampleCheque("chq-1", domain.ChequeStatusPending)}, nil
		},
	}
	rr := httptest.NewRecorder()
	chequeRouter(stub).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cheques?status=pending&bank_id=bank-1&from=2024-07-01", nil))

	var page dto.ListResponse[*dto.ChequeResponse]
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one cheque, got %d", len(page.Items))
	}
}

func TestChequeHandler_Statistics(t *testing.T) {
	stub := &chequeServiceStub{
		statsFn: func(ctx context.Context) (domain.ChequeStatistics, error) {
			return domain.SummarizeCheques([]*domain.IncomingCheque{
				sampleCheque("a", domain.ChequeStatusPending),
				sampleCheque("b", domain.ChequeStatusBounced),
			}), nil
		},
		statsRangeFn: func(ctx context.Context, start, end time.Time) (domain.ChequeStatistics, error) {
			if start.Day() != 1 || !end.Equal(domain.DateOf(chequeToday)) {
				t.Fatalf("unexpected range %v %v", start, end)
			}
			return domain.ChequeStatistics{}, nil
		},
	}
	router := chequeRouter(stub)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cheques/statistics", nil))
	var resp dto.ChequeStatisticsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total.Count != 2 || resp.Bounced.Count != 1 {
		t.Fatalf("unexpected statistics %+v", resp)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cheques/statistics?from=2024-07-01", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
