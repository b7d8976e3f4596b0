package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type bankServiceStub struct {
	createFn     func(ctx context.Context, input usecase.CreateBankInput, user domain.User) (*domain.Bank, error)
	getFn        func(ctx context.Context, id string) (*domain.Bank, error)
	listFn       func(ctx context.Context, limit, offset int) ([]*domain.Bank, error)
	listActiveFn func(ctx context.Context) ([]*domain.Bank, error)
	ledgerFn     func(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error)
}

func (s *bankServiceStub) CreateBank(ctx context.Context, input usecase.CreateBankInput, user domain.User) (*domain.Bank, error) {
	return s.createFn(ctx, input, user)
}

func (s *bankServiceStub) UpdateBank(ctx context.Context, input usecase.UpdateBankInput, user domain.User) (*domain.Bank, error) {
	return nil, domain.ErrBankNotFound
}

func (s *bankServiceStub) DeactivateBank(ctx context.Context, id string, user domain.User) (*domain.Bank, error) {
	return &domain.Bank{ID: id}, nil
}

func (s *bankServiceStub) GetBank(ctx context.Context, id string) (*domain.Bank, error) {
	return s.getFn(ctx, id)
}

func (s *bankServiceStub) ListBanks(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *bankServiceStub) ListActiveBanks(ctx context.Context) ([]*domain.Bank, error) {
	return s.listActiveFn(ctx)
}

func (s *bankServiceStub) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1500.25"), nil
}

func (s *bankServiceStub) ListLedger(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error) {
	return s.ledgerFn(ctx, bankID, limit, offset)
}

func (s *bankServiceStub) ReconcileBank(ctx context.Context, bankID string) (*domain.BankReconciliation, error) {
	return &domain.BankReconciliation{BankID: bankID, Balanced: true}, nil
}

func TestBankHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateBankInput
	var actor domain.User
	h := NewBankHandler(&bankServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateBankInput, user domain.User) (*domain.Bank, error) {
			captured, actor = input, user
			return &domain.Bank{ID: "bank-1", Name: input.Name, CurrentBalance: input.OpeningBalance, Active: true}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateBankRequest{Name: "First National", AccountNumber: "001-22", OpeningBalance: "100.10"})
	req := withUser(httptest.NewRequest(http.MethodPost, "/banks", bytes.NewReader(body)))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !captured.OpeningBalance.Equal(decimal.RequireFromString("100.10")) || captured.AccountNumber != "001-22" {
		t.Fatalf("unexpected input %+v", captured)
	}
	if actor.ID != testUser.ID {
		t.Fatalf("expected acting user to be passed through, got %+v", actor)
	}

	var resp dto.BankResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "bank-1" || !resp.CurrentBalance.Equal(decimal.RequireFromString("100.1")) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestBankHandler_Create_RejectsBadAmount(t *testing.T) {
	h := NewBankHandler(&bankServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateBankInput, user domain.User) (*domain.Bank, error) {
			t.Fatal("use case must not be called")
			return nil, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPost, "/banks", bytes.NewBufferString(`{"name":"x","account_number":"1","opening_balance":"ten"}`)))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestBankHandler_Create_RequiresUser(t *testing.T) {
	h := NewBankHandler(&bankServiceStub{})
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/banks", bytes.NewBufferString(`{}`)))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestBankHandler_Get_NotFound(t *testing.T) {
	h := NewBankHandler(&bankServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Bank, error) {
			return nil, domain.ErrBankNotFound
		},
	})

	r := chi.NewRouter()
	r.Get("/banks/{id}", h.Get)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/banks/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var resp dto.ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Kind != string(domain.KindNotFound) {
		t.Fatalf("expected not_found kind, got %+v", resp)
	}
}

func TestBankHandler_Update_MapsNotFound(t *testing.T) {
	h := NewBankHandler(&bankServiceStub{})

	r := chi.NewRouter()
	r.Put("/banks/{id}", h.Update)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodPut, "/banks/b-9", bytes.NewBufferString(`{"name":"n","account_number":"1"}`))))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestBankHandler_List(t *testing.T) {
	var gotLimit, gotOffset int
	h := NewBankHandler(&bankServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.Bank{{ID: "a"}, {ID: "b"}}, nil
		},
		listActiveFn: func(ctx context.Context) ([]*domain.Bank, error) {
			return []*domain.Bank{{ID: "a", Active: true}}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/banks?limit=5&offset=10", nil))
	if gotLimit != 5 || gotOffset != 10 {
		t.Fatalf("unexpected paging %d/%d", gotLimit, gotOffset)
	}
	var page dto.ListResponse[*dto.BankResponse]
	_ = json.NewDecoder(rr.Body).Decode(&page)
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 banks, got %d", len(page.Items))
	}

	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/banks?active=true", nil))
	_ = json.NewDecoder(rr.Body).Decode(&page)
	if len(page.Items) != 1 || !page.Items[0].Active {
		t.Fatalf("expected only the active bank, got %+v", page.Items)
	}
}

func TestBankHandler_TotalBalance(t *testing.T) {
	h := NewBankHandler(&bankServiceStub{})
	rr := httptest.NewRecorder()
	h.TotalBalance(rr, httptest.NewRequest(http.MethodGet, "/banks/total-balance", nil))

	var resp dto.TotalBalanceResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.TotalBalance.Equal(decimal.RequireFromString("1500.25")) {
		t.Fatalf("unexpected total %s", resp.TotalBalance)
	}
}

func TestBankHandler_Ledger(t *testing.T) {
	h := NewBankHandler(&bankServiceStub{
		ledgerFn: func(ctx context.Context, bankID string, limit, offset int) ([]*domain.BankLedgerEntry, error) {
			return []*domain.BankLedgerEntry{{ID: "e1", BankID: bankID, Credit: decimal.NewFromInt(50)}}, nil
		},
	})

	r := chi.NewRouter()
	r.Get("/banks/{id}/ledger", h.Ledger)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/banks/b-1/ledger", nil))

	var page dto.ListResponse[*dto.BankLedgerEntryResponse]
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].BankID != "b-1" {
		t.Fatalf("unexpected ledger page %+v", page)
	}
}
