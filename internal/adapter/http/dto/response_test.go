package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

func TestDateJSON(t *testing.T) {
	d := Date(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2024-12-31"` {
		t.Fatalf("Marshal = %s (%v)", b, err)
	}

	var back Date
	if err := json.Unmarshal([]byte(`"2025-01-02"`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if time.Time(back).Day() != 2 {
		t.Fatalf("unexpected date %v", time.Time(back))
	}

	if err := json.Unmarshal([]byte(`"02.01.2025"`), &back); err == nil {
		t.Fatal("expected malformed date to fail")
	}
}

func TestRegisterFromDomain(t *testing.T) {
	closing := decimal.RequireFromString("95.50")
	diff := decimal.RequireFromString("-4.50")
	closedBy := "u-2"
	reg := &domain.CashRegister{
		ID:                     "reg-1",
		BranchID:               "main",
		RegisterDate:           time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:                 domain.RegisterStatusClosed,
		OpeningBalance:         decimal.NewFromInt(100),
		ClosingBalance:         &closing,
		ExpectedClosingBalance: decimal.NewFromInt(100),
		Discrepancy:            &diff,
		ClosedBy:               &closedBy,
	}

	b, err := json.Marshal(RegisterFromDomain(reg))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(b)
	for _, want := range []string{`"register_date":"2024-06-03"`, `"discrepancy":"-4.5"`, `"status":"CLOSED"`, `"closed_by":"u-2"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
	if strings.Contains(body, "deposited_bank_id") {
		t.Fatalf("undeposited register should omit deposit fields: %s", body)
	}
}

func TestChequeFromDomainOptionalDates(t *testing.T) {
	deposit := time.Date(2024, 7, 11, 0, 0, 0, 0, time.UTC)
	c := &domain.IncomingCheque{
		ID:          "chq-1",
		Amount:      decimal.NewFromInt(10),
		ChequeDate:  time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		DepositDate: &deposit,
		Status:      domain.ChequeStatusDeposited,
	}

	resp := ChequeFromDomain(c)
	if resp.DepositDate == nil || time.Time(*resp.DepositDate).Day() != 11 {
		t.Fatalf("unexpected deposit date %+v", resp.DepositDate)
	}
	if resp.ClearanceDate != nil || resp.BounceDate != nil {
		t.Fatalf("unset dates must stay nil")
	}

	list := ChequesFromDomain([]*domain.IncomingCheque{c, c})
	if len(list) != 2 {
		t.Fatalf("ChequesFromDomain returned %d items", len(list))
	}
}

func TestRecordTransactionFromResult(t *testing.T) {
	result := &usecase.RecordTransactionResult{
		Register:      &domain.CashRegister{ID: "reg-1"},
		Transaction:   &domain.CashRegisterTransaction{ID: "tx-1", Type: domain.TransactionTypeSale, Direction: domain.DirectionIn},
		CashBookEntry: &domain.CashBookEntry{ID: "cb-1", Debit: decimal.NewFromInt(20)},
	}

	resp := RecordTransactionFromResult(result)
	if resp.Transaction.Type != "SALE" || resp.CashBookEntry.ID != "cb-1" || resp.Register.ID != "reg-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestDepositFromResultWithoutCashBookEntry(t *testing.T) {
	resp := DepositFromResult(&usecase.DepositResult{
		Register:    &domain.CashRegister{ID: "reg-1", Status: domain.RegisterStatusDeposited},
		LedgerEntry: &domain.BankLedgerEntry{ID: "le-1"},
	})
	if resp.CashBookEntry != nil || resp.LedgerEntry.ID != "le-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReconciliationReportFromDomain(t *testing.T) {
	resp := ReconciliationReportFromDomain(&usecase.ReconciliationReport{
		TotalBanks:         3,
		BalancedBanks:      3,
		BranchesChecked:    1,
		CashBookMismatches: []*domain.CashBookVerification{{BranchID: "north", FirstMismatchID: "cb-9"}},
	})
	if resp.TotalBanks != 3 || len(resp.BankDiscrepancies) != 0 || resp.CashBookMismatches[0].FirstMismatchID != "cb-9" {
		t.Fatalf("unexpected report %+v", resp)
	}
}
