package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/cashledger/internal/adapter/repository/memory"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
	"github.com/iho/cashledger/internal/usecase/mocks"
)

func TestCashRegisterUseCase_UnknownBranchTouchesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	branches := mocks.NewMockBranchDirectory(ctrl)
	branches.EXPECT().GetBranch(gomock.Any(), "ghost").Return(nil, domain.ErrBranchNotFound)

	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).Times(0)

	store := memory.NewStore().Ports()
	opts := usecase.Options{IDGen: &seqIDs{}, Retrier: retrier, Logger: zerolog.Nop()}
	cashBook := usecase.NewCashBookUseCase(store, branches, opts)
	uc := usecase.NewCashRegisterUseCase(store, branches, cashBook, usecase.NewBankBalanceTracker(store, opts), opts)

	_, err := uc.Open(context.Background(), usecase.OpenRegisterInput{BranchID: "ghost", OpeningBalance: dec("1")}, cashier)
	if !errors.Is(err, domain.ErrBranchNotFound) {
		t.Fatalf("expected ErrBranchNotFound, got %v", err)
	}
}

func TestCashRegisterUseCase_RunsInsideRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	branches := mocks.NewMockBranchDirectory(ctrl)
	branches.EXPECT().GetBranch(gomock.Any(), testBranch).Return(&domain.Branch{ID: testBranch}, nil)

	attempts := 0
	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, op func() error) error {
		attempts++
		return op()
	})

	ids := mocks.NewMockIDGenerator(ctrl)
	ids.EXPECT().Generate().Return("reg-1")
	ids.EXPECT().Generate().Return("audit-1")
	ids.EXPECT().Generate().Return("event-1")

	store := memory.NewStore().Ports()
	opts := usecase.Options{IDGen: ids, Retrier: retrier, Logger: zerolog.Nop()}
	uc := usecase.NewCashRegisterUseCase(store, branches, usecase.NewCashBookUseCase(store, branches, opts), usecase.NewBankBalanceTracker(store, opts), opts)

	r, err := uc.Open(context.Background(), usecase.OpenRegisterInput{BranchID: testBranch, OpeningBalance: dec("25.00")}, cashier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.ID != "reg-1" {
		t.Fatalf("expected reg-1, got %s", r.ID)
	}
	if attempts != 1 {
		t.Fatalf("expected one retrier attempt, got %d", attempts)
	}

	events, err := store.Outbox.GetByAggregate(context.Background(), domain.AggregateTypeRegister, "reg-1", 10, 0)
	if err != nil {
		t.Fatalf("outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != domain.EventTypeRegisterOpened {
		t.Fatalf("expected register.opened event, got %+v", events)
	}

	logs, err := store.Audit.List(context.Background(), domain.AuditFilter{ResourceID: "reg-1"})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != string(domain.AuditActionRegisterOpen) || logs[0].UserID != cashier.ID {
		t.Fatalf("unexpected audit trail: %+v", logs)
	}
}
