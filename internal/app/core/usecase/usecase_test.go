package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
)

var (
	testNow  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testDate = time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewStore()
	require.NoError(t, err)
	return s
}

func newCore(t *testing.T, store usecase.Store, policy domain.DeletionPolicy) *usecase.CoreUseCase {
	t.Helper()
	core, err := usecase.NewCoreUseCase(store, policy, usecase.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return core
}

func createAccount(t *testing.T, core *usecase.CoreUseCase, name, balance string) *domain.Account {
	t.Helper()
	account, err := core.Accounts.Create(context.Background(), name, dec(balance))
	require.NoError(t, err)
	return account
}

func requireBalance(t *testing.T, store usecase.Store, id uuid.UUID, want string) {
	t.Helper()
	account, err := store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	require.Truef(t, account.Balance.Equal(dec(want)), "balance = %s, want %s", account.Balance, want)
}

var errInjected = errors.New("injected store failure")

// failingStore 在指定的寫入操作回傳錯誤，用來驗證 unit 回滾
type failingStore struct {
	usecase.Store
	failOn string
}

func (f *failingStore) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow usecase.UnitOfWork) error) error {
	return f.Store.RunInUnit(ctx, func(ctx context.Context, uow usecase.UnitOfWork) error {
		return fn(ctx, &failingUnit{UnitOfWork: uow, failOn: f.failOn})
	})
}

type failingUnit struct {
	usecase.UnitOfWork
	failOn string
}

func (f *failingUnit) SaveAccount(ctx context.Context, account *domain.Account) error {
	if f.failOn == "SaveAccount" {
		return errInjected
	}
	return f.UnitOfWork.SaveAccount(ctx, account)
}

func (f *failingUnit) SaveTransaction(ctx context.Context, tran *domain.Transaction) error {
	if f.failOn == "SaveTransaction" {
		return errInjected
	}
	return f.UnitOfWork.SaveTransaction(ctx, tran)
}

func (f *failingUnit) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if f.failOn == "DeleteTransaction" {
		return errInjected
	}
	return f.UnitOfWork.DeleteTransaction(ctx, id)
}

func (f *failingUnit) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if f.failOn == "DeleteAccount" {
		return errInjected
	}
	return f.UnitOfWork.DeleteAccount(ctx, id)
}
