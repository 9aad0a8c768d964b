package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

func TestAccountService_Create(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	core := newCore(t, store, domain.PolicyKeep)

	account := createAccount(t, core, "  Wallet  ", "12.50")
	assert.Equal(t, "Wallet", account.Name)
	assert.True(t, account.Balance.Equal(dec("12.5")))
	assert.Equal(t, testNow, account.CreatedAt)

	got, err := core.Accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = core.Accounts.Create(ctx, "Wallet", dec("0"))
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = core.Accounts.Create(ctx, " ", dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = core.Accounts.Create(ctx, "Negative", dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAccountService_Rename(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	core := newCore(t, store, domain.PolicyKeep)

	a := createAccount(t, core, "Alpha", "0")
	b := createAccount(t, core, "Beta", "0")

	_, err := core.Accounts.Rename(ctx, a.ID, "Beta")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	got, err := store.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)

	same, err := core.Accounts.Rename(ctx, b.ID, "Beta")
	require.NoError(t, err)
	assert.Equal(t, "Beta", same.Name)

	renamed, err := core.Accounts.Rename(ctx, a.ID, "Gamma")
	require.NoError(t, err)
	assert.Equal(t, "Gamma", renamed.Name)

	// 舊名稱釋出
	_, err = core.Accounts.Rename(ctx, b.ID, "Alpha")
	require.NoError(t, err)

	_, err = core.Accounts.Rename(ctx, uuid.New(), "Delta")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
