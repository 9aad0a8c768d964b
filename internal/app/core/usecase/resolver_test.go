package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
)

func seedAccountWithTransactions(t *testing.T, core *usecase.CoreUseCase) (*domain.Account, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	account := createAccount(t, core, "Doomed", "100")
	ids := make([]uuid.UUID, 0, 2)
	for _, amount := range []string{"10", "20"} {
		res, err := core.Transactions.Credit(ctx, account.ID, dec(amount), testDate, "")
		require.NoError(t, err)
		ids = append(ids, res.Transaction.ID)
	}
	return account, ids
}

func TestResolver_Cascade(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	core := newCore(t, store, domain.PolicyCascade)
	account, ids := seedAccountWithTransactions(t, core)
	survivor := createAccount(t, core, "Survivor", "0")
	other, err := core.Transactions.Credit(ctx, survivor.ID, dec("1"), testDate, "")
	require.NoError(t, err)

	res, err := core.Deletion.Delete(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyCascade, res.Policy)
	assert.EqualValues(t, 2, res.RemovedTransactions)
	assert.Equal(t, account.ID, res.Account.ID)

	_, err = store.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	for _, id := range ids {
		_, err = store.GetTransaction(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	}
	_, err = store.GetTransaction(ctx, other.Transaction.ID)
	assert.NoError(t, err)
}

func TestResolver_Deny(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	core := newCore(t, store, domain.PolicyDeny)
	account, ids := seedAccountWithTransactions(t, core)

	_, err := core.Deletion.Delete(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrHasTransactions)
	assert.Equal(t, domain.KindCannotDelete, domain.KindOf(err))

	_, err = store.GetAccount(ctx, account.ID)
	assert.NoError(t, err)
	for _, id := range ids {
		_, err = store.GetTransaction(ctx, id)
		assert.NoError(t, err)
	}

	empty := createAccount(t, core, "Empty", "5")
	_, err = core.Deletion.Delete(ctx, empty.ID)
	require.NoError(t, err)
	_, err = store.GetAccount(ctx, empty.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestResolver_Keep(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	core := newCore(t, store, domain.PolicyKeep)
	account, ids := seedAccountWithTransactions(t, core)

	res, err := core.Deletion.Delete(ctx, account.ID)
	require.NoError(t, err)
	assert.Zero(t, res.RemovedTransactions)

	_, err = store.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	for _, id := range ids {
		tran, err := store.GetTransaction(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, tran.AccountID)
		assert.Equal(t, account.ID, *tran.AccountID)
	}

	// 懸空的交易仍可依原帳戶查詢
	trans, err := core.Accounts.Transactions(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, trans, 2)

	// 名稱釋出後可以再建立同名帳戶
	createAccount(t, core, "Doomed", "0")
}

func TestResolver_NotFound(t *testing.T) {
	core := newCore(t, newStore(t), domain.PolicyCascade)
	_, err := core.Deletion.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestResolver_InvalidPolicy(t *testing.T) {
	_, err := usecase.NewAccountDeletionResolver(newStore(t), domain.DeletionPolicy("archive"))
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)

	_, err = usecase.NewCoreUseCase(newStore(t), "")
	assert.ErrorIs(t, err, domain.ErrInvalidPolicy)
}

func TestResolver_RollbackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	core := newCore(t, store, domain.PolicyCascade)
	account, ids := seedAccountWithTransactions(t, core)

	broken := newCore(t, &failingStore{Store: store, failOn: "DeleteAccount"}, domain.PolicyCascade)
	_, err := broken.Deletion.Delete(ctx, account.ID)
	assert.ErrorIs(t, err, errInjected)

	_, err = store.GetAccount(ctx, account.ID)
	assert.NoError(t, err)
	for _, id := range ids {
		_, err = store.GetTransaction(ctx, id)
		assert.NoError(t, err)
	}
}
