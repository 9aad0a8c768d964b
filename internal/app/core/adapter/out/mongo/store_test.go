package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

func TestDecimal128Conversion(t *testing.T) {
	for _, s := range []string{"0", "1000", "12.3456", "-0.01", "99999999999999.9999"} {
		d := decimal.RequireFromString(s)
		v, err := toDecimal128(d)
		require.NoError(t, err, s)
		back, err := fromDecimal128(v)
		require.NoError(t, err, s)
		assert.Truef(t, back.Equal(d), "got %s, want %s", back, s)
	}
}

func TestTransactionDocument(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	credit, err := domain.NewTransaction(&accountID, domain.TransactionTypeCredit, decimal.RequireFromString("5.25"), now, "gift", now)
	require.NoError(t, err)

	doc, err := toTransactionDocument(credit)
	require.NoError(t, err)
	assert.Equal(t, "credit", doc.Type)
	assert.NotNil(t, doc.Amount)
	assert.Nil(t, doc.Cost)

	back, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, credit.ID, back.ID)
	assert.Equal(t, domain.TransactionTypeCredit, back.Type)
	assert.True(t, back.Amount.Equal(*credit.Amount))
	assert.Equal(t, accountID, *back.AccountID)
	assert.Equal(t, credit.Date, back.Date)
	assert.NoError(t, back.Validate())

	doc.Type = "transfer"
	_, err = doc.toDomain()
	assert.Error(t, err)
}

func TestAccountDocument(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	account, err := domain.NewAccount("Main", decimal.RequireFromString("10.5"), now)
	require.NoError(t, err)

	doc, err := toAccountDocument(account)
	require.NoError(t, err)
	back, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, account.ID, back.ID)
	assert.Equal(t, "Main", back.Name)
	assert.True(t, back.Balance.Equal(account.Balance))
}

func TestTranslateError(t *testing.T) {
	boom := errors.New("boom")

	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(domain.ErrHasTransactions), domain.ErrHasTransactions)
	assert.ErrorIs(t, translateError(context.DeadlineExceeded), context.DeadlineExceeded)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translateError(dup), domain.ErrDuplicateName)

	conflict := mongo.CommandError{Code: codeWriteConflict, Name: "WriteConflict", Labels: []string{labelTransientTransaction}}
	assert.ErrorIs(t, translateError(conflict), domain.ErrConcurrentUpdate)

	wrapped := translateError(boom)
	assert.ErrorIs(t, wrapped, boom)
	assert.Equal(t, domain.KindInternal, domain.KindOf(wrapped))
}
