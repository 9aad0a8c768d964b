package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

func TestTranslateError(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		is   error
	}{
		{name: "domain error passes through", err: domain.ErrInsufficientFunds, is: domain.ErrInsufficientFunds},
		{name: "context canceled", err: context.Canceled, is: context.Canceled},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, is: domain.ErrDuplicateName},
		{name: "duplicate entry", err: &mysqldriver.MySQLError{Number: errDuplicateEntry, Message: "Duplicate entry"}, is: domain.ErrDuplicateName},
		{name: "deadlock", err: fmt.Errorf("commit: %w", &mysqldriver.MySQLError{Number: errDeadlock, Message: "Deadlock found"}), is: domain.ErrConcurrentUpdate},
		{name: "lock wait timeout", err: &mysqldriver.MySQLError{Number: errLockWaitTimeout, Message: "Lock wait timeout"}, is: domain.ErrConcurrentUpdate},
		{name: "unknown wrapped", err: boom, is: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.is)
		})
	}
	assert.NoError(t, translateError(nil))
	assert.Equal(t, domain.KindInternal, domain.KindOf(translateError(boom)))
}

func TestTransactionModel(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	debit, err := domain.NewTransaction(&accountID, domain.TransactionTypeDebit, decimal.RequireFromString("12.3400"), now, "fee", now)
	require.NoError(t, err)

	m := toSQLTransaction(debit)
	assert.False(t, m.Amount.Valid)
	assert.True(t, m.Cost.Valid)
	require.NotNil(t, m.AccountID)
	assert.Equal(t, accountID.String(), *m.AccountID)

	back, err := m.toDomain()
	require.NoError(t, err)
	assert.Nil(t, back.Amount)
	require.NotNil(t, back.Cost)
	assert.True(t, back.Cost.Equal(decimal.RequireFromString("12.34")))
	assert.Equal(t, accountID, *back.AccountID)
	assert.NoError(t, back.Validate())

	standalone, err := domain.NewTransaction(nil, domain.TransactionTypeCredit, decimal.NewFromInt(1), now, "", now)
	require.NoError(t, err)
	m = toSQLTransaction(standalone)
	assert.Nil(t, m.AccountID)
	back, err = m.toDomain()
	require.NoError(t, err)
	assert.False(t, back.HasAccount())

	m.ID = "not-a-uuid"
	_, err = m.toDomain()
	assert.Error(t, err)
}

func TestAccountModel(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	account, err := domain.NewAccount("Main", decimal.RequireFromString("1000.5"), now)
	require.NoError(t, err)

	back, err := toSQLAccount(account).toDomain()
	require.NoError(t, err)
	assert.Equal(t, account, back)
}
