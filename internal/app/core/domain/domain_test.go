package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

func TestAccount_ApplyDelta(t *testing.T) {
	account, err := NewAccount("Main", decimal.NewFromInt(100), testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	require.NoError(t, account.ApplyDelta(decimal.NewFromInt(-100), later))
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, later, account.UpdatedAt)

	err = account.ApplyDelta(decimal.RequireFromString("-0.01"), later.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, later, account.UpdatedAt)

	require.NoError(t, account.ApplyDelta(decimal.Zero, later.Add(time.Hour)))
	assert.Equal(t, later, account.UpdatedAt)
}

func TestAccount_NewAccountValidation(t *testing.T) {
	_, err := NewAccount("", decimal.Zero, testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewAccount(strings.Repeat("x", MaxAccountNameLength+1), decimal.Zero, testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewAccount("Debt", decimal.NewFromInt(-1), testNow)
	assert.ErrorIs(t, err, ErrInvalidInput)

	account, err := NewAccount(" Trimmed ", decimal.Zero, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Trimmed", account.Name)
	assert.NotEqual(t, uuid.Nil, account.ID)
}

func TestAccount_Rename(t *testing.T) {
	account, err := NewAccount("Before", decimal.Zero, testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Minute)
	require.NoError(t, account.Rename(" After ", later))
	assert.Equal(t, "After", account.Name)
	assert.Equal(t, later, account.UpdatedAt)

	assert.ErrorIs(t, account.Rename("", later), ErrInvalidInput)
	assert.Equal(t, "After", account.Name)
}

func TestNewTransaction(t *testing.T) {
	accountID := uuid.New()

	credit, err := NewTransaction(&accountID, TransactionTypeCredit, decimal.NewFromInt(5), testNow, "pay", testNow)
	require.NoError(t, err)
	require.NotNil(t, credit.Amount)
	assert.Nil(t, credit.Cost)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), credit.Date)
	assert.NoError(t, credit.Validate())

	// 呼叫端修改自己的 ID 不影響交易
	accountID = uuid.New()
	assert.NotEqual(t, accountID, *credit.AccountID)

	debit, err := NewTransaction(nil, TransactionTypeDebit, decimal.NewFromInt(5), testNow, "", testNow)
	require.NoError(t, err)
	assert.Nil(t, debit.Amount)
	require.NotNil(t, debit.Cost)
	assert.False(t, debit.HasAccount())

	tests := []struct {
		name      string
		typ       TransactionType
		magnitude decimal.Decimal
		date      time.Time
		desc      string
	}{
		{name: "unknown type", typ: TransactionType(0), magnitude: decimal.NewFromInt(1), date: testNow},
		{name: "zero magnitude", typ: TransactionTypeCredit, magnitude: decimal.Zero, date: testNow},
		{name: "negative magnitude", typ: TransactionTypeDebit, magnitude: decimal.NewFromInt(-3), date: testNow},
		{name: "missing date", typ: TransactionTypeDebit, magnitude: decimal.NewFromInt(3)},
		{name: "long description", typ: TransactionTypeDebit, magnitude: decimal.NewFromInt(3), date: testNow, desc: strings.Repeat("d", MaxDescriptionLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(nil, tt.typ, tt.magnitude, tt.date, tt.desc, testNow)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTransaction_Apply(t *testing.T) {
	credit, err := NewTransaction(nil, TransactionTypeCredit, decimal.NewFromInt(10), testNow, "a", testNow)
	require.NoError(t, err)

	amount := decimal.NewFromInt(25)
	date := testNow.AddDate(0, 0, -7)
	desc := "b"
	later := testNow.Add(time.Hour)
	next, err := credit.Apply(TransactionEdit{Amount: &amount, Date: &date, Description: &desc}, later)
	require.NoError(t, err)
	assert.True(t, next.Amount.Equal(amount))
	assert.Equal(t, TruncateDate(date), next.Date)
	assert.Equal(t, "b", next.Description)
	assert.Equal(t, later, next.UpdatedAt)

	// 原本的交易不變
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "a", credit.Description)

	// 修改輸入指標不影響結果
	amount = decimal.NewFromInt(1)
	assert.True(t, next.Amount.Equal(decimal.NewFromInt(25)))

	cost := decimal.NewFromInt(3)
	_, err = credit.Apply(TransactionEdit{Cost: &cost}, later)
	assert.ErrorIs(t, err, ErrInvalidInput)

	negative := decimal.NewFromInt(-3)
	_, err = credit.Apply(TransactionEdit{Amount: &negative}, later)
	assert.ErrorIs(t, err, ErrAmountMustBePositive)

	_, err = credit.Apply(TransactionEdit{}, later)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransaction_ValidateShape(t *testing.T) {
	v := decimal.NewFromInt(1)
	assert.Error(t, (&Transaction{Type: TransactionTypeCredit, Cost: &v}).Validate())
	assert.Error(t, (&Transaction{Type: TransactionTypeDebit, Amount: &v}).Validate())
	assert.Error(t, (&Transaction{Type: TransactionTypeCredit, Amount: &v, Cost: &v}).Validate())
	assert.NoError(t, (&Transaction{Type: TransactionTypeDebit, Cost: &v}).Validate())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-02-29T23:10:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("29/02/2024")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseTransactionType(t *testing.T) {
	typ, err := ParseTransactionType(" Credit ")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeCredit, typ)

	typ, err = ParseTransactionType("debit")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeDebit, typ)

	_, err = ParseTransactionType("transfer")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseDeletionPolicy(t *testing.T) {
	for in, want := range map[string]DeletionPolicy{
		"cascade": PolicyCascade,
		" DENY ":  PolicyDeny,
		"keep":    PolicyKeep,
	} {
		got, err := ParseDeletionPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "archive", "nullify"} {
		_, err := ParseDeletionPolicy(in)
		assert.ErrorIs(t, err, ErrInvalidPolicy, in)
	}
	assert.True(t, DefaultDeletionPolicy.Valid())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{err: ErrAccountNotFound, want: KindNotFound},
		{err: fmt.Errorf("wrap: %w", ErrTransactionNotFound), want: KindNotFound},
		{err: ErrInsufficientFunds, want: KindInsufficientFunds},
		{err: ErrDuplicateName, want: KindConflict},
		{err: ErrHasTransactions, want: KindCannotDelete},
		{err: ErrInvalidPolicy, want: KindInvalidPolicy},
		{err: NewValidationError("name", "is required"), want: KindInvalidInput},
		{err: ErrAmountMustBePositive, want: KindInvalidInput},
		{err: ErrConcurrentUpdate, want: KindConcurrentUpdate},
		{err: errors.New("disk on fire"), want: KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), tt.err.Error())
	}
	assert.False(t, IsExpected(nil))
	assert.False(t, IsExpected(errors.New("x")))
	assert.True(t, IsExpected(ErrInsufficientFunds))
}
