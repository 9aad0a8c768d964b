package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxAccountNameLength 帳戶名稱最大長度 (以 rune 計)
const MaxAccountNameLength = 255

// Account 帳戶，Balance 永遠 >= 0
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount 建立帳戶，名稱會先 trim
func NewAccount(name string, openingBalance decimal.Decimal, now time.Time) (*Account, error) {
	name, err := NormalizeAccountName(name)
	if err != nil {
		return nil, err
	}
	if openingBalance.IsNegative() {
		return nil, NewValidationError("balance", "cannot be negative")
	}
	if err := ValidateMoney("balance", openingBalance); err != nil {
		return nil, err
	}
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Balance:   openingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NormalizeAccountName trim 並檢查長度
func NormalizeAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return "", NewValidationError("name", "must be at most 255 characters")
	}
	return name, nil
}

// CanApply 套用 delta 後餘額是否仍 >= 0
func (a *Account) CanApply(delta decimal.Decimal) bool {
	return !a.Balance.Add(delta).IsNegative()
}

// ApplyDelta 套用餘額變動
//
// 參數:
//
//	delta: 正數為入帳，負數為出帳
//	now: 更新時間
//
// 回傳:
//
//	error: 餘額會變負數時回傳 ErrInsufficientFunds，超過金額上限時回傳驗證錯誤，帳戶不變
func (a *Account) ApplyDelta(delta decimal.Decimal, now time.Time) error {
	if !a.CanApply(delta) {
		return ErrInsufficientFunds
	}
	if err := ValidateMoney("balance", a.Balance.Add(delta)); err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = now
	return nil
}

// Rename 修改名稱 (唯一性由 usecase 與 store 檢查)
func (a *Account) Rename(name string, now time.Time) error {
	name, err := NormalizeAccountName(name)
	if err != nil {
		return err
	}
	if name == a.Name {
		return nil
	}
	a.Name = name
	a.UpdatedAt = now
	return nil
}

// Clone 回傳拷貝，避免外部修改 store 內部狀態
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
