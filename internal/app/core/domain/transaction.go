package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout 交易日期的字串格式 (只取日期)
const DateLayout = "2006-01-02"

// MaxDescriptionLength 描述最大長度 (以 rune 計)
const MaxDescriptionLength = 255

// TransactionType 交易類型
type TransactionType uint8

const (
	// 入帳
	TransactionTypeCredit TransactionType = 1
	// 出帳
	TransactionTypeDebit TransactionType = 2
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeCredit:
		return "credit"
	case TransactionTypeDebit:
		return "debit"
	default:
		return "unknown"
	}
}

// Valid 是否為已知的交易類型
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// ParseTransactionType 由字串解析交易類型 ("credit" / "debit")
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit":
		return TransactionTypeCredit, nil
	case "debit":
		return TransactionTypeDebit, nil
	default:
		return 0, NewValidationError("type", "must be credit or debit")
	}
}

// Transaction 交易紀錄
//
// credit 只有 Amount，debit 只有 Cost。
// AccountID 為弱參照: 帳戶被刪除 (keep 策略) 後仍會保留原本的 ID。
type Transaction struct {
	ID          uuid.UUID
	Type        TransactionType
	Date        time.Time
	Amount      *decimal.Decimal
	Cost        *decimal.Decimal
	Description string
	AccountID   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTransaction 建立一筆新的交易 (尚未寫入)
//
// 參數:
//
//	accountID: 關聯帳戶，可為 nil (獨立交易，不影響任何餘額)
//	typ: 交易類型
//	magnitude: credit 的 amount 或 debit 的 cost，必須為正數
//	date: 交易日期，只保留日期部分
//	description: 描述，可為空字串
//	now: 建立時間
func NewTransaction(accountID *uuid.UUID, typ TransactionType, magnitude decimal.Decimal, date time.Time, description string, now time.Time) (*Transaction, error) {
	if !typ.Valid() {
		return nil, NewValidationError("type", "must be credit or debit")
	}
	if err := validateMagnitude(typ.magnitudeField(), magnitude); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, NewValidationError("date", "is required")
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	m := magnitude
	t := &Transaction{
		ID:          uuid.New(),
		Type:        typ,
		Date:        TruncateDate(date),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if accountID != nil {
		id := *accountID
		t.AccountID = &id
	}
	if typ == TransactionTypeCredit {
		t.Amount = &m
	} else {
		t.Cost = &m
	}
	return t, nil
}

// magnitudeField credit 為 amount，debit 為 cost
func (t TransactionType) magnitudeField() string {
	if t == TransactionTypeDebit {
		return "cost"
	}
	return "amount"
}

// Magnitude 回傳與交易類型對應的金額，未設定時視為 0
func (t *Transaction) Magnitude() decimal.Decimal {
	var v *decimal.Decimal
	if t.Type == TransactionTypeCredit {
		v = t.Amount
	} else {
		v = t.Cost
	}
	if v == nil {
		return decimal.Zero
	}
	return *v
}

// HasAccount 是否關聯帳戶
func (t *Transaction) HasAccount() bool {
	return t.AccountID != nil
}

// Validate 檢查交易的型別不變式
func (t *Transaction) Validate() error {
	switch t.Type {
	case TransactionTypeCredit:
		if t.Amount == nil || t.Cost != nil {
			return NewValidationError("amount", "credit requires amount and no cost")
		}
	case TransactionTypeDebit:
		if t.Cost == nil || t.Amount != nil {
			return NewValidationError("cost", "debit requires cost and no amount")
		}
	default:
		return NewValidationError("type", "must be credit or debit")
	}
	if !t.Magnitude().IsPositive() {
		return ErrAmountMustBePositive
	}
	return validateDescription(t.Description)
}

// Clone 深拷貝，讓 store 與呼叫端不會共用指標
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Amount != nil {
		v := *t.Amount
		cp.Amount = &v
	}
	if t.Cost != nil {
		v := *t.Cost
		cp.Cost = &v
	}
	if t.AccountID != nil {
		v := *t.AccountID
		cp.AccountID = &v
	}
	return &cp
}

// TransactionEdit 可編輯的欄位，nil 代表不修改
// 類型與帳戶在建立後不可變更
type TransactionEdit struct {
	Date        *time.Time
	Amount      *decimal.Decimal
	Cost        *decimal.Decimal
	Description *string
}

// Empty 是否沒有任何欄位
func (e TransactionEdit) Empty() bool {
	return e.Date == nil && e.Amount == nil && e.Cost == nil && e.Description == nil
}

// Apply 套用編輯並回傳新的交易 (原本的交易不變)
//
// 回傳:
//
//	*Transaction: 編輯後的交易
//	error: 驗證錯誤 (例如對 debit 設定 amount)
func (t *Transaction) Apply(edit TransactionEdit, now time.Time) (*Transaction, error) {
	if edit.Empty() {
		return nil, NewValidationError("edit", "at least one field must be provided")
	}
	next := t.Clone()

	switch t.Type {
	case TransactionTypeCredit:
		if edit.Cost != nil {
			return nil, NewValidationError("cost", "cannot set cost on a credit transaction")
		}
		if edit.Amount != nil {
			if err := validateMagnitude("amount", *edit.Amount); err != nil {
				return nil, err
			}
			v := *edit.Amount
			next.Amount = &v
		}
	case TransactionTypeDebit:
		if edit.Amount != nil {
			return nil, NewValidationError("amount", "cannot set amount on a debit transaction")
		}
		if edit.Cost != nil {
			if err := validateMagnitude("cost", *edit.Cost); err != nil {
				return nil, err
			}
			v := *edit.Cost
			next.Cost = &v
		}
	}

	if edit.Date != nil {
		if edit.Date.IsZero() {
			return nil, NewValidationError("date", "is required")
		}
		next.Date = TruncateDate(*edit.Date)
	}
	if edit.Description != nil {
		if err := validateDescription(*edit.Description); err != nil {
			return nil, err
		}
		next.Description = *edit.Description
	}
	next.UpdatedAt = now
	return next, nil
}

// TruncateDate 只保留日期 (UTC 00:00)
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD，也接受 RFC3339
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return TruncateDate(ts), nil
	}
	return time.Time{}, NewValidationError("date", "must be YYYY-MM-DD")
}

func validateDescription(s string) error {
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return NewValidationError("description", "must be at most 255 characters")
	}
	return nil
}
