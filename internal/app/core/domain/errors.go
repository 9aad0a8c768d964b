package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAmountMustBePositive 金額必須為正數
	ErrAmountMustBePositive = &ValidationError{Field: "magnitude", Message: "must be positive"}

	// ErrInsufficientFunds 餘額不足 (操作會讓餘額變成負數)
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound 找不到交易
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateName 帳戶名稱已被其他帳戶使用
	ErrDuplicateName = errors.New("account name already exists")

	// ErrHasTransactions 帳戶仍有交易，deny 策略下不可刪除
	ErrHasTransactions = errors.New("cannot delete account with existing transactions")

	// ErrInvalidPolicy 交易刪除策略設定錯誤
	ErrInvalidPolicy = errors.New("invalid transaction delete policy")

	// ErrInvalidInput 輸入驗證失敗，ValidationError 會 unwrap 成這個錯誤
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentUpdate 同一帳戶的並發操作衝突，呼叫端需重試
	ErrConcurrentUpdate = errors.New("concurrent update on the same account, retry")
)

// ValidationError 欄位驗證錯誤
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError 建立欄位驗證錯誤
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ErrorKind 錯誤分類，給 adapter 轉換成對外的狀態碼
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInsufficientFunds
	KindConflict
	KindCannotDelete
	KindInvalidPolicy
	KindInvalidInput
	KindConcurrentUpdate
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindConflict:
		return "conflict"
	case KindCannotDelete:
		return "cannot_delete"
	case KindInvalidPolicy:
		return "invalid_policy"
	case KindInvalidInput:
		return "invalid_input"
	case KindConcurrentUpdate:
		return "concurrent_update"
	default:
		return "internal"
	}
}

// KindOf 將錯誤分類，無法辨識的錯誤一律視為 Internal
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrTransactionNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrDuplicateName):
		return KindConflict
	case errors.Is(err, ErrHasTransactions):
		return KindCannotDelete
	case errors.Is(err, ErrInvalidPolicy):
		return KindInvalidPolicy
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConcurrentUpdate):
		return KindConcurrentUpdate
	default:
		return KindInternal
	}
}

// IsExpected 是否為預期中的業務結果 (非系統錯誤)
func IsExpected(err error) bool {
	return err != nil && KindOf(err) != KindInternal
}
