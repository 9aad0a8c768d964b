package grpc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
)

// 請求 / 回應欄位名稱
const (
	fieldAccount             = "account"
	fieldAccountID           = "account_id"
	fieldTransaction         = "transaction"
	fieldTransactionID       = "transaction_id"
	fieldTransactions        = "transactions"
	fieldID                  = "id"
	fieldName                = "name"
	fieldBalance             = "balance"
	fieldType                = "type"
	fieldDate                = "date"
	fieldAmount              = "amount"
	fieldCost                = "cost"
	fieldDescription         = "description"
	fieldPolicy              = "policy"
	fieldRemovedTransactions = "removed_transactions"
	fieldCreatedAt           = "created_at"
	fieldUpdatedAt           = "updated_at"
)

// ---- 解碼 ----

func field(in *structpb.Struct, key string) (*structpb.Value, bool) {
	if in == nil {
		return nil, false
	}
	v, ok := in.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func optionalString(in *structpb.Struct, key string) (*string, error) {
	v, ok := field(in, key)
	if !ok {
		return nil, nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return nil, domain.NewValidationError(key, "must be a string")
	}
	return &s.StringValue, nil
}

func requiredString(in *structpb.Struct, key string) (string, error) {
	s, err := optionalString(in, key)
	if err != nil {
		return "", err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		return "", domain.NewValidationError(key, "is required")
	}
	return *s, nil
}

func optionalUUID(in *structpb.Struct, key string) (*uuid.UUID, error) {
	s, err := optionalString(in, key)
	if err != nil || s == nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a uuid")
	}
	return &id, nil
}

func requiredUUID(in *structpb.Struct, key string) (uuid.UUID, error) {
	id, err := optionalUUID(in, key)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, domain.NewValidationError(key, "is required")
	}
	return *id, nil
}

// optionalDecimal 接受字串 ("12.34") 或數字
func optionalDecimal(in *structpb.Struct, key string) (*decimal.Decimal, error) {
	v, ok := field(in, key)
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return nil, domain.NewValidationError(key, "must be a decimal number")
		}
		return &d, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return nil, domain.NewValidationError(key, "must be a finite number")
		}
		d := decimal.NewFromFloat(kind.NumberValue)
		return &d, nil
	default:
		return nil, domain.NewValidationError(key, "must be a decimal number")
	}
}

func optionalDate(in *structpb.Struct, key string) (*time.Time, error) {
	s, err := optionalString(in, key)
	if err != nil || s == nil {
		return nil, err
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func requiredDate(in *structpb.Struct, key string) (time.Time, error) {
	d, err := optionalDate(in, key)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, domain.NewValidationError(key, "is required")
	}
	return *d, nil
}

// decodeCreateTransaction credit 帶 amount，debit 帶 cost
func decodeCreateTransaction(in *structpb.Struct) (usecase.CreateTransactionInput, error) {
	var out usecase.CreateTransactionInput

	typ, err := requiredString(in, fieldType)
	if err != nil {
		return out, err
	}
	if out.Type, err = domain.ParseTransactionType(typ); err != nil {
		return out, err
	}
	if out.AccountID, err = optionalUUID(in, fieldAccountID); err != nil {
		return out, err
	}
	amount, err := optionalDecimal(in, fieldAmount)
	if err != nil {
		return out, err
	}
	cost, err := optionalDecimal(in, fieldCost)
	if err != nil {
		return out, err
	}
	switch out.Type {
	case domain.TransactionTypeCredit:
		if cost != nil {
			return out, domain.NewValidationError(fieldCost, "not allowed on a credit transaction")
		}
		if amount == nil {
			return out, domain.NewValidationError(fieldAmount, "is required")
		}
		out.Magnitude = *amount
	case domain.TransactionTypeDebit:
		if amount != nil {
			return out, domain.NewValidationError(fieldAmount, "not allowed on a debit transaction")
		}
		if cost == nil {
			return out, domain.NewValidationError(fieldCost, "is required")
		}
		out.Magnitude = *cost
	}
	if out.Date, err = requiredDate(in, fieldDate); err != nil {
		return out, err
	}
	desc, err := optionalString(in, fieldDescription)
	if err != nil {
		return out, err
	}
	if desc != nil {
		out.Description = *desc
	}
	return out, nil
}

func decodeTransactionEdit(in *structpb.Struct) (domain.TransactionEdit, error) {
	var edit domain.TransactionEdit
	var err error
	if edit.Date, err = optionalDate(in, fieldDate); err != nil {
		return edit, err
	}
	if edit.Amount, err = optionalDecimal(in, fieldAmount); err != nil {
		return edit, err
	}
	if edit.Cost, err = optionalDecimal(in, fieldCost); err != nil {
		return edit, err
	}
	if edit.Description, err = optionalString(in, fieldDescription); err != nil {
		return edit, err
	}
	return edit, nil
}

// ---- 編碼 ----

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func accountValue(a *domain.Account) map[string]any {
	return map[string]any{
		fieldID:        a.ID.String(),
		fieldName:      a.Name,
		fieldBalance:   a.Balance.String(),
		fieldCreatedAt: formatTime(a.CreatedAt),
		fieldUpdatedAt: formatTime(a.UpdatedAt),
	}
}

func transactionValue(t *domain.Transaction) map[string]any {
	v := map[string]any{
		fieldID:          t.ID.String(),
		fieldType:        t.Type.String(),
		fieldDate:        t.Date.Format(domain.DateLayout),
		fieldDescription: t.Description,
		fieldCreatedAt:   formatTime(t.CreatedAt),
		fieldUpdatedAt:   formatTime(t.UpdatedAt),
	}
	if t.Amount != nil {
		v[fieldAmount] = t.Amount.String()
	}
	if t.Cost != nil {
		v[fieldCost] = t.Cost.String()
	}
	if t.AccountID != nil {
		v[fieldAccountID] = t.AccountID.String()
	}
	return v
}

// transactionResultValue Account 為 nil 時不輸出 account 欄位
func transactionResultValue(r *usecase.TransactionResult) map[string]any {
	v := map[string]any{
		fieldTransaction: transactionValue(r.Transaction),
	}
	if r.Account != nil {
		v[fieldAccount] = accountValue(r.Account)
	}
	return v
}

func deletionResultValue(r *usecase.DeletionResult) map[string]any {
	return map[string]any{
		fieldAccount:             accountValue(r.Account),
		fieldPolicy:              r.Policy.String(),
		fieldRemovedTransactions: float64(r.RemovedTransactions),
	}
}

func transactionsValue(trans []*domain.Transaction) map[string]any {
	list := make([]any, 0, len(trans))
	for _, t := range trans {
		list = append(list, transactionValue(t))
	}
	return map[string]any{fieldTransactions: list}
}

// ---- 回應解碼 (Client 使用) ----

func nested(in *structpb.Struct, key string) (*structpb.Struct, bool) {
	v, ok := field(in, key)
	if !ok {
		return nil, false
	}
	s := v.GetStructValue()
	return s, s != nil
}

func parseTimestamp(in *structpb.Struct, key string) (time.Time, error) {
	s, err := optionalString(in, key)
	if err != nil || s == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return t, nil
}

func parseAccount(in *structpb.Struct) (*domain.Account, error) {
	id, err := requiredUUID(in, fieldID)
	if err != nil {
		return nil, err
	}
	balance, err := optionalDecimal(in, fieldBalance)
	if err != nil {
		return nil, err
	}
	a := &domain.Account{ID: id, Name: in.GetFields()[fieldName].GetStringValue()}
	if balance != nil {
		a.Balance = *balance
	}
	if a.CreatedAt, err = parseTimestamp(in, fieldCreatedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTimestamp(in, fieldUpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func parseTransaction(in *structpb.Struct) (*domain.Transaction, error) {
	id, err := requiredUUID(in, fieldID)
	if err != nil {
		return nil, err
	}
	t := &domain.Transaction{ID: id, Description: in.GetFields()[fieldDescription].GetStringValue()}
	if t.Type, err = domain.ParseTransactionType(in.GetFields()[fieldType].GetStringValue()); err != nil {
		return nil, err
	}
	if t.Date, err = requiredDate(in, fieldDate); err != nil {
		return nil, err
	}
	if t.Amount, err = optionalDecimal(in, fieldAmount); err != nil {
		return nil, err
	}
	if t.Cost, err = optionalDecimal(in, fieldCost); err != nil {
		return nil, err
	}
	if t.AccountID, err = optionalUUID(in, fieldAccountID); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTimestamp(in, fieldCreatedAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTimestamp(in, fieldUpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func parseTransactionResult(in *structpb.Struct) (*usecase.TransactionResult, error) {
	tranStruct, ok := nested(in, fieldTransaction)
	if !ok {
		return nil, fmt.Errorf("response is missing %s", fieldTransaction)
	}
	tran, err := parseTransaction(tranStruct)
	if err != nil {
		return nil, err
	}
	result := &usecase.TransactionResult{Transaction: tran}
	if accountStruct, ok := nested(in, fieldAccount); ok {
		if result.Account, err = parseAccount(accountStruct); err != nil {
			return nil, err
		}
	}
	return result, nil
}
