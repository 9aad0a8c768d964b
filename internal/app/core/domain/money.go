package domain

import (
	"github.com/shopspring/decimal"
)

// 金額的精度上限，與 MySQL 的 DECIMAL(20,4) 一致
const (
	MoneyScale     = 4
	MoneyPrecision = 20
)

// maxMoney 整數部分最多 MoneyPrecision-MoneyScale 位
var maxMoney = decimal.New(1, MoneyPrecision-MoneyScale)

// ValidateMoney 檢查金額可以被所有 store 無損保存
func ValidateMoney(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return NewValidationError(field, "must have at most 4 decimal places")
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return NewValidationError(field, "must be less than 10^16")
	}
	return nil
}

// validateMagnitude 交易金額: 正數且符合精度
func validateMagnitude(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrAmountMustBePositive
	}
	return ValidateMoney(field, d)
}
