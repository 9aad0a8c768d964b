package domain

import "github.com/shopspring/decimal"

// Operation 觸發餘額變動的操作
type Operation uint8

const (
	OperationCreate Operation = iota + 1
	OperationEdit
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationEdit:
		return "edit"
	case OperationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// BalanceDelta 計算一次帳務事件對帳戶餘額的變動量
//
// previous / next 為交易前後的金額 (amount 或 cost)，不存在時傳 0。
// create 忽略 previous，delete 忽略 next。
//
//	credit: next - previous
//	debit:  previous - next
func BalanceDelta(op Operation, typ TransactionType, previous, next decimal.Decimal) decimal.Decimal {
	switch op {
	case OperationCreate:
		previous = decimal.Zero
	case OperationDelete:
		next = decimal.Zero
	case OperationEdit:
	default:
		return decimal.Zero
	}

	switch typ {
	case TransactionTypeCredit:
		return next.Sub(previous)
	case TransactionTypeDebit:
		return previous.Sub(next)
	default:
		return decimal.Zero
	}
}

// CreateDelta 新增交易的變動量
func CreateDelta(t *Transaction) decimal.Decimal {
	return BalanceDelta(OperationCreate, t.Type, decimal.Zero, t.Magnitude())
}

// EditDelta 編輯交易的變動量
func EditDelta(before, after *Transaction) decimal.Decimal {
	return BalanceDelta(OperationEdit, before.Type, before.Magnitude(), after.Magnitude())
}

// DeleteDelta 刪除交易的變動量 (反轉原本的影響)
func DeleteDelta(t *Transaction) decimal.Decimal {
	return BalanceDelta(OperationDelete, t.Type, t.Magnitude(), decimal.Zero)
}
