package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// CreateTransactionInput 新增交易的參數
type CreateTransactionInput struct {
	// AccountID 為 nil 時建立獨立交易，不影響任何餘額
	AccountID   *uuid.UUID
	Type        domain.TransactionType
	Magnitude   decimal.Decimal
	Date        time.Time
	Description string
}

// TransactionResult 交易操作的結果
// Account 為 nil 代表沒有帳戶被修改 (獨立交易，或編輯後 delta 為 0)
type TransactionResult struct {
	Transaction *domain.Transaction
	Account     *domain.Account
}

// TransactionCoordinator 負責交易與帳戶餘額的一致性
//
// 每個操作都在一個 unit of work 內完成: 先鎖定帳戶，再讀取 / 寫入交易，
// 任何錯誤都會讓整個 unit 回滾。
type TransactionCoordinator struct {
	store Store
	opts  options
}

func NewTransactionCoordinator(store Store, opts ...Option) *TransactionCoordinator {
	return &TransactionCoordinator{
		store: store,
		opts:  newOptions(opts),
	}
}

// Create 新增交易並套用餘額變動
//
// 參數:
//
//	ctx: 上下文
//	in: 交易內容
//
// 回傳:
//
//	*TransactionResult: 新的交易，以及更新後的帳戶 (獨立交易時為 nil)
//	error: ErrAccountNotFound / ErrInsufficientFunds / 驗證錯誤 / 儲存層錯誤
func (c *TransactionCoordinator) Create(ctx context.Context, in CreateTransactionInput) (*TransactionResult, error) {
	now := c.opts.now()
	tran, err := domain.NewTransaction(in.AccountID, in.Type, in.Magnitude, in.Date, in.Description, now)
	if err != nil {
		return nil, err
	}

	var result *TransactionResult
	err = c.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if !tran.HasAccount() {
			if err := uow.SaveTransaction(ctx, tran); err != nil {
				return err
			}
			result = &TransactionResult{Transaction: tran.Clone()}
			return nil
		}

		account, err := uow.GetAccount(ctx, *tran.AccountID)
		if err != nil {
			return err
		}
		if err := account.ApplyDelta(domain.CreateDelta(tran), now); err != nil {
			return err
		}
		if err := uow.SaveTransaction(ctx, tran); err != nil {
			return err
		}
		if err := uow.SaveAccount(ctx, account); err != nil {
			return err
		}
		result = &TransactionResult{Transaction: tran.Clone(), Account: account.Clone()}
		return nil
	})
	if err != nil {
		c.logFailure("create transaction", err,
			zap.Stringer("type", in.Type),
			zap.String("magnitude", in.Magnitude.String()),
			accountField(in.AccountID),
		)
		return nil, err
	}

	c.opts.logger.Debug("transaction created",
		zap.Stringer("transaction_id", result.Transaction.ID),
		accountField(result.Transaction.AccountID),
	)
	return result, nil
}

// Get 查詢交易 (不加鎖)
func (c *TransactionCoordinator) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return c.store.GetTransaction(ctx, id)
}

// Credit 對帳戶入帳 (Create 的帳戶版捷徑)
func (c *TransactionCoordinator) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, date time.Time, description string) (*TransactionResult, error) {
	return c.Create(ctx, CreateTransactionInput{
		AccountID:   &accountID,
		Type:        domain.TransactionTypeCredit,
		Magnitude:   amount,
		Date:        date,
		Description: description,
	})
}

// Debit 對帳戶出帳，餘額不足時回傳 ErrInsufficientFunds
func (c *TransactionCoordinator) Debit(ctx context.Context, accountID uuid.UUID, cost decimal.Decimal, date time.Time, description string) (*TransactionResult, error) {
	return c.Create(ctx, CreateTransactionInput{
		AccountID:   &accountID,
		Type:        domain.TransactionTypeDebit,
		Magnitude:   cost,
		Date:        date,
		Description: description,
	})
}

// Edit 編輯交易並套用金額差異
//
// delta 為 0 時不寫入帳戶 (避免無意義的 UpdatedAt 變動)，結果的 Account 也為 nil。
func (c *TransactionCoordinator) Edit(ctx context.Context, id uuid.UUID, edit domain.TransactionEdit) (*TransactionResult, error) {
	if edit.Empty() {
		return nil, domain.NewValidationError("edit", "at least one field must be provided")
	}

	var result *TransactionResult
	err := c.withTransaction(ctx, id, func(ctx context.Context, uow UnitOfWork, current *domain.Transaction, account *domain.Account) error {
		now := c.opts.now()
		updated, err := current.Apply(edit, now)
		if err != nil {
			return err
		}

		if account == nil {
			if err := uow.SaveTransaction(ctx, updated); err != nil {
				return err
			}
			result = &TransactionResult{Transaction: updated.Clone()}
			return nil
		}

		delta := domain.EditDelta(current, updated)
		if !account.CanApply(delta) {
			return domain.ErrInsufficientFunds
		}
		if err := uow.SaveTransaction(ctx, updated); err != nil {
			return err
		}
		result = &TransactionResult{Transaction: updated.Clone()}
		if delta.IsZero() {
			return nil
		}
		if err := account.ApplyDelta(delta, now); err != nil {
			return err
		}
		if err := uow.SaveAccount(ctx, account); err != nil {
			return err
		}
		result.Account = account.Clone()
		return nil
	})
	if err != nil {
		c.logFailure("edit transaction", err, zap.Stringer("transaction_id", id))
		return nil, err
	}
	return result, nil
}

// Delete 刪除交易並反轉其對餘額的影響
//
// 反轉會讓餘額變負數時拒絕刪除 (ErrInsufficientFunds)。
// 結果的 Transaction 為被刪除的交易。
func (c *TransactionCoordinator) Delete(ctx context.Context, id uuid.UUID) (*TransactionResult, error) {
	var result *TransactionResult
	err := c.withTransaction(ctx, id, func(ctx context.Context, uow UnitOfWork, current *domain.Transaction, account *domain.Account) error {
		if account == nil {
			if err := uow.DeleteTransaction(ctx, id); err != nil {
				return err
			}
			result = &TransactionResult{Transaction: current.Clone()}
			return nil
		}

		if err := account.ApplyDelta(domain.DeleteDelta(current), c.opts.now()); err != nil {
			return err
		}
		if err := uow.SaveAccount(ctx, account); err != nil {
			return err
		}
		if err := uow.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		result = &TransactionResult{Transaction: current.Clone(), Account: account.Clone()}
		return nil
	})
	if err != nil {
		c.logFailure("delete transaction", err, zap.Stringer("transaction_id", id))
		return nil, err
	}
	return result, nil
}

// withTransaction 在 unit 內依序鎖定帳戶與交易後呼叫 fn
//
// 先以不加鎖的讀取得知交易所屬帳戶，進入 unit 後先鎖帳戶再重新讀交易，
// 所有 unit 的加鎖順序都是 帳戶 -> 交易。
// 帳戶參照懸空時回傳 ErrAccountNotFound；獨立交易時 account 為 nil。
func (c *TransactionCoordinator) withTransaction(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, uow UnitOfWork, current *domain.Transaction, account *domain.Account) error) error {
	peek, err := c.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	return c.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var account *domain.Account
		if peek.AccountID != nil {
			a, err := uow.GetAccount(ctx, *peek.AccountID)
			if err != nil {
				return err
			}
			account = a
		}

		current, err := uow.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, uow, current, account)
	})
}

func (c *TransactionCoordinator) logFailure(op string, err error, fields ...zap.Field) {
	logFailure(c.opts.logger, op, err, fields...)
}

func logFailure(logger *zap.Logger, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.Stringer("kind", domain.KindOf(err)))
	if domain.IsExpected(err) {
		logger.Info(op+" rejected", fields...)
		return
	}
	logger.Error(op+" failed", fields...)
}

func accountField(id *uuid.UUID) zap.Field {
	if id == nil {
		return zap.Skip()
	}
	return zap.Stringer("account_id", *id)
}
