package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// AccountService 帳戶的建立、查詢與改名
// 餘額只能透過 TransactionCoordinator 變動
type AccountService struct {
	store Store
	opts  options
}

func NewAccountService(store Store, opts ...Option) *AccountService {
	return &AccountService{
		store: store,
		opts:  newOptions(opts),
	}
}

// Create 建立帳戶，名稱重複時回傳 ErrDuplicateName
func (s *AccountService) Create(ctx context.Context, name string, openingBalance decimal.Decimal) (*domain.Account, error) {
	account, err := domain.NewAccount(name, openingBalance, s.opts.now())
	if err != nil {
		return nil, err
	}

	err = s.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if err := ensureNameFree(ctx, uow, account.Name, account.ID); err != nil {
			return err
		}
		return uow.SaveAccount(ctx, account)
	})
	if err != nil {
		logFailure(s.opts.logger, "create account", err, zap.String("name", account.Name))
		return nil, err
	}

	s.opts.logger.Info("account created",
		zap.Stringer("account_id", account.ID),
		zap.String("balance", account.Balance.String()),
	)
	return account.Clone(), nil
}

// Get 查詢帳戶 (不加鎖)
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// Transactions 查詢帳戶的交易 (不加鎖)
// 帳戶已被刪除 (keep 策略) 時仍會回傳懸空的交易
func (s *AccountService) Transactions(ctx context.Context, id uuid.UUID) ([]*domain.Transaction, error) {
	return s.store.FindTransactionsByAccount(ctx, id)
}

// Rename 修改帳戶名稱
//
// 其他帳戶已使用該名稱時回傳 ErrDuplicateName；改成原本的名稱視為成功且不寫入。
func (s *AccountService) Rename(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error) {
	name, err := domain.NormalizeAccountName(name)
	if err != nil {
		return nil, err
	}

	var result *domain.Account
	err = s.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		account, err := uow.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if account.Name == name {
			result = account
			return nil
		}
		if err := ensureNameFree(ctx, uow, name, id); err != nil {
			return err
		}
		if err := account.Rename(name, s.opts.now()); err != nil {
			return err
		}
		if err := uow.SaveAccount(ctx, account); err != nil {
			return err
		}
		result = account
		return nil
	})
	if err != nil {
		logFailure(s.opts.logger, "rename account", err, zap.Stringer("account_id", id), zap.String("name", name))
		return nil, err
	}
	return result.Clone(), nil
}

// ensureNameFree 檢查名稱是否被「其他」帳戶使用
func ensureNameFree(ctx context.Context, uow UnitOfWork, name string, self uuid.UUID) error {
	other, err := uow.FindAccountByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return domain.ErrDuplicateName
	default:
		return nil
	}
}
