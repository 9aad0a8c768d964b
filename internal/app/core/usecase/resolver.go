package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// DeletionResult 刪除帳戶的結果
type DeletionResult struct {
	Account *domain.Account
	Policy  domain.DeletionPolicy
	// RemovedTransactions cascade 策略下被刪除的交易筆數
	RemovedTransactions int64
}

// AccountDeletionResolver 依據全域的刪除策略刪除帳戶
type AccountDeletionResolver struct {
	store  Store
	policy domain.DeletionPolicy
	opts   options
}

// NewAccountDeletionResolver 建立 resolver，策略不在列舉中時回傳 ErrInvalidPolicy
func NewAccountDeletionResolver(store Store, policy domain.DeletionPolicy, opts ...Option) (*AccountDeletionResolver, error) {
	if !policy.Valid() {
		return nil, domain.ErrInvalidPolicy
	}
	return &AccountDeletionResolver{
		store:  store,
		policy: policy,
		opts:   newOptions(opts),
	}, nil
}

// Policy 目前使用的策略
func (r *AccountDeletionResolver) Policy() domain.DeletionPolicy {
	return r.policy
}

// Delete 刪除帳戶
//
//	cascade: 先刪除帳戶所有交易再刪帳戶
//	deny: 有任何交易時回傳 ErrHasTransactions，不刪除任何東西
//	keep: 直接刪除帳戶，交易保留懸空的帳戶參照
func (r *AccountDeletionResolver) Delete(ctx context.Context, accountID uuid.UUID) (*DeletionResult, error) {
	var result *DeletionResult
	err := r.store.RunInUnit(ctx, func(ctx context.Context, uow UnitOfWork) error {
		account, err := uow.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		result = &DeletionResult{Account: account.Clone(), Policy: r.policy}

		switch r.policy {
		case domain.PolicyCascade:
			n, err := uow.DeleteTransactionsForAccount(ctx, accountID)
			if err != nil {
				return err
			}
			result.RemovedTransactions = n
		case domain.PolicyDeny:
			exists, err := uow.ExistsTransactionForAccount(ctx, accountID)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrHasTransactions
			}
		case domain.PolicyKeep:
		default:
			return domain.ErrInvalidPolicy
		}

		return uow.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		logFailure(r.opts.logger, "delete account", err,
			zap.Stringer("account_id", accountID),
			zap.Stringer("policy", r.policy),
		)
		return nil, err
	}

	r.opts.logger.Info("account deleted",
		zap.Stringer("account_id", accountID),
		zap.Stringer("policy", r.policy),
		zap.Int64("removed_transactions", result.RemovedTransactions),
	)
	return result, nil
}
