package usecase

import (
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層，給 driving adapter (gRPC) 使用
type CoreUseCase struct {
	Accounts     *AccountService
	Transactions *TransactionCoordinator
	Deletion     *AccountDeletionResolver
}

// NewCoreUseCase 以同一個 store 組合所有 usecase
//
// 參數:
//
//	store: 帳本儲存層
//	policy: 全域的帳戶刪除策略
//	opts: logger / clock 設定
//
// 回傳:
//
//	*CoreUseCase: 核心 usecase
//	error: policy 不合法時回傳 domain.ErrInvalidPolicy
func NewCoreUseCase(store Store, policy domain.DeletionPolicy, opts ...Option) (*CoreUseCase, error) {
	resolver, err := NewAccountDeletionResolver(store, policy, opts...)
	if err != nil {
		return nil, err
	}
	return &CoreUseCase{
		Accounts:     NewAccountService(store, opts...),
		Transactions: NewTransactionCoordinator(store, opts...),
		Deletion:     resolver,
	}, nil
}
