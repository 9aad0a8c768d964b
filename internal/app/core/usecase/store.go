package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// Reader 唯讀查詢
//
// 在 Store 上呼叫時不加鎖；在 UnitOfWork 上呼叫時 GetAccount / GetTransaction 為鎖定讀取
// (同一帳戶的其他 unit 會等待或被拒絕)。
type Reader interface {
	// GetAccount 找不到時回傳 domain.ErrAccountNotFound
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// FindAccountByName 找不到時回傳 domain.ErrAccountNotFound
	FindAccountByName(ctx context.Context, name string) (*domain.Account, error)
	// GetTransaction 找不到時回傳 domain.ErrTransactionNotFound
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// FindTransactionsByAccount 依日期新到舊排序
	FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error)
}

// UnitOfWork 一個原子單位內可用的讀寫操作
// 所有寫入在 RunInUnit 的 fn 成功回傳後才一起提交
type UnitOfWork interface {
	Reader

	// SaveAccount 新增或更新，名稱重複時回傳 domain.ErrDuplicateName
	SaveAccount(ctx context.Context, account *domain.Account) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	// SaveTransaction 新增或更新
	SaveTransaction(ctx context.Context, tran *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ExistsTransactionForAccount(ctx context.Context, accountID uuid.UUID) (bool, error)
	// DeleteTransactionsForAccount 回傳刪除筆數
	DeleteTransactionsForAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// Store 帳本儲存層
type Store interface {
	Reader

	// RunInUnit 在一個原子單位內執行 fn
	//
	// fn 回傳 nil 才提交；回傳錯誤 (或 panic) 時所有寫入都會回滾，
	// 其他讀取者不會看到部分寫入。錯誤原樣回傳 (可用 errors.Is 判斷)。
	RunInUnit(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
