package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
)

// unit 一個 RunInUnit 範圍內的暫存寫入與持有的鎖
// 讀取先看暫存，再看已提交的資料
type unit struct {
	store   *Store
	held    map[string]struct{}
	order   []string
	changes changeSet
}

func newUnit(s *Store) *unit {
	return &unit{
		store: s,
		held:  make(map[string]struct{}),
		changes: changeSet{
			Accounts:     make(map[uuid.UUID]*domain.Account),
			Transactions: make(map[uuid.UUID]*domain.Transaction),
		},
	}
}

func accountKey(id uuid.UUID) string {
	return "account:" + id.String()
}

// transactionKey 有帳戶的交易跟帳戶共用同一把鎖
func transactionKey(tran *domain.Transaction) string {
	if tran.AccountID != nil {
		return accountKey(*tran.AccountID)
	}
	return "transaction:" + tran.ID.String()
}

// lock 同一個 unit 內可重入
func (u *unit) lock(ctx context.Context, key string) error {
	if _, ok := u.held[key]; ok {
		return nil
	}
	if err := u.store.locks.Lock(ctx, key); err != nil {
		return err
	}
	u.held[key] = struct{}{}
	u.order = append(u.order, key)
	return nil
}

func (u *unit) release() {
	for i := len(u.order) - 1; i >= 0; i-- {
		u.store.locks.Unlock(u.order[i])
	}
	u.order = nil
	u.held = make(map[string]struct{})
}

func (u *unit) account(id uuid.UUID) (*domain.Account, bool) {
	if account, staged := u.changes.Accounts[id]; staged {
		return account.Clone(), account != nil
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	account, ok := u.store.accounts[id]
	return account.Clone(), ok
}

func (u *unit) transaction(id uuid.UUID) (*domain.Transaction, bool) {
	if tran, staged := u.changes.Transactions[id]; staged {
		return tran.Clone(), tran != nil
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	tran, ok := u.store.transactions[id]
	return tran.Clone(), ok
}

// GetAccount 鎖定並讀取帳戶
func (u *unit) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	if err := u.lock(ctx, accountKey(id)); err != nil {
		return nil, err
	}
	account, ok := u.account(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (u *unit) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	for _, account := range u.changes.Accounts {
		if account != nil && account.Name == name {
			return account.Clone(), nil
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	id, ok := u.store.names[name]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	// 暫存中已被刪除或改名
	if _, staged := u.changes.Accounts[id]; staged {
		return nil, domain.ErrAccountNotFound
	}
	return u.store.accounts[id].Clone(), nil
}

// GetTransaction 鎖定並讀取交易
// 鎖定後重新讀取，避免拿到等待期間被其他 unit 修改前的版本
func (u *unit) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tran, ok := u.transaction(id)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	if err := u.lock(ctx, transactionKey(tran)); err != nil {
		return nil, err
	}
	tran, ok = u.transaction(id)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return tran, nil
}

func (u *unit) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	result := make([]*domain.Transaction, 0)
	for _, tran := range u.changes.Transactions {
		if tran != nil && belongsTo(tran, accountID) {
			result = append(result, tran.Clone())
		}
	}

	u.store.mu.RLock()
	for id, tran := range u.store.transactions {
		if _, staged := u.changes.Transactions[id]; staged {
			continue
		}
		if belongsTo(tran, accountID) {
			result = append(result, tran.Clone())
		}
	}
	u.store.mu.RUnlock()

	sortTransactions(result)
	return result, nil
}

// SaveAccount 暫存帳戶，名稱已被其他帳戶使用時回傳 ErrDuplicateName
func (u *unit) SaveAccount(ctx context.Context, account *domain.Account) error {
	other, err := u.FindAccountByName(ctx, account.Name)
	if err == nil && other.ID != account.ID {
		return domain.ErrDuplicateName
	}
	u.changes.Accounts[account.ID] = account.Clone()
	return nil
}

func (u *unit) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	u.changes.Accounts[id] = nil
	return nil
}

func (u *unit) SaveTransaction(ctx context.Context, tran *domain.Transaction) error {
	if err := tran.Validate(); err != nil {
		return err
	}
	u.changes.Transactions[tran.ID] = tran.Clone()
	return nil
}

func (u *unit) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	u.changes.Transactions[id] = nil
	return nil
}

// ExistsTransactionForAccount 找到第一筆就回傳，暫存的刪除會遮蔽已提交的交易
func (u *unit) ExistsTransactionForAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	for _, tran := range u.changes.Transactions {
		if tran != nil && belongsTo(tran, accountID) {
			return true, nil
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	for id, tran := range u.store.transactions {
		if _, staged := u.changes.Transactions[id]; staged {
			continue
		}
		if belongsTo(tran, accountID) {
			return true, nil
		}
	}
	return false, nil
}

func (u *unit) DeleteTransactionsForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	trans, err := u.FindTransactionsByAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	for _, tran := range trans {
		u.changes.Transactions[tran.ID] = nil
	}
	return int64(len(trans)), nil
}

var _ usecase.UnitOfWork = (*unit)(nil)
