package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-balance-ledger/pkg/wal"
)

// Store 記憶體版的帳本儲存層
//
// 結構:
//
//	accounts / transactions: 已提交的資料
//	names: 帳戶名稱索引 (唯一)
//	mu: 保護已提交的資料，提交時持有寫鎖
//	locks: unit 內的帳戶鎖，持有到 unit 結束
//	wal: Write-Ahead Log 實例 (可選)
type Store struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]*domain.Account
	names        map[string]uuid.UUID
	transactions map[uuid.UUID]*domain.Transaction
	locks        *keyLocker
	wal          *wal.WAL
}

// Option 設定 Store
type Option func(*Store)

// WithWAL 每次提交前先寫入 WAL，NewStore 時會從 WAL 恢復狀態
func WithWAL(w *wal.WAL) Option {
	return func(s *Store) {
		s.wal = w
	}
}

// NewStore 建立一個新的 Store
//
// 回傳:
//
//	*Store: Store 實例
//	error: WAL 恢復失敗
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		accounts:     make(map[uuid.UUID]*domain.Account),
		names:        make(map[string]uuid.UUID),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		locks:        newKeyLocker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.wal != nil {
		if err := s.recoverFromWAL(); err != nil {
			return nil, fmt.Errorf("recover from wal: %w", err)
		}
	}
	return s, nil
}

// changeSet 一個 unit 提交的內容，也是 WAL 的一筆紀錄
// value 為 nil 代表刪除
type changeSet struct {
	Accounts     map[uuid.UUID]*domain.Account     `json:"accounts,omitempty"`
	Transactions map[uuid.UUID]*domain.Transaction `json:"transactions,omitempty"`
}

func (c *changeSet) empty() bool {
	return len(c.Accounts) == 0 && len(c.Transactions) == 0
}

// recoverFromWAL 依序重播 WAL 的每一筆提交
// 只有 NewStore 呼叫，無需 Lock (單執行緒)
func (s *Store) recoverFromWAL() error {
	return s.wal.ReadAll(func(jsonRaw []byte) error {
		var changes changeSet
		if err := json.Unmarshal(jsonRaw, &changes); err != nil {
			return err
		}
		s.apply(&changes)
		return nil
	})
}

// GetAccount 查詢帳戶 (不加鎖)
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// FindAccountByName 依名稱查詢帳戶
func (s *Store) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.names[name]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

// GetTransaction 查詢交易 (不加鎖)
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tran, ok := s.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return tran.Clone(), nil
}

// FindTransactionsByAccount 查詢帳戶的交易，依日期新到舊
func (s *Store) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.Transaction, 0)
	for _, tran := range s.transactions {
		if belongsTo(tran, accountID) {
			result = append(result, tran.Clone())
		}
	}
	sortTransactions(result)
	return result, nil
}

// RunInUnit 在一個原子單位內執行 fn
//
// 寫入先暫存在 unit 內，fn 成功後在寫鎖下一次提交 (先寫 WAL 再套用)。
// fn 失敗或 panic 時暫存內容直接丟棄，已提交的資料不受影響。
func (s *Store) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow usecase.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := newUnit(s)
	defer u.release()

	if err := fn(ctx, u); err != nil {
		return err
	}
	return s.commit(&u.changes)
}

// commit 檢查名稱唯一性、寫入 WAL 並套用
func (s *Store) commit(changes *changeSet) error {
	if changes.empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNames(changes); err != nil {
		return err
	}

	// 1. 寫入 WAL (Critical Path)
	if s.wal != nil {
		if err := s.wal.Write(changes); err != nil {
			return fmt.Errorf("write wal: %w", err)
		}
	}

	// 2. 套用到記憶體
	s.apply(changes)
	return nil
}

// checkNames 提交後的狀態中，每個名稱只能屬於一個帳戶
// 呼叫時需持有 s.mu
func (s *Store) checkNames(changes *changeSet) error {
	claimed := make(map[string]uuid.UUID)
	for id, account := range changes.Accounts {
		if account == nil {
			continue
		}
		if other, ok := claimed[account.Name]; ok && other != id {
			return domain.ErrDuplicateName
		}
		claimed[account.Name] = id

		owner, ok := s.names[account.Name]
		if !ok || owner == id {
			continue
		}
		// 原擁有者在同一個 unit 內被刪除或改名時可以釋出名稱
		if next, staged := changes.Accounts[owner]; staged && (next == nil || next.Name != account.Name) {
			continue
		}
		return domain.ErrDuplicateName
	}
	return nil
}

// apply 套用變更，呼叫時需持有 s.mu (或在 NewStore 中)
func (s *Store) apply(changes *changeSet) {
	for id, account := range changes.Accounts {
		if old, ok := s.accounts[id]; ok && s.names[old.Name] == id {
			delete(s.names, old.Name)
		}
		if account == nil {
			delete(s.accounts, id)
			continue
		}
		s.accounts[id] = account.Clone()
	}
	for id, account := range changes.Accounts {
		if account != nil {
			s.names[account.Name] = id
		}
	}
	for id, tran := range changes.Transactions {
		if tran == nil {
			delete(s.transactions, id)
			continue
		}
		s.transactions[id] = tran.Clone()
	}
}

func belongsTo(tran *domain.Transaction, accountID uuid.UUID) bool {
	return tran.AccountID != nil && *tran.AccountID == accountID
}

// sortTransactions 依日期新到舊，同日再依建立時間新到舊
func sortTransactions(trans []*domain.Transaction) {
	sort.Slice(trans, func(i, j int) bool {
		if !trans[i].Date.Equal(trans[j].Date) {
			return trans[i].Date.After(trans[j].Date)
		}
		if !trans[i].CreatedAt.Equal(trans[j].CreatedAt) {
			return trans[i].CreatedAt.After(trans[j].CreatedAt)
		}
		return trans[i].ID.String() < trans[j].ID.String()
	})
}

var _ usecase.Store = (*Store)(nil)
