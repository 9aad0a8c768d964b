package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-balance-ledger/pkg/mysql"
)

// InnoDB 錯誤代碼
const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// Store MySQL 版的帳本儲存層
// unit of work 對應一個資料庫交易，帳戶與交易的讀取使用 SELECT ... FOR UPDATE
type Store struct {
	reader
}

func NewStore(client *mysql.Client) *Store {
	return &Store{
		reader: reader{db: client.DB()},
	}
}

// Migrate 建立 / 更新資料表
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&sqlAccount{}, &sqlTransaction{}); err != nil {
		return fmt.Errorf("mysql: migrate: %w", err)
	}
	return nil
}

// RunInUnit 在一個資料庫交易內執行 fn
// fn 回傳錯誤或 panic 時 GORM 會 rollback
func (s *Store) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow usecase.UnitOfWork) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &unit{reader: reader{db: tx, lock: true}})
	})
	return translateError(err)
}

// reader Store 與 unit 共用的查詢，lock 為 true 時加上 FOR UPDATE
type reader struct {
	db   *gorm.DB
	lock bool
}

func (r *reader) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *reader) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m sqlAccount
	err := r.query(ctx).Where("id = ?", id.String()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return m.toDomain()
}

// FindAccountByName 不加鎖，名稱唯一性最後由 unique index 保證
func (r *reader) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	var m sqlAccount
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return m.toDomain()
}

func (r *reader) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var m sqlTransaction
	err := r.query(ctx).Where("id = ?", id.String()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return m.toDomain()
}

func (r *reader) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	var models []sqlTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID.String()).
		Order("date DESC").
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, translateError(err)
	}

	result := make([]*domain.Transaction, 0, len(models))
	for i := range models {
		t, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

// unit 資料庫交易內的寫入
type unit struct {
	reader
}

// SaveAccount 先確認是否存在再 INSERT 或 UPDATE
// 不使用 ON DUPLICATE KEY UPDATE，避免名稱衝突時改到別的帳戶
func (u *unit) SaveAccount(ctx context.Context, account *domain.Account) error {
	m := toSQLAccount(account)
	db := u.db.WithContext(ctx)

	var n int64
	if err := db.Model(&sqlAccount{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
		return translateError(err)
	}
	if n == 0 {
		return translateError(db.Create(m).Error)
	}
	err := db.Model(&sqlAccount{}).Where("id = ?", m.ID).Updates(map[string]any{
		"name":       m.Name,
		"balance":    m.Balance,
		"updated_at": m.UpdatedAt,
	}).Error
	return translateError(err)
}

func (u *unit) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	err := u.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&sqlAccount{}).Error
	return translateError(err)
}

func (u *unit) SaveTransaction(ctx context.Context, tran *domain.Transaction) error {
	if err := tran.Validate(); err != nil {
		return err
	}
	m := toSQLTransaction(tran)
	db := u.db.WithContext(ctx)

	var n int64
	if err := db.Model(&sqlTransaction{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
		return translateError(err)
	}
	if n == 0 {
		return translateError(db.Create(m).Error)
	}
	// Select 讓 NULL 與空字串也會被寫入
	err := db.Model(&sqlTransaction{}).
		Where("id = ?", m.ID).
		Select("date", "amount", "cost", "description", "updated_at").
		Updates(m).Error
	return translateError(err)
}

func (u *unit) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	err := u.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&sqlTransaction{}).Error
	return translateError(err)
}

func (u *unit) ExistsTransactionForAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var ids []string
	err := u.db.WithContext(ctx).
		Model(&sqlTransaction{}).
		Where("account_id = ?", accountID.String()).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, translateError(err)
	}
	return len(ids) > 0, nil
}

func (u *unit) DeleteTransactionsForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	res := u.db.WithContext(ctx).Where("account_id = ?", accountID.String()).Delete(&sqlTransaction{})
	if res.Error != nil {
		return 0, translateError(res.Error)
	}
	return res.RowsAffected, nil
}

// translateError 將資料庫錯誤轉成 domain 錯誤
// domain 錯誤 (由 unit 內的 fn 回傳) 原樣回傳
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsExpected(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateName
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDuplicateEntry:
			return domain.ErrDuplicateName
		case errDeadlock, errLockWaitTimeout:
			return fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, myErr.Message)
		}
	}
	return fmt.Errorf("mysql: %w", err)
}

var (
	_ usecase.Store      = (*Store)(nil)
	_ usecase.UnitOfWork = (*unit)(nil)
)
