package mysql

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID        string          `gorm:"primaryKey;type:char(36)"`
	Name      string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime:false"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表
// credit 只有 amount，debit 只有 cost，另一欄為 NULL
type sqlTransaction struct {
	ID          string              `gorm:"primaryKey;type:char(36)"`
	Type        uint8               `gorm:"not null"`
	Date        time.Time           `gorm:"type:date;not null"`
	Amount      decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	Cost        decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	Description string              `gorm:"type:varchar(255);not null;default:''"`
	AccountID   *string             `gorm:"type:char(36);index"`
	CreatedAt   time.Time           `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime:false"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

func toSQLAccount(a *domain.Account) *sqlAccount {
	return &sqlAccount{
		ID:        a.ID.String(),
		Name:      a.Name,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *sqlAccount) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse account id %q: %w", m.ID, err)
	}
	return &domain.Account{
		ID:        id,
		Name:      m.Name,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}, nil
}

func toSQLTransaction(t *domain.Transaction) *sqlTransaction {
	m := &sqlTransaction{
		ID:          t.ID.String(),
		Type:        uint8(t.Type),
		Date:        t.Date,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Amount != nil {
		m.Amount = decimal.NewNullDecimal(*t.Amount)
	}
	if t.Cost != nil {
		m.Cost = decimal.NewNullDecimal(*t.Cost)
	}
	if t.AccountID != nil {
		id := t.AccountID.String()
		m.AccountID = &id
	}
	return m
}

func (m *sqlTransaction) toDomain() (*domain.Transaction, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse transaction id %q: %w", m.ID, err)
	}
	t := &domain.Transaction{
		ID:          id,
		Type:        domain.TransactionType(m.Type),
		Date:        domain.TruncateDate(m.Date),
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if m.Amount.Valid {
		v := m.Amount.Decimal
		t.Amount = &v
	}
	if m.Cost.Valid {
		v := m.Cost.Decimal
		t.Cost = &v
	}
	if m.AccountID != nil {
		accountID, err := uuid.Parse(*m.AccountID)
		if err != nil {
			return nil, fmt.Errorf("parse account id %q: %w", *m.AccountID, err)
		}
		t.AccountID = &accountID
	}
	return t, nil
}
