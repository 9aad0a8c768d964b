package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// accountDocument 對應 accounts collection
type accountDocument struct {
	ID        string          `bson:"_id"`
	Name      string          `bson:"name"`
	Balance   bson.Decimal128 `bson:"balance"`
	CreatedAt time.Time       `bson:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

// transactionDocument 對應 transactions collection
type transactionDocument struct {
	ID          string           `bson:"_id"`
	Type        string           `bson:"type"`
	Date        time.Time        `bson:"date"`
	Amount      *bson.Decimal128 `bson:"amount,omitempty"`
	Cost        *bson.Decimal128 `bson:"cost,omitempty"`
	Description string           `bson:"description"`
	AccountID   *string          `bson:"account_id,omitempty"`
	CreatedAt   time.Time        `bson:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (bson.Decimal128, error) {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		return bson.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v bson.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

func toAccountDocument(a *domain.Account) (*accountDocument, error) {
	balance, err := toDecimal128(a.Balance)
	if err != nil {
		return nil, err
	}
	return &accountDocument{
		ID:        a.ID.String(),
		Name:      a.Name,
		Balance:   balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}, nil
}

func (d *accountDocument) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse account id %q: %w", d.ID, err)
	}
	balance, err := fromDecimal128(d.Balance)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		ID:        id,
		Name:      d.Name,
		Balance:   balance,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func toTransactionDocument(t *domain.Transaction) (*transactionDocument, error) {
	doc := &transactionDocument{
		ID:          t.ID.String(),
		Type:        t.Type.String(),
		Date:        t.Date,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Amount != nil {
		v, err := toDecimal128(*t.Amount)
		if err != nil {
			return nil, err
		}
		doc.Amount = &v
	}
	if t.Cost != nil {
		v, err := toDecimal128(*t.Cost)
		if err != nil {
			return nil, err
		}
		doc.Cost = &v
	}
	if t.AccountID != nil {
		id := t.AccountID.String()
		doc.AccountID = &id
	}
	return doc, nil
}

func (d *transactionDocument) toDomain() (*domain.Transaction, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse transaction id %q: %w", d.ID, err)
	}
	typ, err := domain.ParseTransactionType(d.Type)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	t := &domain.Transaction{
		ID:          id,
		Type:        typ,
		Date:        domain.TruncateDate(d.Date.UTC()),
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.Amount != nil {
		v, err := fromDecimal128(*d.Amount)
		if err != nil {
			return nil, err
		}
		t.Amount = &v
	}
	if d.Cost != nil {
		v, err := fromDecimal128(*d.Cost)
		if err != nil {
			return nil, err
		}
		t.Cost = &v
	}
	if d.AccountID != nil {
		accountID, err := uuid.Parse(*d.AccountID)
		if err != nil {
			return nil, fmt.Errorf("parse account id %q: %w", *d.AccountID, err)
		}
		t.AccountID = &accountID
	}
	return t, nil
}
