package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
	mongopkg "github.com/JoeShih716/go-balance-ledger/pkg/mongo"
)

// Collection 名稱
const (
	colAccounts     = "accounts"
	colTransactions = "transactions"
)

// 伺服器錯誤代碼 / 標籤
const (
	codeWriteConflict         = 112
	labelTransientTransaction = "TransientTransactionError"
)

// lockField unit 內鎖定讀取時遞增的欄位
// 同一份文件被兩個交易同時鎖定時，後到的交易會收到 WriteConflict
const lockField = "lock_seq"

// Store MongoDB 版的帳本儲存層
// unit of work 對應一個 session 內的多文件交易 (需要 replica set)
type Store struct {
	reader
	client *mongo.Client
}

func NewStore(client *mongopkg.Client) *Store {
	return &Store{
		reader: reader{db: client.Database()},
		client: client.Client(),
	}
}

// Migrate 建立索引
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "date", Value: -1}, {Key: "created_at", Value: -1}}},
		},
	}
}

// RunInUnit 在一個多文件交易內執行 fn
//
// fn 回傳錯誤或 panic 時 abort。不使用 WithTransaction 的自動重試，
// 寫入衝突以 ErrConcurrentUpdate 回傳給呼叫端。
func (s *Store) RunInUnit(ctx context.Context, fn func(ctx context.Context, uow usecase.UnitOfWork) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("mongo: start transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sess.AbortTransaction(context.WithoutCancel(ctx))
		}
	}()

	sctx := mongo.NewSessionContext(ctx, sess)
	if err := fn(sctx, &unit{reader: reader{db: s.db, lock: true}}); err != nil {
		return translateError(err)
	}
	if err := sess.CommitTransaction(sctx); err != nil {
		return translateError(err)
	}
	committed = true
	return nil
}

// reader Store 與 unit 共用的查詢
// lock 為 true 時 GetAccount / GetTransaction 會先寫入 lockField 取得文件的寫鎖
type reader struct {
	db   *mongo.Database
	lock bool
}

func (r *reader) accounts() *mongo.Collection {
	return r.db.Collection(colAccounts)
}

func (r *reader) transactions() *mongo.Collection {
	return r.db.Collection(colTransactions)
}

// findOne 鎖定模式下以 FindOneAndUpdate 讀取
func (r *reader) findOne(ctx context.Context, col *mongo.Collection, filter bson.D, out any) error {
	if !r.lock {
		return col.FindOne(ctx, filter).Decode(out)
	}
	return col.FindOneAndUpdate(ctx, filter,
		bson.D{{Key: "$inc", Value: bson.D{{Key: lockField, Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(out)
}

func (r *reader) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var doc accountDocument
	err := r.findOne(ctx, r.accounts(), bson.D{{Key: "_id", Value: id.String()}}, &doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain()
}

func (r *reader) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	var doc accountDocument
	err := r.accounts().FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain()
}

func (r *reader) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var doc transactionDocument
	err := r.findOne(ctx, r.transactions(), bson.D{{Key: "_id", Value: id.String()}}, &doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain()
}

func (r *reader) FindTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Transaction, error) {
	cursor, err := r.transactions().Find(ctx,
		bson.D{{Key: "account_id", Value: accountID.String()}},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, translateError(err)
	}
	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err)
	}

	result := make([]*domain.Transaction, 0, len(docs))
	for i := range docs {
		t, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

// unit session 交易內的寫入
type unit struct {
	reader
}

func (u *unit) SaveAccount(ctx context.Context, account *domain.Account) error {
	doc, err := toAccountDocument(account)
	if err != nil {
		return err
	}
	_, err = u.accounts().ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	return translateError(err)
}

func (u *unit) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := u.accounts().DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	return translateError(err)
}

func (u *unit) SaveTransaction(ctx context.Context, tran *domain.Transaction) error {
	if err := tran.Validate(); err != nil {
		return err
	}
	doc, err := toTransactionDocument(tran)
	if err != nil {
		return err
	}
	_, err = u.transactions().ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	return translateError(err)
}

func (u *unit) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	_, err := u.transactions().DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	return translateError(err)
}

func (u *unit) ExistsTransactionForAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	n, err := u.transactions().CountDocuments(ctx,
		bson.D{{Key: "account_id", Value: accountID.String()}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

func (u *unit) DeleteTransactionsForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	res, err := u.transactions().DeleteMany(ctx, bson.D{{Key: "account_id", Value: accountID.String()}})
	if err != nil {
		return 0, translateError(err)
	}
	return res.DeletedCount, nil
}

// translateError 將 MongoDB 錯誤轉成 domain 錯誤
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsExpected(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateName
	}

	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel(labelTransientTransaction) || se.HasErrorCode(codeWriteConflict)) {
		return fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, err.Error())
	}
	return fmt.Errorf("mongo: %w", err)
}

var (
	_ usecase.Store      = (*Store)(nil)
	_ usecase.UnitOfWork = (*unit)(nil)
)
