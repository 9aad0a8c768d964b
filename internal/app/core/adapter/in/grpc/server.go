package grpc

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
)

type GrpcServer struct {
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

// respond 將結果轉成 Struct，錯誤轉成 gRPC status
func respond(v map[string]any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := structpb.NewStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := requiredString(req, fieldName)
	if err != nil {
		return respond(nil, err)
	}
	balance, err := optionalDecimal(req, fieldBalance)
	if err != nil {
		return respond(nil, err)
	}
	opening := decimal.Zero
	if balance != nil {
		opening = *balance
	}

	account, err := s.core.Accounts.Create(ctx, name, opening)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{fieldAccount: accountValue(account)}, nil)
}

func (s *GrpcServer) GetAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldAccountID)
	if err != nil {
		return respond(nil, err)
	}
	account, err := s.core.Accounts.Get(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{fieldAccount: accountValue(account)}, nil)
}

func (s *GrpcServer) RenameAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldAccountID)
	if err != nil {
		return respond(nil, err)
	}
	name, err := requiredString(req, fieldName)
	if err != nil {
		return respond(nil, err)
	}
	account, err := s.core.Accounts.Rename(ctx, id, name)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{fieldAccount: accountValue(account)}, nil)
}

func (s *GrpcServer) DeleteAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldAccountID)
	if err != nil {
		return respond(nil, err)
	}
	result, err := s.core.Deletion.Delete(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(deletionResultValue(result), nil)
}

func (s *GrpcServer) ListAccountTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldAccountID)
	if err != nil {
		return respond(nil, err)
	}
	trans, err := s.core.Accounts.Transactions(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(transactionsValue(trans), nil)
}

func (s *GrpcServer) CreateTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := decodeCreateTransaction(req)
	if err != nil {
		return respond(nil, err)
	}
	result, err := s.core.Transactions.Create(ctx, in)
	if err != nil {
		return respond(nil, err)
	}
	return respond(transactionResultValue(result), nil)
}

func (s *GrpcServer) GetTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldTransactionID)
	if err != nil {
		return respond(nil, err)
	}
	tran, err := s.core.Transactions.Get(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(map[string]any{fieldTransaction: transactionValue(tran)}, nil)
}

func (s *GrpcServer) EditTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldTransactionID)
	if err != nil {
		return respond(nil, err)
	}
	edit, err := decodeTransactionEdit(req)
	if err != nil {
		return respond(nil, err)
	}
	result, err := s.core.Transactions.Edit(ctx, id, edit)
	if err != nil {
		return respond(nil, err)
	}
	return respond(transactionResultValue(result), nil)
}

func (s *GrpcServer) DeleteTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldTransactionID)
	if err != nil {
		return respond(nil, err)
	}
	result, err := s.core.Transactions.Delete(ctx, id)
	if err != nil {
		return respond(nil, err)
	}
	return respond(transactionResultValue(result), nil)
}

func (s *GrpcServer) CreditAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.postToAccount(ctx, req, domain.TransactionTypeCredit, fieldAmount)
}

func (s *GrpcServer) DebitAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.postToAccount(ctx, req, domain.TransactionTypeDebit, fieldCost)
}

// postToAccount CreditAccount / DebitAccount 共用
func (s *GrpcServer) postToAccount(ctx context.Context, req *structpb.Struct, typ domain.TransactionType, magnitudeField string) (*structpb.Struct, error) {
	id, err := requiredUUID(req, fieldAccountID)
	if err != nil {
		return respond(nil, err)
	}
	magnitude, err := optionalDecimal(req, magnitudeField)
	if err != nil {
		return respond(nil, err)
	}
	if magnitude == nil {
		return respond(nil, domain.NewValidationError(magnitudeField, "is required"))
	}
	date, err := requiredDate(req, fieldDate)
	if err != nil {
		return respond(nil, err)
	}
	desc, err := optionalString(req, fieldDescription)
	if err != nil {
		return respond(nil, err)
	}

	in := usecase.CreateTransactionInput{
		AccountID: &id,
		Type:      typ,
		Magnitude: *magnitude,
		Date:      date,
	}
	if desc != nil {
		in.Description = *desc
	}
	result, err := s.core.Transactions.Create(ctx, in)
	if err != nil {
		return respond(nil, err)
	}
	return respond(transactionResultValue(result), nil)
}

var _ LedgerServiceServer = (*GrpcServer)(nil)
