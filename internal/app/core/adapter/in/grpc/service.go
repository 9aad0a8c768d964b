package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName gRPC 服務名稱
const ServiceName = "ledger.v1.LedgerService"

// LedgerServiceServer 帳本服務
// 請求與回應都是 google.protobuf.Struct，金額為字串，日期為 YYYY-MM-DD
type LedgerServiceServer interface {
	CreateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenameAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccountTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreditAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DebitAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryMethod 產生 MethodDesc，行為與 protoc-gen-go-grpc 產生的 handler 相同
func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(LedgerServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerServiceDesc 手寫的 ServiceDesc
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateAccount", LedgerServiceServer.CreateAccount),
		unaryMethod("GetAccount", LedgerServiceServer.GetAccount),
		unaryMethod("RenameAccount", LedgerServiceServer.RenameAccount),
		unaryMethod("DeleteAccount", LedgerServiceServer.DeleteAccount),
		unaryMethod("ListAccountTransactions", LedgerServiceServer.ListAccountTransactions),
		unaryMethod("CreateTransaction", LedgerServiceServer.CreateTransaction),
		unaryMethod("GetTransaction", LedgerServiceServer.GetTransaction),
		unaryMethod("EditTransaction", LedgerServiceServer.EditTransaction),
		unaryMethod("DeleteTransaction", LedgerServiceServer.DeleteTransaction),
		unaryMethod("CreditAccount", LedgerServiceServer.CreditAccount),
		unaryMethod("DebitAccount", LedgerServiceServer.DebitAccount),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger",
}

// RegisterLedgerServiceServer 註冊服務
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}
