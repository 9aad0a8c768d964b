package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

// toStatus 將 usecase 回傳的錯誤轉成 gRPC status
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codeOf(domain.KindOf(err)), err.Error())
}

func codeOf(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindInsufficientFunds, domain.KindCannotDelete, domain.KindInvalidPolicy:
		return codes.FailedPrecondition
	case domain.KindConflict:
		return codes.AlreadyExists
	case domain.KindInvalidInput:
		return codes.InvalidArgument
	case domain.KindConcurrentUpdate:
		return codes.Aborted
	default:
		return codes.Internal
	}
}
