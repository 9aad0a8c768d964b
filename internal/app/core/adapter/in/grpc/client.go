package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
)

// Client LedgerService 的客戶端，錯誤為 gRPC status (可用 status.Code 判斷)
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invokeAccount(ctx context.Context, method string, req map[string]any) (*domain.Account, error) {
	out, err := c.invoke(ctx, method, req)
	if err != nil {
		return nil, err
	}
	account, ok := nested(out, fieldAccount)
	if !ok {
		return nil, fmt.Errorf("%s response is missing %s", method, fieldAccount)
	}
	return parseAccount(account)
}

func (c *Client) invokeTransaction(ctx context.Context, method string, req map[string]any) (*usecase.TransactionResult, error) {
	out, err := c.invoke(ctx, method, req)
	if err != nil {
		return nil, err
	}
	return parseTransactionResult(out)
}

func (c *Client) CreateAccount(ctx context.Context, name string, openingBalance decimal.Decimal) (*domain.Account, error) {
	return c.invokeAccount(ctx, "CreateAccount", map[string]any{
		fieldName:    name,
		fieldBalance: openingBalance.String(),
	})
}

func (c *Client) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return c.invokeAccount(ctx, "GetAccount", map[string]any{fieldAccountID: id.String()})
}

func (c *Client) RenameAccount(ctx context.Context, id uuid.UUID, name string) (*domain.Account, error) {
	return c.invokeAccount(ctx, "RenameAccount", map[string]any{
		fieldAccountID: id.String(),
		fieldName:      name,
	})
}

func (c *Client) DeleteAccount(ctx context.Context, id uuid.UUID) (*usecase.DeletionResult, error) {
	out, err := c.invoke(ctx, "DeleteAccount", map[string]any{fieldAccountID: id.String()})
	if err != nil {
		return nil, err
	}
	accountStruct, ok := nested(out, fieldAccount)
	if !ok {
		return nil, fmt.Errorf("DeleteAccount response is missing %s", fieldAccount)
	}
	account, err := parseAccount(accountStruct)
	if err != nil {
		return nil, err
	}
	fields := out.GetFields()
	return &usecase.DeletionResult{
		Account:             account,
		Policy:              domain.DeletionPolicy(fields[fieldPolicy].GetStringValue()),
		RemovedTransactions: int64(fields[fieldRemovedTransactions].GetNumberValue()),
	}, nil
}

func (c *Client) ListAccountTransactions(ctx context.Context, id uuid.UUID) ([]*domain.Transaction, error) {
	out, err := c.invoke(ctx, "ListAccountTransactions", map[string]any{fieldAccountID: id.String()})
	if err != nil {
		return nil, err
	}
	values := out.GetFields()[fieldTransactions].GetListValue().GetValues()
	result := make([]*domain.Transaction, 0, len(values))
	for _, v := range values {
		t, err := parseTransaction(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func (c *Client) CreateTransaction(ctx context.Context, in usecase.CreateTransactionInput) (*usecase.TransactionResult, error) {
	req := map[string]any{
		fieldType:        in.Type.String(),
		fieldDate:        in.Date.Format(domain.DateLayout),
		fieldDescription: in.Description,
	}
	if in.Type == domain.TransactionTypeDebit {
		req[fieldCost] = in.Magnitude.String()
	} else {
		req[fieldAmount] = in.Magnitude.String()
	}
	if in.AccountID != nil {
		req[fieldAccountID] = in.AccountID.String()
	}
	return c.invokeTransaction(ctx, "CreateTransaction", req)
}

func (c *Client) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	out, err := c.invoke(ctx, "GetTransaction", map[string]any{fieldTransactionID: id.String()})
	if err != nil {
		return nil, err
	}
	tran, ok := nested(out, fieldTransaction)
	if !ok {
		return nil, fmt.Errorf("GetTransaction response is missing %s", fieldTransaction)
	}
	return parseTransaction(tran)
}

func (c *Client) EditTransaction(ctx context.Context, id uuid.UUID, edit domain.TransactionEdit) (*usecase.TransactionResult, error) {
	req := map[string]any{fieldTransactionID: id.String()}
	if edit.Date != nil {
		req[fieldDate] = edit.Date.Format(domain.DateLayout)
	}
	if edit.Amount != nil {
		req[fieldAmount] = edit.Amount.String()
	}
	if edit.Cost != nil {
		req[fieldCost] = edit.Cost.String()
	}
	if edit.Description != nil {
		req[fieldDescription] = *edit.Description
	}
	return c.invokeTransaction(ctx, "EditTransaction", req)
}

func (c *Client) DeleteTransaction(ctx context.Context, id uuid.UUID) (*usecase.TransactionResult, error) {
	return c.invokeTransaction(ctx, "DeleteTransaction", map[string]any{fieldTransactionID: id.String()})
}

func (c *Client) CreditAccount(ctx context.Context, id uuid.UUID, amount decimal.Decimal, date time.Time, description string) (*usecase.TransactionResult, error) {
	return c.invokeTransaction(ctx, "CreditAccount", map[string]any{
		fieldAccountID:   id.String(),
		fieldAmount:      amount.String(),
		fieldDate:        date.Format(domain.DateLayout),
		fieldDescription: description,
	})
}

func (c *Client) DebitAccount(ctx context.Context, id uuid.UUID, cost decimal.Decimal, date time.Time, description string) (*usecase.TransactionResult, error) {
	return c.invokeTransaction(ctx, "DebitAccount", map[string]any{
		fieldAccountID:   id.String(),
		fieldCost:        cost.String(),
		fieldDate:        date.Format(domain.DateLayout),
		fieldDescription: description,
	})
}
