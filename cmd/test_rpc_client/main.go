package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpc_adapter "github.com/JoeShih716/go-balance-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-balance-ledger/pkg/logger"
	grpcpool "github.com/JoeShih716/go-balance-ledger/pkg/grpc"
)

// 壓測: 對同一個帳戶並發扣款，最後檢查餘額等於 初始餘額 - 成功筆數 * 扣款金額
func main() {
	target := flag.String("target", "localhost:50051", "ledger gRPC address")
	total := flag.Int("n", 10000, "total debit requests")
	concurrency := flag.Int("c", 100, "concurrent requests")
	opening := flag.String("balance", "100000", "opening balance")
	cost := flag.String("cost", "80", "cost of each debit")
	flag.Parse()

	zlog, err := logger.New("info", logger.FormatConsole)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	pool := grpcpool.NewPool(grpcpool.WithInterceptor(slowCallInterceptor(zlog, 500*time.Millisecond)))
	defer pool.Close()

	conn, err := pool.GetConnection(*target)
	if err != nil {
		zlog.Fatal("did not connect", zap.Error(err))
	}
	client := grpc_adapter.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	openingBalance := decimal.RequireFromString(*opening)
	debitCost := decimal.RequireFromString(*cost)

	account, err := client.CreateAccount(ctx, "load-test-"+uuid.NewString()[:8], openingBalance)
	if err != nil {
		zlog.Fatal("create account failed", zap.Error(err))
	}

	var succeeded, rejected, failed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(*total)
	sem := make(chan struct{}, *concurrency)
	today := time.Now().UTC()

	startTime := time.Now()
	for i := 0; i < *total; i++ {
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := client.DebitAccount(ctx, account.ID, debitCost, today, fmt.Sprintf("debit #%d", idx))
			switch status.Code(err) {
			case codes.OK:
				succeeded.Add(1)
			case codes.FailedPrecondition:
				rejected.Add(1)
			default:
				failed.Add(1)
				if idx%1000 == 0 {
					zlog.Warn("debit failed", zap.Int("idx", idx), zap.Error(err))
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	final, err := client.GetAccount(ctx, account.ID)
	if err != nil {
		zlog.Fatal("get account failed", zap.Error(err))
	}
	expected := openingBalance.Sub(debitCost.Mul(decimal.NewFromInt(succeeded.Load())))

	fmt.Printf("Completed %d requests in %v\n", *total, elapsed)
	fmt.Printf("TPS: %.2f\n", float64(*total)/elapsed.Seconds())
	fmt.Printf("Succeeded: %d, Insufficient funds: %d, Failed: %d\n", succeeded.Load(), rejected.Load(), failed.Load())
	fmt.Printf("Final balance: %s (expected %s, consistent=%t)\n", final.Balance, expected, final.Balance.Equal(expected))
}

// slowCallInterceptor 記錄超過門檻的呼叫
func slowCallInterceptor(zlog *zap.Logger, threshold time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		if elapsed := time.Since(start); elapsed > threshold {
			zlog.Warn("slow call", zap.String("method", method), zap.Duration("elapsed", elapsed))
		}
		return err
	}
}
