package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-balance-ledger/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/JoeShih716/go-balance-ledger/internal/app/core/adapter/out/memory"
	mongo_adapter "github.com/JoeShih716/go-balance-ledger/internal/app/core/adapter/out/mongo"
	mysql_adapter "github.com/JoeShih716/go-balance-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-balance-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-balance-ledger/internal/config"
	"github.com/JoeShih716/go-balance-ledger/pkg/logger"
	"github.com/JoeShih716/go-balance-ledger/pkg/mongo"
	"github.com/JoeShih716/go-balance-ledger/pkg/mysql"
	"github.com/JoeShih716/go-balance-ledger/pkg/wal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	policy, _ := cfg.DeletionPolicy()

	// 2. 初始化 Logger
	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// 3. 初始化儲存層 (Driven Adapter)
	store, closeStore, err := openStore(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to open store", zap.String("kind", string(cfg.Store.Kind)), zap.Error(err))
	}
	defer closeStore()

	// 4. 初始化 UseCase
	coreUseCase, err := usecase.NewCoreUseCase(store, policy, usecase.WithLogger(zlog))
	if err != nil {
		zlog.Fatal("Failed to init usecase", zap.Error(err))
	}

	// 5. 初始化 gRPC Adapter (Driving Adapter)
	grpcServer := grpc_adapter.NewGrpcServer(coreUseCase)

	// 6. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		zlog.Fatal("Failed to listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpc_adapter.UnaryLoggingInterceptor(zlog),
		grpc_adapter.UnaryRecoveryInterceptor(zlog),
	))
	grpc_adapter.RegisterLedgerServiceServer(s, grpcServer)
	reflection.Register(s)

	// Graceful Shutdown
	go func() {
		zlog.Info("Starting gRPC server",
			zap.String("addr", cfg.GRPC.Addr),
			zap.String("store", string(cfg.Store.Kind)),
			zap.Stringer("delete_policy", policy),
		)
		if err := s.Serve(lis); err != nil {
			zlog.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")

	s.GracefulStop()
	zlog.Info("Server exited")
}

// openStore 依設定建立儲存層，回傳的 close 函式負責釋放連線 / 檔案
func openStore(cfg *config.Config, zlog *zap.Logger) (usecase.Store, func(), error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		var opts []memory_adapter.Option
		closeFn := func() {}
		if cfg.Store.WALPath != "" {
			walFile, err := wal.NewWAL(cfg.Store.WALPath)
			if err != nil {
				return nil, nil, fmt.Errorf("init wal: %w", err)
			}
			opts = append(opts, memory_adapter.WithWAL(walFile))
			closeFn = func() {
				if err := walFile.Close(); err != nil {
					zlog.Error("Failed to close wal", zap.Error(err))
				}
			}
		}
		store, err := memory_adapter.NewStore(opts...)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		zlog.Info("Memory store ready", zap.String("wal", cfg.Store.WALPath))
		return store, closeFn, nil

	case config.StoreMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL, zlog)
		if err != nil {
			return nil, nil, err
		}
		store := mysql_adapter.NewStore(dbClient)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			_ = dbClient.Close()
			return nil, nil, err
		}
		zlog.Info("Connected to MySQL", zap.String("host", cfg.MySQL.Host), zap.String("db", cfg.MySQL.DBName))
		return store, func() { _ = dbClient.Close() }, nil

	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongoClient, err := mongo.NewClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		store := mongo_adapter.NewStore(mongoClient)
		if err := store.Migrate(ctx); err != nil {
			_ = mongoClient.Close(ctx)
			return nil, nil, err
		}
		zlog.Info("Connected to MongoDB", zap.String("db", cfg.Mongo.Database))
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Close(closeCtx)
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}
