package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config MongoDB 連線配置
// 帳本的 unit of work 使用多文件交易，伺服器必須是 replica set
type Config struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Client 封裝 mongo.Client 與預設資料庫
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewClient 建立連線並 Ping 確認可用
//
// 參數:
//
//	ctx: 上下文 (Ping 使用)
//	cfg: 連線配置
//
// 回傳值:
//
//	*Client: 封裝後的 MongoDB 客戶端
//	error: 連線或 Ping 失敗
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo: database is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Client 回傳底層的 *mongo.Client (開 session 用)
func (c *Client) Client() *mongo.Client {
	return c.client
}

// Database 回傳設定的資料庫
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Close 中斷連線
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
