package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Client 封裝 GORM DB 實例
type Client struct {
	db *gorm.DB
}

// NewClient 連線 MySQL，失敗時依 MaxRetries / RetryInterval 重試
//
// 參數:
//
//	cfg: MySQL 連線配置
//	log: 重試與 SQL log 的輸出，可為 nil
//
// 回傳值:
//
//	*Client: 封裝後的 MySQL 客戶端
//	error: 重試次數用完仍無法連線
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gormConfig := &gorm.Config{
		// 帳務寫入都走明確的 db.Transaction，單筆操作不需要再包一層
		SkipDefaultTransaction: true,
		// 讓 unique index 衝突回傳 gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         newLogger(cfg.LogLevel, log),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	attempts := max(cfg.MaxRetries, 1)
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	var db *gorm.DB
	var err error
	for i := 1; i <= attempts; i++ {
		if db, err = connect(cfg, gormConfig); err == nil {
			break
		}
		if i < attempts {
			log.Warn("failed to connect to mysql, retrying",
				zap.String("host", cfg.Host),
				zap.Int("attempt", i),
				zap.Int("max_retries", attempts),
				zap.Duration("retry_interval", interval),
				zap.Error(err),
			)
			time.Sleep(interval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql after %d attempts: %w", attempts, err)
	}
	return &Client{db: db}, nil
}

// connect 開啟連線、Ping 並套用連線池設定
func connect(cfg Config, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// DB 回傳底層的 *gorm.DB 實例，供 adapter 使用
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 關閉資料庫連線
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newLogger GORM 的 SQL log 輸出到 zap，等級預設 error
func newLogger(level string, log *zap.Logger) logger.Interface {
	logLevel := logger.Error
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "silent":
		logLevel = logger.Silent
	}

	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})
}
