package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-balance-ledger/pkg/mongo"
	"github.com/JoeShih716/go-balance-ledger/pkg/mysql"
)

// StoreKind 帳本儲存層種類
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreMySQL  StoreKind = "mysql"
	StoreMongo  StoreKind = "mongo"
)

// Config 服務設定
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Ledger LedgerConfig `yaml:"ledger"`
	GRPC   GRPCConfig   `yaml:"grpc"`
	Log    LogConfig    `yaml:"log"`
	MySQL  mysql.Config `yaml:"mysql"`
	Mongo  mongo.Config `yaml:"mongo"`
}

type StoreConfig struct {
	Kind StoreKind `yaml:"kind"`
	// WALPath memory store 的 WAL 檔案，空字串代表不落地
	WALPath string `yaml:"wal_path"`
}

type LedgerConfig struct {
	// TransactionDeletePolicy 刪除帳戶時如何處理其交易: cascade / deny / keep
	TransactionDeletePolicy string `yaml:"transaction_delete_policy"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load 讀取設定
// 順序: yaml 檔 -> .env -> 環境變數覆寫 -> 預設值
//
// 參數:
//
//	path: yaml 檔路徑，檔案不存在時只使用環境變數與預設值
//
// 回傳:
//
//	*Config: 設定
//	error: 檔案格式錯誤或環境變數不合法
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env 不存在是正常的 (正式環境直接使用系統環境變數)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Kind, "LEDGER_STORE")
	setString(&c.Store.WALPath, "WAL_PATH")
	setString(&c.Ledger.TransactionDeletePolicy, "TRANSACTION_DELETE_POLICY")
	setString(&c.GRPC.Addr, "GRPC_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	setString(&c.MySQL.Host, "MYSQL_HOST")
	setString(&c.MySQL.User, "MYSQL_USER")
	setString(&c.MySQL.Password, "MYSQL_PASSWORD")
	setString(&c.MySQL.DBName, "MYSQL_DBNAME")
	if v, ok := lookup("MYSQL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", v, err)
		}
		c.MySQL.Port = port
	}

	setString(&c.Mongo.URI, "MONGODB_URI")
	setString(&c.Mongo.Database, "MONGODB_DATABASE")
	return nil
}

// applyDefaults 補全 yaml 與環境變數都沒有設定的欄位
func (c *Config) applyDefaults() {
	c.Store.Kind = StoreKind(strings.ToLower(strings.TrimSpace(string(c.Store.Kind))))
	if c.Store.Kind == "" {
		c.Store.Kind = StoreMemory
	}
	if c.Ledger.TransactionDeletePolicy == "" {
		c.Ledger.TransactionDeletePolicy = string(domain.DefaultDeletionPolicy)
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 100
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 10
	}
	if c.MySQL.ConnMaxLifetime == 0 {
		c.MySQL.ConnMaxLifetime = 30 * time.Minute
	}

	if c.Mongo.Database == "" {
		c.Mongo.Database = "ledger"
	}
	if c.Mongo.ConnectTimeout == 0 {
		c.Mongo.ConnectTimeout = 10 * time.Second
	}
}

// Validate 啟動前檢查設定
func (c *Config) Validate() error {
	if _, err := c.DeletionPolicy(); err != nil {
		return err
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQL.Host == "" || c.MySQL.DBName == "" {
			return errors.New("mysql store requires mysql.host and mysql.dbname")
		}
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo store requires mongo.uri")
		}
	default:
		return fmt.Errorf("invalid store kind %q", c.Store.Kind)
	}
	return nil
}

// DeletionPolicy 解析帳戶刪除策略
func (c *Config) DeletionPolicy() (domain.DeletionPolicy, error) {
	return domain.ParseDeletionPolicy(c.Ledger.TransactionDeletePolicy)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString[T ~string](dst *T, key string) {
	if v, ok := lookup(key); ok {
		*dst = T(v)
	}
}
