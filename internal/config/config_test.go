package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-balance-ledger/internal/app/core/domain"
)

var envKeys = []string{
	"LEDGER_STORE", "WAL_PATH", "TRANSACTION_DELETE_POLICY", "GRPC_ADDR", "LOG_LEVEL", "LOG_FORMAT",
	"MYSQL_HOST", "MYSQL_PORT", "MYSQL_USER", "MYSQL_PASSWORD", "MYSQL_DBNAME",
	"MONGODB_URI", "MONGODB_DATABASE",
}

// clearEnv 避免測試受執行環境的變數影響
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, 100, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 10, cfg.MySQL.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.MySQL.ConnMaxLifetime)

	policy, err := cfg.DeletionPolicy()
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyKeep, policy)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
store:
  kind: MySQL
ledger:
  transaction_delete_policy: cascade
mysql:
  host: db
  dbname: ledger
  conn_max_lifetime: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreMySQL, cfg.Store.Kind)
	assert.Equal(t, "db", cfg.MySQL.Host)
	assert.Equal(t, 5*time.Minute, cfg.MySQL.ConnMaxLifetime)

	policy, err := cfg.DeletionPolicy()
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyCascade, policy)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
ledger:
  transaction_delete_policy: cascade
grpc:
  addr: ":1"
`)
	t.Setenv("TRANSACTION_DELETE_POLICY", "deny")
	t.Setenv("GRPC_ADDR", ":9090")
	t.Setenv("LEDGER_STORE", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://mongo:27017/?replicaSet=rs0")
	t.Setenv("MYSQL_PORT", "3307")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
	assert.Equal(t, StoreMongo, cfg.Store.Kind)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, "ledger", cfg.Mongo.Database)

	policy, err := cfg.DeletionPolicy()
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyDeny, policy)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "store: [not, a, map"))
	assert.Error(t, err)

	t.Setenv("MYSQL_PORT", "abc")
	_, err = Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown policy", mutate: func(c *Config) { c.Ledger.TransactionDeletePolicy = "archive" }},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Kind = "redis" }},
		{name: "mysql without host", mutate: func(c *Config) { c.Store.Kind = StoreMySQL }},
		{name: "mongo without uri", mutate: func(c *Config) { c.Store.Kind = StoreMongo }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Ledger.TransactionDeletePolicy = "archive"
	assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidPolicy)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// 沒有 .env 時只用預設值
	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GRPC_ADDR=\"unterminated\n"), 0o600))
	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, ".env")
}
