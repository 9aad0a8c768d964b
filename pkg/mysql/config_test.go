package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 3307, User: "ledger", Password: "secret", DBName: "books"}
	assert.Equal(t, "ledger:secret@tcp(db:3307)/books?charset=utf8mb4&parseTime=True&loc=UTC", cfg.DSN())
}
