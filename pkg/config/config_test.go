package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "xplus-transactions", cfg.Tables.Transactions)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 10, cfg.SubmissionRateLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "dynamodb")
	t.Setenv("DYNAMODB_LEDGER_TABLE_NAME", "ledger-test")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DriverDynamoDB, cfg.StoreDriver)
	assert.Equal(t, "ledger-test", cfg.Tables.Ledger)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadError(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "soon")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{StoreDriver: "mongo", SubmissionRateLimit: -1}

	err := cfg.ValidateServer()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported STORE_DRIVER "mongo"`)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "PAYSTACK_SECRET_KEY is required")

	cfg = &Config{StoreDriver: DriverPostgres, JWTSecret: "s", PaystackSecretKey: "k"}
	assert.NoError(t, cfg.ValidateServer())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
