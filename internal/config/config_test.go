package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("LEDGER_OP_TIMEOUT", "")
	t.Setenv("LEDGER_ENFORCE_OWNERSHIP", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Ledger.OpTimeout)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.True(t, cfg.Ledger.EnforceOwnership)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("LEDGER_OP_TIMEOUT", "250ms")
	t.Setenv("LEDGER_ENFORCE_OWNERSHIP", "false")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.OpTimeout)
	assert.False(t, cfg.Ledger.EnforceOwnership)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, GetIntEnv("X_INT", 7))
	assert.Equal(t, time.Minute, GetDurationEnv("X_DUR", time.Minute))
	assert.True(t, GetBoolEnv("X_BOOL", true))
}
