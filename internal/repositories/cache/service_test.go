package cache

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "account:token_version:42", tokenVersionKey(42))
	assert.Equal(t, "user:email:a@b.c", GenerateKey("user", "email", "a@b.c"))
}

func TestNopCacheAlwaysMisses(t *testing.T) {
	var c TokenVersionCache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.RaiseTokenVersion(ctx, 1, 3))
	_, found, err := c.GetTokenVersion(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

// Runs against a live server when REDIS_TEST_ADDR (host:port) is set.
func TestCacheServiceTokenVersionRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	svc := NewCacheService(NewRedisClient(&RedisConfig{Host: host, Port: port}), time.Minute)
	defer svc.Close()
	ctx := context.Background()
	require.NoError(t, svc.HealthCheck(ctx))

	require.NoError(t, svc.InvalidateTokenVersion(ctx, 7))
	require.NoError(t, svc.RaiseTokenVersion(ctx, 7, 4))
	v, found, err := svc.GetTokenVersion(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, v)

	// A stale fill never lowers the cached version.
	require.NoError(t, svc.RaiseTokenVersion(ctx, 7, 3))
	v, _, err = svc.GetTokenVersion(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	require.NoError(t, svc.RaiseTokenVersion(ctx, 7, 5))
	v, _, err = svc.GetTokenVersion(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	require.NoError(t, svc.InvalidateTokenVersion(ctx, 7))
	_, found, err = svc.GetTokenVersion(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)
}
