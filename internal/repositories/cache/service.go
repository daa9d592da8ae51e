package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenVersionCache remembers each account's current token version so
// authenticating a request does not hit the account store.
type TokenVersionCache interface {
	GetTokenVersion(ctx context.Context, accountID uint) (version int, found bool, err error)
	// RaiseTokenVersion stores version unless a higher one is already cached.
	RaiseTokenVersion(ctx context.Context, accountID uint, version int) error
	InvalidateTokenVersion(ctx context.Context, accountID uint) error
	HealthCheck(ctx context.Context) error
}

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// GenerateKey builds keys of the form entity:type:value.
func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func tokenVersionKey(accountID uint) string {
	return GenerateKey("account", "token_version", accountID)
}

func (s *CacheService) GetTokenVersion(ctx context.Context, accountID uint) (int, bool, error) {
	var version int
	found, err := s.Get(ctx, tokenVersionKey(accountID), &version)
	return version, found, err
}

// raiseScript sets KEYS[1] to ARGV[1] only if the key is missing or holds a
// lower number. ARGV[2] is the TTL in milliseconds, 0 for none.
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]))
local next = tonumber(ARGV[1])
if current ~= nil and current >= next then
	return 0
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ttl)
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

func (s *CacheService) RaiseTokenVersion(ctx context.Context, accountID uint, version int) error {
	err := raiseScript.Run(ctx, s.client, []string{tokenVersionKey(accountID)}, version, s.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to raise token version: %w", err)
	}
	return nil
}

func (s *CacheService) InvalidateTokenVersion(ctx context.Context, accountID uint) error {
	return s.Delete(ctx, tokenVersionKey(accountID))
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}

// NopCache is used when redis is disabled; every lookup misses.
type NopCache struct{}

func (NopCache) GetTokenVersion(context.Context, uint) (int, bool, error) { return 0, false, nil }
func (NopCache) RaiseTokenVersion(context.Context, uint, int) error { return nil }
func (NopCache) InvalidateTokenVersion(context.Context, uint) error { return nil }
func (NopCache) HealthCheck(context.Context) error { return nil }
