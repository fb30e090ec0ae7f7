package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps session keys in redis under a per-client namespace.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache on an existing redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func sessionKey(client, key string) string {
	return "session:" + client + ":" + key
}

// SaveUser stores the account snapshot under the client's userData key.
func (c *RedisCache) SaveUser(ctx context.Context, client string, snapshot json.RawMessage) error {
	return c.client.Set(ctx, sessionKey(client, "userData"), string(snapshot), 0).Err()
}

// LoadUser returns the cached account snapshot.
func (c *RedisCache) LoadUser(ctx context.Context, client string) (json.RawMessage, error) {
	val, err := c.client.Get(ctx, sessionKey(client, "userData")).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(val), nil
}

// Clear drops the client's userData key.
func (c *RedisCache) Clear(ctx context.Context, client string) error {
	return c.client.Del(ctx, sessionKey(client, "userData")).Err()
}

// SetCode stores the current verification code.
func (c *RedisCache) SetCode(ctx context.Context, client, code string) error {
	return c.client.Set(ctx, sessionKey(client, "verificationCode"), code, 0).Err()
}

// Code returns the stored verification code.
func (c *RedisCache) Code(ctx context.Context, client string) (string, error) {
	val, err := c.client.Get(ctx, sessionKey(client, "verificationCode")).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	return val, err
}

// MarkVerified persists the verified_{email} flag.
func (c *RedisCache) MarkVerified(ctx context.Context, client, email string) error {
	return c.client.Set(ctx, sessionKey(client, "verified_"+email), "true", 0).Err()
}

// Verified reports whether the verified_{email} flag is set.
func (c *RedisCache) Verified(ctx context.Context, client, email string) (bool, error) {
	val, err := c.client.Get(ctx, sessionKey(client, "verified_"+email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "true", nil
}

// StartCooldown arms the resend cooldown via key TTL.
func (c *RedisCache) StartCooldown(ctx context.Context, client string, d time.Duration) error {
	return c.client.Set(ctx, sessionKey(client, "resendCooldown"), "1", d).Err()
}

// CooldownRemaining returns the TTL left on the cooldown key.
func (c *RedisCache) CooldownRemaining(ctx context.Context, client string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, sessionKey(client, "resendCooldown")).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
