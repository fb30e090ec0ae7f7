package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache is an in-process cache for dev and tests.
type MemoryCache struct {
	mu        sync.RWMutex
	values    map[string]string
	deadlines map[string]time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values:    make(map[string]string),
		deadlines: make(map[string]time.Time),
	}
}

func (c *MemoryCache) set(key, val string) {
	c.mu.Lock()
	c.values[key] = val
	c.mu.Unlock()
}

func (c *MemoryCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.values[key]
	return val, ok
}

// SaveUser stores the account snapshot under the client's userData key.
func (c *MemoryCache) SaveUser(_ context.Context, client string, snapshot json.RawMessage) error {
	c.set(sessionKey(client, "userData"), string(snapshot))
	return nil
}

// LoadUser returns the cached account snapshot.
func (c *MemoryCache) LoadUser(_ context.Context, client string) (json.RawMessage, error) {
	val, ok := c.get(sessionKey(client, "userData"))
	if !ok {
		return nil, ErrNoSession
	}
	return json.RawMessage(val), nil
}

// Clear drops the client's userData key.
func (c *MemoryCache) Clear(_ context.Context, client string) error {
	c.mu.Lock()
	delete(c.values, sessionKey(client, "userData"))
	c.mu.Unlock()
	return nil
}

// SetCode stores the current verification code.
func (c *MemoryCache) SetCode(_ context.Context, client, code string) error {
	c.set(sessionKey(client, "verificationCode"), code)
	return nil
}

// Code returns the stored verification code.
func (c *MemoryCache) Code(_ context.Context, client string) (string, error) {
	val, ok := c.get(sessionKey(client, "verificationCode"))
	if !ok {
		return "", ErrNoSession
	}
	return val, nil
}

// MarkVerified persists the verified_{email} flag.
func (c *MemoryCache) MarkVerified(_ context.Context, client, email string) error {
	c.set(sessionKey(client, "verified_"+email), "true")
	return nil
}

// Verified reports whether the verified_{email} flag is set.
func (c *MemoryCache) Verified(_ context.Context, client, email string) (bool, error) {
	val, _ := c.get(sessionKey(client, "verified_"+email))
	return val == "true", nil
}

// StartCooldown arms the resend cooldown timer.
func (c *MemoryCache) StartCooldown(_ context.Context, client string, d time.Duration) error {
	c.mu.Lock()
	c.deadlines[sessionKey(client, "resendCooldown")] = time.Now().Add(d)
	c.mu.Unlock()
	return nil
}

// CooldownRemaining returns how long until resend is allowed.
func (c *MemoryCache) CooldownRemaining(_ context.Context, client string) (time.Duration, error) {
	c.mu.RLock()
	deadline, ok := c.deadlines[sessionKey(client, "resendCooldown")]
	c.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	if remaining := time.Until(deadline); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}
