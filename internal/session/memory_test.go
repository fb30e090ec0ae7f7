package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserSnapshotLifecycle(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, err := cache.LoadUser(ctx, "student:1001")
	assert.ErrorIs(t, err, ErrNoSession)

	snapshot := json.RawMessage(`{"id":"1001","firstName":"Juan"}`)
	assert.NoError(t, cache.SaveUser(ctx, "student:1001", snapshot))

	got, err := cache.LoadUser(ctx, "student:1001")
	assert.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(got))

	assert.NoError(t, cache.Clear(ctx, "student:1001"))
	_, err = cache.LoadUser(ctx, "student:1001")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClientsAreIsolated(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	assert.NoError(t, cache.SaveUser(ctx, "student:1001", json.RawMessage(`{"id":"1001"}`)))
	assert.NoError(t, cache.SaveUser(ctx, "instructor:77", json.RawMessage(`{"id":"77"}`)))

	assert.NoError(t, cache.Clear(ctx, "student:1001"))
	got, err := cache.LoadUser(ctx, "instructor:77")
	assert.NoError(t, err)
	assert.JSONEq(t, `{"id":"77"}`, string(got))
}

func TestCodeStorage(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, err := cache.Code(ctx, "a@b.com")
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, cache.SetCode(ctx, "a@b.com", "123456"))
	code, err := cache.Code(ctx, "a@b.com")
	assert.NoError(t, err)
	assert.Equal(t, "123456", code)

	// a new code replaces the old one
	assert.NoError(t, cache.SetCode(ctx, "a@b.com", "654321"))
	code, err = cache.Code(ctx, "a@b.com")
	assert.NoError(t, err)
	assert.Equal(t, "654321", code)
}

func TestVerifiedFlag(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	verified, err := cache.Verified(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)
	assert.False(t, verified)

	assert.NoError(t, cache.MarkVerified(ctx, "a@b.com", "a@b.com"))
	verified, err = cache.Verified(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)
	assert.True(t, verified)

	// flag is per email
	verified, err = cache.Verified(ctx, "a@b.com", "other@b.com")
	assert.NoError(t, err)
	assert.False(t, verified)
}

func TestCooldown(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	remaining, err := cache.CooldownRemaining(ctx, "a@b.com")
	assert.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)

	assert.NoError(t, cache.StartCooldown(ctx, "a@b.com", time.Hour))
	remaining, err = cache.CooldownRemaining(ctx, "a@b.com")
	assert.NoError(t, err)
	assert.Greater(t, remaining, 59*time.Minute)

	assert.NoError(t, cache.StartCooldown(ctx, "a@b.com", time.Nanosecond))
	time.Sleep(time.Millisecond)
	remaining, err = cache.CooldownRemaining(ctx, "a@b.com")
	assert.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)
}
