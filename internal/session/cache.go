package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// The session cache is the server-side stand-in for the device's local
// key-value storage: per client it holds the keys `userData` (JSON account
// snapshot of the last successful login), `verificationCode` (the current
// one-time code) and `verified_{email}` flags.
//
// The verified flag is written on successful code checks; nothing gates
// on it.

// ErrNoSession is returned when a client has no cached value for a key.
var ErrNoSession = errors.New("session: not found")

// Cache is the abstraction over session cache backends.
type Cache interface {
	// SaveUser stores the account snapshot under the client's userData key.
	SaveUser(ctx context.Context, client string, snapshot json.RawMessage) error
	// LoadUser returns the cached account snapshot, or ErrNoSession.
	LoadUser(ctx context.Context, client string) (json.RawMessage, error)
	// Clear drops the client's userData key. Session validity is exactly
	// "snapshot present or not", so this is the whole of logout.
	Clear(ctx context.Context, client string) error

	// SetCode stores the current verification code, superseding any prior one.
	SetCode(ctx context.Context, client, code string) error
	// Code returns the stored verification code, or ErrNoSession.
	Code(ctx context.Context, client string) (string, error)

	// MarkVerified persists the verified_{email} flag.
	MarkVerified(ctx context.Context, client, email string) error
	// Verified reports whether the verified_{email} flag is set.
	Verified(ctx context.Context, client, email string) (bool, error)

	// StartCooldown arms the resend cooldown timer for the client.
	StartCooldown(ctx context.Context, client string, d time.Duration) error
	// CooldownRemaining returns how long until resend is allowed; zero when idle.
	CooldownRemaining(ctx context.Context, client string) (time.Duration, error)
}
