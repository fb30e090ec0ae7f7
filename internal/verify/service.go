package verify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"classtrack/internal/session"
)

var (
	// ErrMismatch is returned when the entered code does not equal the
	// stored one.
	ErrMismatch = errors.New("invalid verification code")
	// ErrNoCode is returned when no code has been generated for the client.
	ErrNoCode = errors.New("no verification code issued")
)

// ErrCooldown carries the wait left before another resend is allowed.
type ErrCooldown struct {
	Remaining time.Duration
}

func (e ErrCooldown) Error() string {
	return fmt.Sprintf("you can request a new code in %d seconds", int(e.Remaining.Seconds()))
}

// Service owns the one-time verification code lifecycle: generate, compare,
// resend with a cooldown. Codes live in the session cache; regeneration
// supersedes the previous code immediately.
type Service struct {
	cache    session.Cache
	mailer   Mailer
	cooldown time.Duration
}

// NewService creates a service.
func NewService(cache session.Cache, mailer Mailer, cooldown time.Duration) *Service {
	if cooldown <= 0 {
		cooldown = 90 * time.Second
	}
	return &Service{cache: cache, mailer: mailer, cooldown: cooldown}
}

// Generate issues a fresh six-digit code for the client, mails it and only
// then stores it and arms the cooldown. A delivery failure leaves any
// previously issued code valid and the cooldown unarmed, so the user can
// try again immediately.
func (s *Service) Generate(ctx context.Context, client, email string) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", err
	}
	if err := s.mailer.SendCode(email, code); err != nil {
		return "", err
	}
	if err := s.cache.SetCode(ctx, client, code); err != nil {
		return "", err
	}
	if err := s.cache.StartCooldown(ctx, client, s.cooldown); err != nil {
		return "", err
	}
	return code, nil
}

// Resend issues a new code unless the cooldown is still running.
func (s *Service) Resend(ctx context.Context, client, email string) error {
	remaining, err := s.cache.CooldownRemaining(ctx, client)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return ErrCooldown{Remaining: remaining}
	}
	_, err = s.Generate(ctx, client, email)
	return err
}

// Check compares the entered code and, on success, persists the
// verified_{email} flag. Nothing reads that flag today; registration does
// not gate on it.
func (s *Service) Check(ctx context.Context, client, email, entered string) error {
	stored, err := s.cache.Code(ctx, client)
	if errors.Is(err, session.ErrNoSession) {
		return ErrNoCode
	}
	if err != nil {
		return err
	}
	if entered == "" || entered != stored {
		return ErrMismatch
	}
	return s.cache.MarkVerified(ctx, client, email)
}

// newCode draws a uniform six-digit numeric string from crypto/rand.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
