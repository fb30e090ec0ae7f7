package verify

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"classtrack/internal/session"
)

type captureMailer struct {
	to    []string
	codes []string
}

func (m *captureMailer) SendCode(toEmail, code string) error {
	m.to = append(m.to, toEmail)
	m.codes = append(m.codes, code)
	return nil
}

func newVerify(t *testing.T, cooldown time.Duration) (*Service, session.Cache, *captureMailer) {
	t.Helper()
	cache := session.NewMemoryCache()
	mailer := &captureMailer{}
	return NewService(cache, mailer, cooldown), cache, mailer
}

func TestGenerateProducesSixDigits(t *testing.T) {
	svc, _, mailer := newVerify(t, time.Second)
	ctx := context.Background()

	sixDigits := regexp.MustCompile(`^[1-9]\d{5}$`)
	for i := 0; i < 20; i++ {
		code, err := svc.Generate(ctx, "a@b.com", "a@b.com")
		assert.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
	assert.Len(t, mailer.codes, 20)
	assert.Equal(t, "a@b.com", mailer.to[0])
}

func TestCheck(t *testing.T) {
	svc, cache, _ := newVerify(t, time.Second)
	ctx := context.Background()

	code, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.Check(ctx, "a@b.com", "a@b.com", "000000"), ErrMismatch)
	assert.ErrorIs(t, svc.Check(ctx, "a@b.com", "a@b.com", ""), ErrMismatch)

	assert.NoError(t, svc.Check(ctx, "a@b.com", "a@b.com", code))
	verified, err := cache.Verified(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)
	assert.True(t, verified)

	// the code survives a successful check; the flag is the durable outcome
	assert.NoError(t, svc.Check(ctx, "a@b.com", "a@b.com", code))
}

func TestCheckWithoutCode(t *testing.T) {
	svc, _, _ := newVerify(t, time.Second)

	err := svc.Check(context.Background(), "a@b.com", "a@b.com", "123456")
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestGenerateSupersedesPreviousCode(t *testing.T) {
	svc, _, mailer := newVerify(t, time.Second)
	ctx := context.Background()

	first, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)
	second, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, svc.Check(ctx, "a@b.com", "a@b.com", first), ErrMismatch)
	}
	assert.NoError(t, svc.Check(ctx, "a@b.com", "a@b.com", second))
	assert.Len(t, mailer.codes, 2)
}

func TestResendCooldown(t *testing.T) {
	svc, _, mailer := newVerify(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)

	err = svc.Resend(ctx, "a@b.com", "a@b.com")
	var cooldown ErrCooldown
	assert.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.Remaining, time.Duration(0))
	assert.Len(t, mailer.codes, 1, "no mail while the cooldown runs")
}

func TestResendAfterCooldown(t *testing.T) {
	svc, _, mailer := newVerify(t, time.Nanosecond)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, svc.Resend(ctx, "a@b.com", "a@b.com"))
	assert.Len(t, mailer.codes, 2)
}

type failingMailer struct{}

func (failingMailer) SendCode(string, string) error {
	return errors.New("smtp unavailable")
}

func TestGenerateLeavesNoStateOnSendFailure(t *testing.T) {
	cache := session.NewMemoryCache()
	svc := NewService(cache, failingMailer{}, time.Hour)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.Error(t, err)

	_, err = cache.Code(ctx, "a@b.com")
	assert.ErrorIs(t, err, session.ErrNoSession, "no undeliverable code stored")

	remaining, err := cache.CooldownRemaining(ctx, "a@b.com")
	assert.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining, "cooldown not armed on failure")
}

func TestSendFailureKeepsPreviousCode(t *testing.T) {
	cache := session.NewMemoryCache()
	working := NewService(cache, &captureMailer{}, time.Nanosecond)
	broken := NewService(cache, failingMailer{}, time.Hour)
	ctx := context.Background()

	code, err := working.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)

	_, err = broken.Generate(ctx, "a@b.com", "a@b.com")
	assert.Error(t, err)

	assert.NoError(t, working.Check(ctx, "a@b.com", "a@b.com", code))
}

func TestCodesAreScopedPerClient(t *testing.T) {
	svc, _, _ := newVerify(t, time.Second)
	ctx := context.Background()

	codeA, err := svc.Generate(ctx, "a@b.com", "a@b.com")
	assert.NoError(t, err)
	_, err = svc.Generate(ctx, "c@d.com", "c@d.com")
	assert.NoError(t, err)

	assert.NoError(t, svc.Check(ctx, "a@b.com", "a@b.com", codeA))
}
