package verify

import (
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers verification codes. The console implementation stands in
// wherever no SendGrid key is configured.
type Mailer interface {
	SendCode(toEmail, code string) error
}

// SendgridMailer delivers codes through the SendGrid v3 API.
type SendgridMailer struct {
	key  string
	from *sgmail.Email
}

// NewSendgridMailer creates a mailer.
func NewSendgridMailer(key, fromEmail string) *SendgridMailer {
	return &SendgridMailer{key: key, from: sgmail.NewEmail("ClassTrack", fromEmail)}
}

// SendCode mails the six-digit code.
func (m *SendgridMailer) SendCode(toEmail, code string) error {
	msg := sgmail.NewSingleEmail(
		m.from,
		"[ClassTrack] Your verification code",
		sgmail.NewEmail("", toEmail),
		fmt.Sprintf("Your verification code is %s. Enter it to confirm your email address.", code),
		fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>Enter it to confirm your email address.</p>", code),
	)
	resp, err := sendgrid.NewSendClient(m.key).Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: send failed (%d): %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// ConsoleMailer logs codes instead of sending them.
type ConsoleMailer struct{}

// SendCode prints the code to the process log.
func (ConsoleMailer) SendCode(toEmail, code string) error {
	log.Printf("verification code for %s: %s", toEmail, code)
	return nil
}
