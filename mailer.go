package identity

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// MailMessage is a transport-agnostic outbound email.
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Mailer delivers outbound mail. Implementations live in adapters; the
// default LogMailer only logs, which keeps examples and tests offline.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// VerificationURL builds the link a user follows to verify their address.
// The raw (unhashed) token travels in the URL; only its hash is stored.
func VerificationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/verify-email/" + token
}

// VerificationMail builds the verification email for a newly registered or
// re-requested identity.
func VerificationMail(username, email, verifyURL string) MailMessage {
	text := fmt.Sprintf(
		"Hi %s,\n\nPlease verify your email address by visiting the link below:\n\n%s\n\nThe link expires shortly. If you did not request this, ignore this message.\n",
		username,
		verifyURL,
	)

	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Please verify your email address:</p><p><a href="%s">Verify email</a></p><p>The link expires shortly. If you did not request this, ignore this message.</p>`,
		html.EscapeString(username),
		verifyURL,
	)

	return MailMessage{
		To:      email,
		Subject: "Verify your email address",
		Text:    text,
		HTML:    body,
	}
}

// LogMailer logs instead of sending. It is the default when no mailer is
// configured.
type LogMailer struct {
	Logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg MailMessage) error {
	m.Logger.Info("mail (not sent)", "to", msg.To, "subject", msg.Subject)
	return nil
}
