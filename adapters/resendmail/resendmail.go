// Package resendmail delivers identity mail through the Resend API.
package resendmail

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/resend/resend-go/v2"

	"github.com/goliatone/go-identity"
)

// Mailer sends mail through a Resend account.
type Mailer struct {
	client *resend.Client
	from   string
}

var _ identity.Mailer = (*Mailer)(nil)

// New creates a Mailer. The from address must be a verified sender in the
// Resend account.
func New(apiKey, from string) *Mailer {
	return &Mailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *Mailer) Send(ctx context.Context, msg identity.MailMessage) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "resend delivery failed").
			WithMetadata(map[string]any{
				"to":      msg.To,
				"subject": msg.Subject,
			})
	}

	return nil
}
