package email

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"
)

type ResendMailer struct {
	client *resend.Client
	from   Sender
}

func NewResendMailer(apiKey string, from Sender) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *ResendMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    m.from.String(),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	if _, err := m.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send email via resend: %w", err)
	}
	return nil
}
