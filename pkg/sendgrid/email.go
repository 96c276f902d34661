// Package sendgrid delivers transactional mail through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Option func(*Mailer)

// WithBaseURL points the mailer at another API host, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(m *Mailer) {
		m.client.Request.BaseURL = url
	}
}

type Mailer struct {
	client *sendgrid.Client
	sender *mail.Email
}

func New(apiKey, fromEmail, fromName string, opts ...Option) *Mailer {
	m := &Mailer{
		client: sendgrid.NewSendClient(apiKey),
		sender: mail.NewEmail(fromName, fromEmail),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Send delivers one message. Any non-2xx answer is an error carrying the API body.
func (m *Mailer) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	resp, err := m.client.SendWithContext(ctx, m.compose(req))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("failed to send email, status code: %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

func (m *Mailer) compose(req *models.EmailNotificationRequest) *mail.SGMailV3 {
	recipients := mail.NewPersonalization()
	recipients.Subject = req.Subject
	recipients.AddTos(mail.NewEmail("", req.To))
	recipients.AddCCs(addresses(req.CC)...)
	recipients.AddBCCs(addresses(req.BCC)...)

	msg := mail.NewV3Mail()
	msg.SetFrom(m.sender)
	msg.AddPersonalizations(recipients)
	msg.AddContent(mail.NewContent("text/plain", req.Content))

	// empty content blocks are rejected by the API
	if req.HTMLContent != "" {
		msg.AddContent(mail.NewContent("text/html", req.HTMLContent))
	}

	return msg
}

func addresses(list []string) []*mail.Email {
	out := make([]*mail.Email, 0, len(list))
	for _, addr := range list {
		out = append(out, mail.NewEmail("", addr))
	}

	return out
}
