package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Config captures the SendGrid settings for OTP dispatch.
type Config struct {
	APIKey     string
	From       string
	FromName   string
	TemplateID string
}

// SendGridSender delivers verification codes through a SendGrid dynamic
// template.
type SendGridSender struct {
	cfg    Config
	client *sendgrid.Client
	log    zerolog.Logger
}

func NewSendGridSender(cfg Config, log zerolog.Logger) *SendGridSender {
	return &SendGridSender{cfg: cfg, client: sendgrid.NewSendClient(cfg.APIKey), log: log}
}

// SendOTPEmail sends the verification code to recipientEmail.
func (s *SendGridSender) SendOTPEmail(ctx context.Context, recipientEmail, code string) error {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.cfg.FromName, s.cfg.From))
	m.SetTemplateID(s.cfg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", recipientEmail))
	p.SetDynamicTemplateData("code", code)
	m.AddPersonalizations(p)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d", resp.StatusCode)
	}

	s.log.Debug().Str("recipient", recipientEmail).Msg("otp email dispatched")
	return nil
}
