// Package email provides Mailer adapters for customer notifications.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v3"
	"github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ResendMailer sends email through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendMailer creates a Mailer backed by Resend
func NewResendMailer(cfg config.EmailConfig, logger *zap.Logger) (*ResendMailer, error) {
	if cfg.ResendAPIKey == "" {
		return nil, errors.New("resend api key is required")
	}
	if cfg.FromAddress == "" {
		return nil, errors.New("email from address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendMailer{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   sender(cfg),
		logger: logger,
	}, nil
}

// Send delivers one message
func (m *ResendMailer) Send(ctx context.Context, msg notification.Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.Tag != "" {
		params.Tags = []resend.Tag{{Name: "category", Value: msg.Tag}}
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email via resend: %w", err)
	}
	m.logger.Debug("Email accepted by resend", zap.String("id", sent.Id), zap.String("tag", msg.Tag))
	return nil
}

func sender(cfg config.EmailConfig) string {
	if cfg.FromName == "" {
		return cfg.FromAddress
	}
	return fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
}

var _ notification.Mailer = (*ResendMailer)(nil)
