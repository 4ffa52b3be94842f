package email

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LogMailer writes emails to the log instead of sending them.
// It is used when no Resend API key is configured.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []notification.Message
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message and keeps it for inspection
func (m *LogMailer) Send(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.Info("Email (not sent, no provider configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("tag", msg.Tag),
		zap.String("text", msg.Text),
	)
	return nil
}

// Sent returns a copy of the messages logged so far
func (m *LogMailer) Sent() []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Message(nil), m.sent...)
}

// NewMailer picks Resend when an API key is configured, otherwise the log mailer
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) (notification.Mailer, error) {
	if cfg.ResendAPIKey == "" {
		return NewLogMailer(logger), nil
	}
	return NewResendMailer(cfg, logger)
}

var _ notification.Mailer = (*LogMailer)(nil)
