package email

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer_FallsBackToLog(t *testing.T) {
	m, err := NewMailer(config.EmailConfig{FromAddress: "shop@example.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = NewMailer(config.EmailConfig{ResendAPIKey: "re_test", FromAddress: "shop@example.com", FromName: "Shop"}, nil)
	require.NoError(t, err)
	require.IsType(t, &ResendMailer{}, m)
	assert.Equal(t, "Shop <shop@example.com>", m.(*ResendMailer).from)
}

func TestNewResendMailer_Validation(t *testing.T) {
	_, err := NewResendMailer(config.EmailConfig{FromAddress: "shop@example.com"}, nil)
	assert.Error(t, err)

	_, err = NewResendMailer(config.EmailConfig{ResendAPIKey: "re_test"}, nil)
	assert.Error(t, err)
}

func TestLogMailer_RecordsMessages(t *testing.T) {
	m := NewLogMailer(nil)
	msg := notification.Message{To: "ada@example.com", Subject: "Hello", Text: "Hi", Tag: "test"}

	require.NoError(t, m.Send(context.Background(), msg))
	assert.Equal(t, []notification.Message{msg}, m.Sent())
}
