// Package notification sends customer emails in reaction to order events.
package notification

import "context"

// Message is a rendered email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	// Tag identifies the message kind for provider analytics and logs
	Tag string
}

// Mailer delivers rendered emails
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
