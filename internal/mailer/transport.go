// Package mailer sends one plain-text acknowledgement email per call over an
// authenticated, transport-encrypted session.
package mailer

import "context"

// Message is one outgoing email.
type Message struct {
	From     string
	FromName string // optional display name
	To       string
	Subject  string
	Body     string
}

// Transport delivers a single message. Implementations classify failures via
// the shared error taxonomy: authentication and recipient rejections are
// final, everything else is retryable.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
