// Package email provides outbound email delivery.
package email

import "context"

// Message is a single rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered emails through a provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
