package notifications

import "context"

// Notification is a rendered message ready for delivery.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications over one transport.
type Sender interface {
	Type() string
	Send(ctx context.Context, notification Notification) error
}
