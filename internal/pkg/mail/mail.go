package mail

import (
	"context"
	"io"
)

// Message represents an email payload.
type Message struct {
	// From overrides the configured sender when set.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	// HTMLBody is sent as an alternative part when TextBody is also set.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
