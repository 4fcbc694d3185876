package gateway

import (
	"context"
	"errors"

	"github.com/shandysiswandi/campusguard/internal/pkg/mail"
)

// Email delivers through a carrier email-to-SMS bridge: the message goes to
// <digits>@<domain>.
type Email struct {
	mail    mail.Mail
	domain  string
	subject string
}

func NewEmail(m mail.Mail, domain, subject string) (*Email, error) {
	if m == nil {
		return nil, errors.New("gateway: email driver requires a mail client")
	}
	if domain == "" {
		return nil, errors.New("gateway: email driver requires a domain")
	}
	return &Email{mail: m, domain: domain, subject: subject}, nil
}

func (e *Email) Send(ctx context.Context, destination, message string) error {
	number := digits(destination)
	if number == "" {
		return ErrNoRoute
	}

	return e.mail.Send(ctx, mail.Message{
		To:       []string{number + "@" + e.domain},
		Subject:  e.subject,
		TextBody: message,
	})
}
