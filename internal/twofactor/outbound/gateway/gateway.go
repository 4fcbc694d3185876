// Package gateway delivers one-time codes to a phone number. Drivers share
// the Sender contract: Send returns nil only once the provider accepted the
// message, and honours the context deadline.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	DriverEmail    = "email"
	DriverSMSAPI   = "smsapi"
	DriverTwilio   = "twilio"
	DriverWhatsApp = "whatsapp"
	DriverTelegram = "telegram"
	DriverLog      = "log"
)

var (
	// ErrUnknownDriver indicates an unsupported gateway driver.
	ErrUnknownDriver = errors.New("gateway: unknown driver")
	// ErrRejected is returned when the provider answered but refused the message.
	ErrRejected = errors.New("gateway: provider rejected message")
	// ErrNoRoute is returned when a destination cannot be mapped to the provider.
	ErrNoRoute = errors.New("gateway: no route to destination")
)

type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

type Config struct {
	Driver string

	EmailDomain  string
	EmailSubject string

	SMSAPIEndpoint string
	SMSAPIToken    string
	SMSAPISender   string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	WhatsAppBaseURL       string
	WhatsAppPhoneNumberID string
	WhatsAppToken         string

	TelegramBaseURL  string
	TelegramBotToken string
	// TelegramChatIDs maps a registered phone number to the chat that
	// belongs to it.
	TelegramChatIDs map[string]string

	// HTTPTimeout bounds a single provider call. The usecase applies its own
	// deadline on top.
	HTTPTimeout time.Duration
}

type Dependency struct {
	Mail       mail.Mail
	HTTPClient *http.Client
	Instrument instrument.Instrumentation
}

// New builds the sender selected by cfg.Driver wrapped with tracing and the
// send counter.
func New(cfg Config, dep Dependency) (Sender, error) {
	client := dep.HTTPClient
	if client == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	var (
		s   Sender
		err error
	)
	switch driver := strings.TrimSpace(cfg.Driver); driver {
	case DriverEmail:
		s, err = NewEmail(dep.Mail, cfg.EmailDomain, cfg.EmailSubject)
	case DriverSMSAPI:
		s, err = NewSMSAPI(client, cfg.SMSAPIEndpoint, cfg.SMSAPIToken, cfg.SMSAPISender)
	case DriverTwilio:
		s, err = NewTwilio(client, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	case DriverWhatsApp:
		s, err = NewWhatsApp(client, cfg.WhatsAppBaseURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppToken)
	case DriverTelegram:
		s, err = NewTelegram(client, cfg.TelegramBaseURL, cfg.TelegramBotToken, cfg.TelegramChatIDs)
	case DriverLog, "":
		s = NewLog()
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverLog
	}
	return NewInstrumented(s, driver, dep.Instrument), nil
}

// Instrumented traces every send and counts it by driver and outcome.
type Instrumented struct {
	next    Sender
	driver  string
	ins     instrument.Instrumentation
	counter metric.Int64Counter
}

func NewInstrumented(next Sender, driver string, ins instrument.Instrumentation) *Instrumented {
	counter, err := ins.Meter("twofactor.outbound.gateway").Int64Counter("twofactor.gateway.send.total",
		metric.WithDescription("Notification gateway sends by driver and outcome"))
	if err != nil {
		slog.Warn("failed to create gateway counter", "error", err)
	}

	return &Instrumented{next: next, driver: driver, ins: ins, counter: counter}
}

func (g *Instrumented) Send(ctx context.Context, destination, message string) error {
	ctx, span := g.ins.Tracer("twofactor.outbound.gateway").Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("gateway.driver", g.driver))

	err := g.next.Send(ctx, destination, message)

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = "timeout"
	default:
		outcome = "failure"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if g.counter != nil {
		g.counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("driver", g.driver),
			attribute.String("outcome", outcome),
		))
	}

	return err
}

// digits strips everything but 0-9 from a phone number.
func digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
