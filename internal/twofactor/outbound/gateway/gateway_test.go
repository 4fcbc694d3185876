package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu     sync.Mutex
	path   string
	auth   string
	body   map[string]any
	status int
}

func newProvider(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()

	c := &captured{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		w.WriteHeader(c.status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

type fakeMail struct {
	msgs []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeMail) Close() error { return nil }

func TestNew_Drivers(t *testing.T) {
	dep := Dependency{Mail: &fakeMail{}, Instrument: instrument.NewNoop()}

	for _, cfg := range []Config{
		{Driver: DriverLog},
		{},
		{Driver: DriverEmail, EmailDomain: "sms.carrier.test"},
		{Driver: DriverSMSAPI, SMSAPIEndpoint: "http://localhost/sms"},
		{Driver: DriverTwilio, TwilioAccountSID: "AC1", TwilioAuthToken: "tok", TwilioFrom: "+15550001111"},
		{Driver: DriverWhatsApp, WhatsAppPhoneNumberID: "123", WhatsAppToken: "tok"},
		{Driver: DriverTelegram, TelegramBotToken: "bot"},
	} {
		s, err := New(cfg, dep)
		require.NoError(t, err, cfg.Driver)
		assert.IsType(t, &Instrumented{}, s)
	}

	_, err := New(Config{Driver: "pigeon"}, dep)
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = New(Config{Driver: DriverEmail}, dep)
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverWhatsApp}, dep)
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverTwilio}, dep)
	assert.Error(t, err)
}

func TestEmail_Send(t *testing.T) {
	m := &fakeMail{}
	s, err := NewEmail(m, "sms.carrier.test", "Code")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "+1 (555) 123-4567", "code 123456"))
	require.Len(t, m.msgs, 1)
	assert.Equal(t, []string{"15551234567@sms.carrier.test"}, m.msgs[0].To)
	assert.Equal(t, "code 123456", m.msgs[0].TextBody)

	assert.ErrorIs(t, s.Send(context.Background(), "n/a", "x"), ErrNoRoute)
}

func TestSMSAPI_Send(t *testing.T) {
	srv, got := newProvider(t, http.StatusAccepted)
	s, err := NewSMSAPI(srv.Client(), srv.URL+"/v1/sms", "secret", "CAMPUS")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "+15551234567", "code 123456"))
	assert.Equal(t, "/v1/sms", got.path)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Equal(t, map[string]any{"from": "CAMPUS", "to": "+15551234567", "text": "code 123456"}, got.body)
}

func TestSMSAPI_Rejected(t *testing.T) {
	srv, _ := newProvider(t, http.StatusBadGateway)
	s, err := NewSMSAPI(srv.Client(), srv.URL, "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Send(context.Background(), "+15551234567", "x"), ErrRejected)
}

func TestWhatsApp_Send(t *testing.T) {
	srv, got := newProvider(t, http.StatusOK)
	s, err := NewWhatsApp(srv.Client(), srv.URL+"/", "10101", "wa-token")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "+15551234567", "code 123456"))
	assert.Equal(t, "/10101/messages", got.path)
	assert.Equal(t, "Bearer wa-token", got.auth)
	assert.Equal(t, "15551234567", got.body["to"])
	assert.Equal(t, "whatsapp", got.body["messaging_product"])
	assert.Equal(t, map[string]any{"body": "code 123456"}, got.body["text"])
}

func TestTelegram_Send(t *testing.T) {
	srv, got := newProvider(t, http.StatusOK)
	s, err := NewTelegram(srv.Client(), srv.URL, "42:abc", map[string]string{"+1 555 123 4567": "99"})
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "+15551234567", "code 123456"))
	assert.Equal(t, "/bot42:abc/sendMessage", got.path)
	assert.Equal(t, "99", got.body["chat_id"])

	assert.ErrorIs(t, s.Send(context.Background(), "+15550000000", "x"), ErrNoRoute)
}

func TestSend_HonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewSMSAPI(srv.Client(), srv.URL, "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = NewInstrumented(s, DriverSMSAPI, instrument.NewNoop()).Send(ctx, "+15551234567", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLog_Send(t *testing.T) {
	require.NoError(t, NewLog().Send(context.Background(), "+15551234567", "x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewLog().Send(ctx, "+15551234567", "x"), context.Canceled)
}
