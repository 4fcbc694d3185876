package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteHost points every request at target, keeping the path.
type rewriteHost struct {
	target *url.URL
	next   http.RoundTripper
}

func (rt rewriteHost) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = rt.target.Host
	return rt.next.RoundTrip(r)
}

type twilioCapture struct {
	mu   sync.Mutex
	path string
	user string
	pass string
	form url.Values
}

func newTwilioProvider(t *testing.T, status int, body string) (*http.Client, *twilioCapture) {
	t.Helper()

	c := &twilioCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.path = r.URL.Path
		c.user, c.pass, _ = r.BasicAuth()
		_ = r.ParseForm()
		c.form = r.PostForm
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	return &http.Client{Transport: rewriteHost{target: target, next: srv.Client().Transport}}, c
}

func TestTwilio_Send(t *testing.T) {
	client, got := newTwilioProvider(t, http.StatusCreated, `{"sid":"SM1","status":"queued"}`)
	s, err := NewTwilio(client, "AC123", "tw-token", "+15550001111")
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "+15551234567", "code 123456"))

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.Equal(t, "AC123", got.user)
	assert.Equal(t, "tw-token", got.pass)
	assert.Equal(t, "+15551234567", got.form.Get("To"))
	assert.Equal(t, "+15550001111", got.form.Get("From"))
	assert.Equal(t, "code 123456", got.form.Get("Body"))
}

func TestTwilio_Rejected(t *testing.T) {
	client, _ := newTwilioProvider(t, http.StatusBadRequest,
		`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`)
	s, err := NewTwilio(client, "AC123", "tw-token", "+15550001111")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Send(context.Background(), "n/a", "x"), ErrRejected)
}

func TestTwilio_HonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	client := &http.Client{Transport: rewriteHost{target: target, next: srv.Client().Transport}}

	s, err := NewTwilio(client, "AC123", "tw-token", "+15550001111")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = NewInstrumented(s, DriverTwilio, instrument.NewNoop()).Send(ctx, "+15551234567", "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewTwilio_RequiresCredentials(t *testing.T) {
	_, err := NewTwilio(nil, "AC123", "", "+15550001111")
	assert.Error(t, err)

	s, err := NewTwilio(nil, "AC123", "tw-token", "+15550001111")
	require.NoError(t, err)
	assert.NotNil(t, s)
}
