package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Twilio sends codes through the Twilio Messages API.
type Twilio struct {
	client *twilio.RestClient
	from   string
}

// NewTwilio builds the driver. A non-nil httpClient replaces the SDK's
// default transport.
func NewTwilio(httpClient *http.Client, accountSID, authToken, from string) (*Twilio, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("gateway: twilio driver requires account sid, auth token and sender")
	}

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	if c, ok := rest.Client.(*twclient.Client); ok && httpClient != nil {
		c.HTTPClient = httpClient
	}

	return &Twilio{client: rest, from: from}, nil
}

func (t *Twilio) Send(ctx context.Context, destination, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(t.from)
	params.SetBody(message)

	// CreateMessage takes no context, so the deadline is enforced here.
	done := make(chan error, 1)
	go func() {
		_, err := t.client.Api.CreateMessage(params)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("%w: twilio %d: %s", ErrRejected, restErr.Code, restErr.Message)
		}
		return err
	}
}
