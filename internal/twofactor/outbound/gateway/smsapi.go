package gateway

import (
	"context"
	"errors"
	"net/http"
)

// SMSAPI posts {"from","to","text"} to a generic SMS HTTP API.
type SMSAPI struct {
	client   *http.Client
	endpoint string
	token    string
	sender   string
}

func NewSMSAPI(client *http.Client, endpoint, token, sender string) (*SMSAPI, error) {
	if endpoint == "" {
		return nil, errors.New("gateway: smsapi driver requires an endpoint")
	}
	return &SMSAPI{client: client, endpoint: endpoint, token: token, sender: sender}, nil
}

func (s *SMSAPI) Send(ctx context.Context, destination, message string) error {
	return postJSON(ctx, s.client, s.endpoint, s.token, map[string]string{
		"from": s.sender,
		"to":   destination,
		"text": message,
	})
}
