package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const defaultWhatsAppBaseURL = "https://graph.facebook.com/v21.0"

// WhatsApp sends a text message through the WhatsApp Business Cloud API.
type WhatsApp struct {
	client *http.Client
	url    string
	token  string
}

func NewWhatsApp(client *http.Client, baseURL, phoneNumberID, token string) (*WhatsApp, error) {
	if phoneNumberID == "" || token == "" {
		return nil, errors.New("gateway: whatsapp driver requires a phone number id and token")
	}
	if baseURL == "" {
		baseURL = defaultWhatsAppBaseURL
	}

	return &WhatsApp{
		client: client,
		url:    strings.TrimRight(baseURL, "/") + "/" + phoneNumberID + "/messages",
		token:  token,
	}, nil
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

func (w *WhatsApp) Send(ctx context.Context, destination, message string) error {
	number := digits(destination)
	if number == "" {
		return ErrNoRoute
	}

	return postJSON(ctx, w.client, w.url, w.token, whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               number,
		Type:             "text",
		Text:             whatsAppText{Body: message},
	})
}
