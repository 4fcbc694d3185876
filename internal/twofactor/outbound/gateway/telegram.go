package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram sends through the Bot API. Bots cannot message a phone number,
// so every registered phone needs a chat id mapping.
type Telegram struct {
	client  *http.Client
	url     string
	chatIDs map[string]string
}

func NewTelegram(client *http.Client, baseURL, botToken string, chatIDs map[string]string) (*Telegram, error) {
	if botToken == "" {
		return nil, errors.New("gateway: telegram driver requires a bot token")
	}
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}

	normalized := make(map[string]string, len(chatIDs))
	for phone, chat := range chatIDs {
		normalized[digits(phone)] = chat
	}

	return &Telegram{
		client:  client,
		url:     strings.TrimRight(baseURL, "/") + "/bot" + botToken + "/sendMessage",
		chatIDs: normalized,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, destination, message string) error {
	chat, ok := t.chatIDs[digits(destination)]
	if !ok {
		return fmt.Errorf("%w: no telegram chat for destination", ErrNoRoute)
	}

	return postJSON(ctx, t.client, t.url, "", map[string]string{
		"chat_id": chat,
		"text":    message,
	})
}
