// Package telegram adapts the Telegram Bot API to the messenger interface.
package telegram

import (
	"context"
	"fmt"

	"github.com/tabulahq/tabula/internal/messenger"
)

// TelegramAPI abstracts the subset of the Telegram Bot API used by
// TelegramMessenger. This allows testing without real HTTP calls.
type TelegramAPI interface {
	SendMessage(chatID, text string) (messageID string, err error)
}

// TelegramMessenger implements messenger.Messenger for Telegram.
type TelegramMessenger struct {
	api TelegramAPI
}

// Compile-time interface check.
var _ messenger.Messenger = (*TelegramMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewTelegramMessenger creates a TelegramMessenger with the given API client.
func NewTelegramMessenger(api TelegramAPI) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

// SendMessage posts a text message to a Telegram chat. The channelID is the
// Telegram chat ID.
func (m *TelegramMessenger) SendMessage(_ context.Context, channelID, text string) (messenger.MessageID, error) {
	messageID, err := m.api.SendMessage(channelID, text)
	if err != nil {
		return "", fmt.Errorf("telegram.TelegramMessenger.SendMessage: %w", err)
	}

	return messenger.MessageID(messageID), nil
}

// Platform returns the platform identifier.
func (m *TelegramMessenger) Platform() string {
	return "telegram"
}
