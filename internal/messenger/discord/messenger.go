// Package discord adapts a Discord client to the messenger interface.
package discord

import (
	"context"
	"fmt"

	"github.com/tabulahq/tabula/internal/messenger"
)

// DiscordAPI abstracts the subset of the Discord client used by
// DiscordMessenger. This allows testing without real HTTP calls.
type DiscordAPI interface {
	ChannelMessageSend(channelID, content string) (messageID string, err error)
}

// DiscordMessenger implements messenger.Messenger for Discord.
type DiscordMessenger struct {
	api DiscordAPI
}

// Compile-time interface check.
var _ messenger.Messenger = (*DiscordMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewDiscordMessenger creates a DiscordMessenger with the given API client.
func NewDiscordMessenger(api DiscordAPI) *DiscordMessenger {
	return &DiscordMessenger{api: api}
}

// SendMessage posts a text message to a Discord channel.
func (m *DiscordMessenger) SendMessage(_ context.Context, channelID, text string) (messenger.MessageID, error) {
	messageID, err := m.api.ChannelMessageSend(channelID, text)
	if err != nil {
		return "", fmt.Errorf("discord.DiscordMessenger.SendMessage: %w", err)
	}

	return messenger.MessageID(messageID), nil
}

// Platform returns the platform identifier.
func (m *DiscordMessenger) Platform() string {
	return "discord"
}
