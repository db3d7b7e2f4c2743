// Package messenger delivers card reminders to chat platforms. The scheduler
// polls for cards whose reminder time has passed and posts each one to a
// configured channel; platform adapters live in subpackages.
package messenger

import "context"

// MessageID uniquely identifies a message within a messenger platform.
type MessageID string

// Messenger abstracts communication with a chat platform (Slack, Discord,
// Telegram, etc.). Implementations handle platform-specific API calls; the
// interface is platform-agnostic.
type Messenger interface {
	// SendMessage posts a text message to a channel and returns its platform message ID.
	SendMessage(ctx context.Context, channelID, text string) (MessageID, error)

	// Platform returns the messenger platform identifier (e.g. "slack", "discord").
	Platform() string
}
