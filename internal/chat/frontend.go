// Package chat defines what a chat frontend offers the rest of the bot.
package chat

import (
	"context"

	"playernix/internal/core"
)

// Handler receives every command a frontend decodes. Commands carry their own
// Reply when the platform needs answers routed back to the request.
type Handler func(ctx context.Context, cmd *core.Command)

// Frontend is a chat integration.
type Frontend interface {
	// Start connects to the platform and registers commands.
	Start(ctx context.Context) error

	// Listen delivers commands to handler until ctx is done.
	Listen(ctx context.Context, handler Handler) error

	// SendText posts text to a channel.
	SendText(ctx context.Context, channelID, text string) error
}
