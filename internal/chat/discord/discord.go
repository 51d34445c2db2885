// Package discord connects the bot to Discord through disgo. Commands arrive
// as slash commands or as prefixed chat messages.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"playernix/internal/chat"
	"playernix/internal/core"
	"playernix/pkg/text"
)

// ErrNotStarted is returned when the frontend is used before Start.
var ErrNotStarted = errors.New("discord frontend not started")

// Config holds Discord-specific configuration
type Config struct {
	Token         string
	GuildID       string // register commands on this guild only; empty registers globally
	CommandPrefix string
}

// Frontend implements chat.Frontend for Discord
type Frontend struct {
	config *Config
	logger *zap.Logger
	parser *text.Parser
	client *bot.Client

	mutex   sync.RWMutex
	handler chat.Handler
	ctx     context.Context
	wg      sync.WaitGroup
}

var _ chat.Frontend = (*Frontend)(nil)

// NewFrontend creates a new Discord frontend
func NewFrontend(config *Config, logger *zap.Logger) *Frontend {
	return &Frontend{
		config: config,
		logger: logger.Named("discord"),
		parser: text.NewParser(config.CommandPrefix),
		ctx:    context.Background(),
	}
}

// Start creates the client and registers the slash commands
func (f *Frontend) Start(ctx context.Context) error {
	if f.config.Token == "" {
		return errors.New("discord token is required")
	}

	client, err := disgo.New(f.config.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
				gateway.IntentGuildVoiceStates,
			),
		),
		bot.WithEventListenerFunc(f.onCommand),
		bot.WithEventListenerFunc(f.onMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to create discord client: %w", err)
	}
	f.client = client

	if err := f.registerCommands(); err != nil {
		client.Close(ctx)
		return err
	}

	f.logger.Info("Discord frontend started",
		zap.String("application_id", client.ApplicationID.String()),
		zap.String("guild_id", f.config.GuildID))
	return nil
}

// Listen opens the gateway and hands commands to handler until ctx is done
func (f *Frontend) Listen(ctx context.Context, handler chat.Handler) error {
	if f.client == nil {
		return ErrNotStarted
	}

	f.mutex.Lock()
	f.handler = handler
	f.ctx = ctx
	f.mutex.Unlock()

	if err := f.client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}
	f.logger.Info("Discord gateway connected")

	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	f.client.Close(closeCtx)
	f.wg.Wait()

	f.logger.Info("Discord frontend stopped")
	return nil
}

// SendText posts text to a channel, split to fit Discord's message limit
func (f *Frontend) SendText(ctx context.Context, channelID, msg string) error {
	if f.client == nil {
		return ErrNotStarted
	}
	id, err := snowflake.Parse(channelID)
	if err != nil {
		return fmt.Errorf("invalid channel id %q: %w", channelID, err)
	}

	for _, part := range splitMessage(msg, maxMessageLength) {
		if _, err := f.client.Rest.CreateMessage(id, discord.MessageCreate{Content: part}, rest.WithCtx(ctx)); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}
	return nil
}

func (f *Frontend) registerCommands() error {
	cmds := slashCommands()

	if f.config.GuildID == "" {
		if _, err := f.client.Rest.SetGlobalCommands(f.client.ApplicationID, cmds); err != nil {
			return fmt.Errorf("failed to register global commands: %w", err)
		}
		return nil
	}

	guildID, err := snowflake.Parse(f.config.GuildID)
	if err != nil {
		return fmt.Errorf("invalid guild id %q: %w", f.config.GuildID, err)
	}
	if _, err := f.client.Rest.SetGuildCommands(f.client.ApplicationID, guildID, cmds); err != nil {
		return fmt.Errorf("failed to register guild commands: %w", err)
	}
	return nil
}

func (f *Frontend) current() (chat.Handler, context.Context) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.handler, f.ctx
}

// dispatch runs the handler off the gateway goroutine.
func (f *Frontend) dispatch(cmd *core.Command) {
	handler, ctx := f.current()
	if handler == nil {
		f.logger.Debug("Dropping command received before Listen", zap.String("command", cmd.Type.String()))
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		handler(ctx, cmd)
	}()
}

func (f *Frontend) onCommand(event *events.ApplicationCommandInteractionCreate) {
	data, ok := event.Data.(discord.SlashCommandInteractionData)
	if !ok {
		return
	}

	cmd := commandFromSlash(data)
	if cmd.Type == core.CommandUnknown {
		return
	}
	cmd.GuildID = guildString(event.GuildID())
	cmd.ChannelID = event.Channel().ID().String()
	cmd.MessageID = event.ID().String()
	cmd.Requester = core.Requester{
		ID:   event.User().ID.String(),
		Name: event.User().Username,
	}

	if err := event.DeferCreateMessage(false); err != nil {
		f.logger.Warn("Failed to acknowledge interaction", zap.Error(err))
		return
	}

	var answered atomic.Bool
	appID, token := event.ApplicationID(), event.Token()
	cmd.Reply = func(ctx context.Context, msg string) error {
		if answered.CompareAndSwap(false, true) {
			_, err := f.client.Rest.UpdateInteractionResponse(appID, token, responseEdit(msg), rest.WithCtx(ctx))
			return err
		}
		_, err := f.client.Rest.CreateFollowupMessage(appID, token, followup(msg), rest.WithCtx(ctx))
		return err
	}

	f.dispatch(cmd)
}

func (f *Frontend) onMessage(event *events.MessageCreate) {
	msg := inboundMessage{
		GuildID:     guildString(event.GuildID),
		ChannelID:   event.ChannelID.String(),
		MessageID:   event.Message.ID.String(),
		AuthorID:    event.Message.Author.ID.String(),
		AuthorName:  event.Message.Author.Username,
		FromBot:     event.Message.Author.Bot,
		Content:     event.Message.Content,
		Attachments: event.Message.Attachments,
	}

	cmd, ok := commandFromMessage(f.parser, msg)
	if !ok {
		return
	}

	f.logger.Debug("Prefix command received",
		zap.String("command", cmd.Type.String()),
		zap.String("guild", cmd.GuildID),
		zap.String("user", cmd.Requester.ID))
	f.dispatch(cmd)
}
