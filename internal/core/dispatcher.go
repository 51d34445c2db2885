package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"playernix/internal/i18n"
)

// MessageSender posts plain text to a chat channel.
type MessageSender interface {
	SendText(ctx context.Context, channelID, text string) error
}

// FloodGate limits how often a user may issue commands.
type FloodGate interface {
	Allow(guildID, userID string) bool
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Command outcomes recorded as metrics.
const (
	statusOK       = "ok"
	statusEmpty    = "empty"
	statusRejected = "rejected"
	statusFlooded  = "flooded"
	statusInvalid  = "invalid"
	statusError    = "error"
)

// Dispatcher turns chat commands into resolver and player calls and posts the
// replies. It also announces playback events, implementing Notifier.
type Dispatcher struct {
	config    *Config
	resolver  Resolver
	player    SessionPlayer
	sender    MessageSender
	flood     FloodGate
	metrics   MetricsRecorder
	localizer *i18n.Localizer
	logger    *zap.Logger
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher wires a dispatcher. flood and metrics may be nil.
func NewDispatcher(
	config *Config,
	resolver Resolver,
	player SessionPlayer,
	sender MessageSender,
	flood FloodGate,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *Dispatcher {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Dispatcher{
		config:    config,
		resolver:  resolver,
		player:    player,
		sender:    sender,
		flood:     flood,
		metrics:   metrics,
		localizer: i18n.NewLocalizer(config.App.Language),
		logger:    logger.Named("dispatcher"),
	}
}

// Handle processes one command and replies to it. It blocks until the reply
// is sent; frontends call it from their own goroutine.
func (d *Dispatcher) Handle(ctx context.Context, cmd *Command) {
	start := time.Now()
	logger := d.logger.With(
		zap.String("command", cmd.Type.String()),
		zap.String("guild", cmd.GuildID),
		zap.String("user", cmd.Requester.ID))

	status := d.handle(ctx, cmd, logger)
	d.metrics.RecordCommand(cmd.Type.String(), status)
	logger.Debug("Command handled",
		zap.String("status", status),
		zap.Duration("elapsed", time.Since(start)))
}

func (d *Dispatcher) handle(ctx context.Context, cmd *Command, logger *zap.Logger) string {
	if cmd.GuildID == "" {
		d.reply(ctx, cmd, d.localizer.T("error.guild_only"))
		return statusInvalid
	}
	if d.flood != nil && !d.flood.Allow(cmd.GuildID, cmd.Requester.ID) {
		logger.Debug("Command dropped by flood gate")
		d.reply(ctx, cmd, d.localizer.T("error.flood"))
		return statusFlooded
	}

	switch cmd.Type {
	case CommandPlay:
		return d.handlePlay(ctx, cmd, logger)
	case CommandSkip:
		return d.toggleReply(ctx, cmd, d.player.Skip(cmd.GuildID), "success.skipped")
	case CommandStop:
		return d.toggleReply(ctx, cmd, d.player.Stop(cmd.GuildID), "success.stopped")
	case CommandQueue:
		current, queued, _ := d.player.Snapshot(cmd.GuildID)
		d.reply(ctx, cmd, d.formatQueue(current, queued))
		return statusOK
	case CommandAutoplay:
		on := !isOff(cmd.Args)
		key := "success.autoplay_off"
		if on {
			key = "success.autoplay_on"
		}
		return d.toggleReply(ctx, cmd, d.player.SetAutoplay(cmd.GuildID, on), key)
	case CommandLoop:
		mode, ok := ParseLoopMode(cmd.Args)
		if !ok {
			d.reply(ctx, cmd, d.localizer.T("error.loop_mode"))
			return statusInvalid
		}
		if !d.player.SetLoop(cmd.GuildID, mode) {
			d.reply(ctx, cmd, d.localizer.T("bot.nothing_playing"))
			return statusRejected
		}
		d.reply(ctx, cmd, d.localizer.T("success.loop", mode.String()))
		return statusOK
	case CommandShuffle:
		n, ok := d.player.Shuffle(cmd.GuildID)
		switch {
		case !ok:
			d.reply(ctx, cmd, d.localizer.T("bot.nothing_playing"))
			return statusRejected
		case n == 0:
			d.reply(ctx, cmd, d.localizer.T("format.queue_empty"))
			return statusEmpty
		}
		d.reply(ctx, cmd, d.localizer.T("success.shuffled", n))
		return statusOK
	case CommandPrevious:
		t, ok := d.player.Previous(cmd.GuildID)
		if !ok {
			d.reply(ctx, cmd, d.localizer.T("bot.no_previous"))
			return statusRejected
		}
		d.reply(ctx, cmd, d.localizer.T("success.previous", t.Title))
		return statusOK
	case CommandPause:
		return d.toggleReply(ctx, cmd, d.player.Pause(cmd.GuildID), "success.paused")
	case CommandResume:
		return d.toggleReply(ctx, cmd, d.player.Resume(cmd.GuildID), "success.resumed")
	case CommandNowPlaying:
		np, ok := d.player.NowPlaying(cmd.GuildID)
		if !ok {
			d.reply(ctx, cmd, d.localizer.T("bot.nothing_playing"))
			return statusRejected
		}
		d.reply(ctx, cmd, d.formatNowPlaying(np))
		return statusOK
	default:
		d.reply(ctx, cmd, d.localizer.T("error.unknown_command", cmd.Args))
		return statusInvalid
	}
}

func (d *Dispatcher) handlePlay(ctx context.Context, cmd *Command, logger *zap.Logger) string {
	query := strings.TrimSpace(cmd.Args)
	if query == "" && cmd.Attachment == nil {
		d.reply(ctx, cmd, d.localizer.T("error.empty_query", d.config.Discord.CommandPrefix))
		return statusInvalid
	}

	res, err := d.resolver.Resolve(ctx, query, cmd.Attachment, cmd.Requester)
	if errors.Is(err, ErrUnsupportedAttachment) {
		d.reply(ctx, cmd, d.localizer.T("error.attachment_type", attachmentType(cmd.Attachment)))
		return statusRejected
	}
	if err != nil {
		logger.Error("Resolution failed", zap.Error(err))
		d.reply(ctx, cmd, d.localizer.T("error.generic"))
		return statusError
	}
	if res.IsEmpty() {
		if query == "" && cmd.Attachment != nil {
			query = cmd.Attachment.Filename
		}
		d.reply(ctx, cmd, d.localizer.T("error.no_results", query))
		return statusEmpty
	}

	position, err := d.player.Enqueue(ctx, cmd.GuildID, cmd.ChannelID, res.Tracks)
	if err != nil {
		logger.Error("Failed to enqueue tracks", zap.Error(err))
		d.reply(ctx, cmd, d.localizer.T("error.generic"))
		return statusError
	}

	if res.Kind == ResultPlaylist {
		d.reply(ctx, cmd, d.localizer.T("success.playlist_queued", len(res.Tracks), res.PlaylistName))
	} else {
		t := res.Tracks[0]
		d.reply(ctx, cmd, d.localizer.T("success.queued", t.Title, d.durationLabel(t), position))
	}
	return statusOK
}

// toggleReply answers a command that only succeeds while a session exists.
func (d *Dispatcher) toggleReply(ctx context.Context, cmd *Command, ok bool, key string) string {
	if !ok {
		d.reply(ctx, cmd, d.localizer.T("bot.nothing_playing"))
		return statusRejected
	}
	d.reply(ctx, cmd, d.localizer.T(key))
	return statusOK
}

// Notify announces playback events in the channel the session was started from.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	text := d.formatEvent(ev)
	if text == "" || ev.ChannelID == "" || d.sender == nil {
		return
	}
	if err := d.sender.SendText(ctx, ev.ChannelID, text); err != nil {
		d.logger.Warn("Failed to announce playback event",
			zap.String("event", ev.Type.String()),
			zap.String("guild", ev.GuildID),
			zap.Error(err))
	}
}

func (d *Dispatcher) reply(ctx context.Context, cmd *Command, text string) {
	var err error
	switch {
	case cmd.Reply != nil:
		err = cmd.Reply(ctx, text)
	case d.sender != nil:
		err = d.sender.SendText(ctx, cmd.ChannelID, text)
	default:
		return
	}
	if err != nil {
		d.logger.Warn("Failed to send reply",
			zap.String("channel", cmd.ChannelID),
			zap.Error(err))
	}
}

func attachmentType(a *Attachment) string {
	if a == nil || a.ContentType == "" {
		return "unknown"
	}
	return a.ContentType
}

func isOff(arg string) bool {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "off", "false", "0", "disable", "no":
		return true
	}
	return false
}
