package discord

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"playernix/internal/core"
	"playernix/pkg/text"
)

const (
	maxMessageLength = 2000
	shutdownTimeout  = 5 * time.Second

	optionQuery = "query"
	optionFile  = "file"
	optionMode  = "mode"
)

func slashCommands() []discord.ApplicationCommandCreate {
	guildOnly := []discord.InteractionContextType{discord.InteractionContextTypeGuild}

	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        "play",
			Description: "Play a link, a search or an uploaded audio file",
			Contexts:    guildOnly,
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        optionQuery,
					Description: "Link or search text, ytsearch: and scsearch: prefixes pick the source",
				},
				discord.ApplicationCommandOptionAttachment{
					Name:        optionFile,
					Description: "Audio file to play",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "skip",
			Description: "Skip the current track",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "queue",
			Description: "Show the current track and what plays next",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "autoplay",
			Description: "Queue related tracks when the queue runs out",
			Contexts:    guildOnly,
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        optionMode,
					Description: "on or off",
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "on", Value: "on"},
						{Name: "off", Value: "off"},
					},
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "loop",
			Description: "Repeat the current track or the whole queue",
			Contexts:    guildOnly,
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        optionMode,
					Description: "off, track or queue",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "off", Value: "off"},
						{Name: "track", Value: "track"},
						{Name: "queue", Value: "queue"},
					},
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        "shuffle",
			Description: "Shuffle the upcoming tracks",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "previous",
			Description: "Play the previous track again",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "pause",
			Description: "Pause the current track",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "resume",
			Description: "Resume the paused track",
			Contexts:    guildOnly,
		},
		discord.SlashCommandCreate{
			Name:        "nowplaying",
			Description: "Show the current track and its progress",
			Contexts:    guildOnly,
		},
	}
}

func commandFromSlash(data discord.SlashCommandInteractionData) *core.Command {
	var (
		arg string
		att *discord.Attachment
	)
	if q, ok := data.OptString(optionQuery); ok {
		arg = q
	} else if m, ok := data.OptString(optionMode); ok {
		arg = m
	}
	if a, ok := data.OptAttachment(optionFile); ok {
		att = &a
	}
	return buildSlashCommand(data.CommandName(), arg, att)
}

func buildSlashCommand(name, arg string, att *discord.Attachment) *core.Command {
	cmd := &core.Command{
		Type: text.CommandFromName(name),
		Args: strings.TrimSpace(arg),
	}
	if cmd.Type == core.CommandPlay && att != nil {
		cmd.Attachment = toAttachment(*att)
	}
	return cmd
}

// inboundMessage is the part of a gateway message the frontend reads.
type inboundMessage struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	AuthorID    string
	AuthorName  string
	FromBot     bool
	Content     string
	Attachments []discord.Attachment
}

// commandFromMessage decodes a prefix command. A play command without
// arguments takes the first attached file.
func commandFromMessage(parser *text.Parser, msg inboundMessage) (*core.Command, bool) {
	if msg.FromBot {
		return nil, false
	}
	parsed, ok := parser.ParseMessage(msg.Content)
	if !ok || parsed.Type == core.CommandUnknown {
		return nil, false
	}

	cmd := &core.Command{
		Type:      parsed.Type,
		Args:      parsed.Args,
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		MessageID: msg.MessageID,
		Requester: core.Requester{ID: msg.AuthorID, Name: msg.AuthorName},
	}
	if cmd.Type == core.CommandPlay && cmd.Args == "" && len(msg.Attachments) > 0 {
		cmd.Attachment = toAttachment(msg.Attachments[0])
	}
	return cmd, true
}

func toAttachment(a discord.Attachment) *core.Attachment {
	out := &core.Attachment{
		URL:      a.URL,
		Filename: a.Filename,
		Size:     a.Size,
	}
	if a.ContentType != nil {
		out.ContentType = *a.ContentType
	}
	return out
}

func guildString(id *snowflake.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// responseEdit fills in a deferred interaction response.
func responseEdit(msg string) discord.MessageUpdate {
	return discord.NewMessageUpdate().WithContent(truncateMessage(msg, maxMessageLength))
}

func followup(msg string) discord.MessageCreate {
	return discord.NewMessageCreate().WithContent(truncateMessage(msg, maxMessageLength))
}

// splitMessage cuts s into parts of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitMessage(s string, limit int) []string {
	if s == "" {
		return nil
	}

	var parts []string
	for len(s) > limit {
		cut := strings.LastIndexByte(s[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		parts = append(parts, s[:cut])
		s = strings.TrimPrefix(s[cut:], "\n")
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

func truncateMessage(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - len("…")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
