// Package text parses chat messages into commands and cleans the links inside them.
package text

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"playernix/internal/core"
)

const (
	// MinPartsForTrackInfo represents the minimum number of parts needed for track info
	MinPartsForTrackInfo = 3
)

var (
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	commandAliases = map[string]core.CommandType{
		"p":          core.CommandPlay,
		"play":       core.CommandPlay,
		"s":          core.CommandSkip,
		"skip":       core.CommandSkip,
		"stop":       core.CommandStop,
		"leave":      core.CommandStop,
		"q":          core.CommandQueue,
		"queue":      core.CommandQueue,
		"ap":         core.CommandAutoplay,
		"autoplay":   core.CommandAutoplay,
		"l":          core.CommandLoop,
		"loop":       core.CommandLoop,
		"shuffle":    core.CommandShuffle,
		"mix":        core.CommandShuffle,
		"prev":       core.CommandPrevious,
		"previous":   core.CommandPrevious,
		"back":       core.CommandPrevious,
		"pause":      core.CommandPause,
		"resume":     core.CommandResume,
		"unpause":    core.CommandResume,
		"np":         core.CommandNowPlaying,
		"nowplaying": core.CommandNowPlaying,
	}

	trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si", "feature"}
)

// Parsed is one prefix command found in a chat message.
type Parsed struct {
	Type core.CommandType
	Name string
	Args string
	URLs []string
}

type Parser struct {
	prefix string
}

func NewParser(prefix string) *Parser {
	if prefix == "" {
		prefix = core.DefaultCommandPrefix
	}
	return &Parser{prefix: prefix}
}

// Prefix returns the command prefix this parser matches.
func (p *Parser) Prefix() string {
	return p.prefix
}

// ParseMessage returns the command in text. ok is false when the message does
// not start with the prefix. Unknown names still parse, with CommandUnknown.
func (p *Parser) ParseMessage(text string) (Parsed, bool) {
	text = p.normalizeText(text)
	if !strings.HasPrefix(text, p.prefix) {
		return Parsed{}, false
	}

	body := strings.TrimSpace(strings.TrimPrefix(text, p.prefix))
	if body == "" {
		return Parsed{}, false
	}

	name, args, _ := strings.Cut(body, " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)

	return Parsed{
		Type: CommandFromName(name),
		Name: name,
		Args: p.cleanArgs(args),
		URLs: p.extractURLs(args),
	}, true
}

// CommandFromName maps a command name or alias to its type.
func CommandFromName(name string) core.CommandType {
	if t, ok := commandAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return core.CommandUnknown
}

func (p *Parser) normalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = norm.NFKC.String(text)

	lines := strings.Split(text, "\n")
	var normalizedLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			normalizedLines = append(normalizedLines, line)
		}
	}

	return whitespaceRegex.ReplaceAllString(strings.Join(normalizedLines, " "), " ")
}

// cleanArgs strips tracking parameters from an argument that is a single link
// and leaves search text alone.
func (p *Parser) cleanArgs(args string) string {
	if strings.ContainsAny(args, " \t") {
		return args
	}
	if cleaned := p.cleanURL(args); cleaned != "" {
		return cleaned
	}
	return args
}

func (p *Parser) extractURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	var cleanURLs []string

	for _, match := range matches {
		cleanURL := p.cleanURL(match)
		if cleanURL != "" {
			cleanURLs = append(cleanURLs, cleanURL)
		}
	}

	return cleanURLs
}

// CleanURL removes tracking parameters. It returns "" for anything that is not
// an absolute http(s) link.
func CleanURL(rawURL string) string {
	return (&Parser{}).cleanURL(rawURL)
}

func (p *Parser) cleanURL(rawURL string) string {
	rawURL = strings.TrimRight(rawURL, ".,!?;>")
	rawURL = strings.TrimLeft(rawURL, "<")

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if u.Host == "" {
		return ""
	}

	q := u.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// ExtractSpotifyTrackID returns the track id of an open.spotify.com link or a
// spotify:track: URI.
func ExtractSpotifyTrackID(rawURL string) (string, error) {
	if strings.HasPrefix(rawURL, "spotify:track:") {
		parts := strings.Split(rawURL, ":")
		if len(parts) >= MinPartsForTrackInfo && parts[2] != "" {
			return parts[2], nil
		}
		return "", errors.New("invalid spotify URI")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", errors.New("invalid URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	pathParts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range pathParts {
		if part == "track" && i+1 < len(pathParts) && pathParts[i+1] != "" {
			return pathParts[i+1], nil
		}
	}

	return "", errors.New("no track id in URL")
}
