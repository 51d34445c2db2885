// Package spotify resolves Spotify track links into a title and artist that
// can be searched for on streamable sources.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"playernix/internal/core"
	"playernix/pkg/musiclink"
	"playernix/pkg/text"
)

const (
	// URLResolveTimeout bounds resolving a spotify.link short link
	URLResolveTimeout = 10 * time.Second
	// MaxRedirects is the number of redirects followed for short links
	MaxRedirects = 5
	// ReadBufferSize caps how much of a short link landing page is scanned
	ReadBufferSize = 256 * 1024
	// AppLinkDomain is the domain of Spotify's app deep links
	AppLinkDomain = "spotify.app.link"
	// ShortLinkDomain is the domain of Spotify's share links
	ShortLinkDomain = "spotify.link"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var trackURLRegex = regexp.MustCompile(`https://open\.spotify\.com/track/[a-zA-Z0-9]+`)

// ErrNoCredentials is returned by Resolve when the client was built without
// API credentials.
var ErrNoCredentials = errors.New("spotify credentials not configured")

type trackGetter interface {
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
}

// Client looks up track metadata with the client-credentials flow. It
// implements musiclink.Resolver.
type Client struct {
	logger *zap.Logger
	api    trackGetter
	http   *http.Client
}

var _ musiclink.Resolver = (*Client)(nil)

// NewClient builds a resolver. The token is fetched lazily on the first
// request and refreshed by the oauth2 transport.
func NewClient(config *core.SpotifyConfig, logger *zap.Logger) *Client {
	c := &Client{
		logger: logger.Named("spotify"),
		http: &http.Client{
			Timeout: URLResolveTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}

	if config != nil && config.Enabled() {
		creds := &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		c.api = spotify.New(creds.Client(context.Background()))
	}

	return c
}

// CanResolve reports whether the link points at a Spotify track.
func (c *Client) CanResolve(rawURL string) bool {
	if strings.HasPrefix(rawURL, "spotify:track:") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Hostname()) {
	case "open.spotify.com":
		return strings.Contains(u.Path, "/track/")
	case ShortLinkDomain, AppLinkDomain:
		return true
	}
	return false
}

// Resolve fetches the track's name, artists and duration.
func (c *Client) Resolve(ctx context.Context, rawURL string) (*musiclink.TrackInfo, error) {
	if c.api == nil {
		return nil, ErrNoCredentials
	}

	trackID, err := c.ExtractTrackID(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	track, err := c.api.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	info := convertTrack(track)
	c.logger.Debug("Resolved Spotify track",
		zap.String("id", trackID),
		zap.String("title", info.Title),
		zap.String("artist", info.Artist))
	return info, nil
}

// ExtractTrackID returns the track id of a link, following share links when
// needed.
func (c *Client) ExtractTrackID(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == ShortLinkDomain || hostname == AppLinkDomain {
		resolved, err := c.resolveShortURL(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("failed to resolve shortened URL: %w", err)
		}
		return text.ExtractSpotifyTrackID(resolved)
	}

	return text.ExtractSpotifyTrackID(rawURL)
}

// resolveShortURL follows redirects and, when they do not end on a track
// page, scans the landing page for a track link.
func (c *Client) resolveShortURL(ctx context.Context, shortURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, URLResolveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shortURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	final := resp.Request.URL
	if strings.EqualFold(final.Hostname(), "open.spotify.com") && strings.Contains(final.Path, "/track/") {
		return final.String(), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, ReadBufferSize))
	if err != nil {
		return "", err
	}
	if match := trackURLRegex.FindString(string(body)); match != "" {
		return match, nil
	}

	return "", errors.New("could not find Spotify track URL in page content")
}

func convertTrack(track *spotify.FullTrack) *musiclink.TrackInfo {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return &musiclink.TrackInfo{
		Title:    track.Name,
		Artist:   strings.Join(artists, ", "),
		Duration: time.Duration(track.Duration) * time.Millisecond,
		ISRC:     track.ExternalIDs["isrc"],
		Service:  "spotify",
	}
}
