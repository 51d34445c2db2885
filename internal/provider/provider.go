// Package provider adapts audio sources (YouTube Music, YouTube, SoundCloud and
// plain audio links) to one resolve/stream interface.
package provider

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
)

// Media types reported on opened streams.
const (
	MediaTypeWebmOpus  = "webm/opus"
	MediaTypeArbitrary = "arbitrary"
)

// Provider is one audio source. Resolve returns an empty result when nothing
// matches and a *core.ProviderError on failure; OpenStream returns a
// *core.StreamError.
type Provider interface {
	Name() string
	Source() core.Source
	Resolve(ctx context.Context, q core.Query) (core.Result, error)
	OpenStream(ctx context.Context, t core.Track) (*core.Stream, error)
}

// Searcher is a text search backend.
type Searcher interface {
	Name() string
	Search(ctx context.Context, text string, limit int) ([]core.Track, error)
}

// Extractor is the subset of the yt-dlp client the providers use.
type Extractor interface {
	Search(ctx context.Context, prefix, query string, limit int) ([]ytdlp.Entry, error)
	Metadata(ctx context.Context, url string) (*ytdlp.Entry, error)
	Playlist(ctx context.Context, url string, limit int) (string, []ytdlp.Entry, error)
	Stream(ctx context.Context, url string) (io.ReadCloser, error)
}

var _ Extractor = (*ytdlp.Client)(nil)

// Options are shared by all providers.
type Options struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	SearchLimit       int
}

// OptionsFromConfig reads provider options from the loaded configuration.
func OptionsFromConfig(cfg core.ProvidersConfig) Options {
	return Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.ProviderTimeout(),
		SearchLimit:       cfg.SearchLimit,
	}
}

// base holds the rate limiter and deadline every provider call goes through.
type base struct {
	name    string
	source  core.Source
	limiter *rate.Limiter
	timeout time.Duration
	limit   int
	logger  *zap.Logger
}

func newBase(name string, source core.Source, opts Options, logger *zap.Logger) base {
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}
	searchLimit := opts.SearchLimit
	if searchLimit <= 0 {
		searchLimit = core.DefaultSearchLimit
	}
	return base{
		name:    name,
		source:  source,
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.Timeout,
		limit:   searchLimit,
		logger:  logger.Named(name),
	}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Source() core.Source {
	return b.source
}

// begin takes a limiter token and applies the provider deadline. An empty
// bucket fails immediately.
func (b *base) begin(ctx context.Context, query string) (context.Context, context.CancelFunc, error) {
	if !b.limiter.Allow() {
		return nil, nil, core.NewProviderError(core.ProviderRateLimited, b.name, query, nil)
	}
	if b.timeout <= 0 {
		ctx, cancel := context.WithCancel(ctx)
		return ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return ctx, cancel, nil
}

// fail wraps err as a ProviderError of the given kind unless it already is one.
func (b *base) fail(kind core.ProviderErrorKind, query string, err error) error {
	var pe *core.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return core.NewProviderError(kind, b.name, query, err)
}

func (b *base) searchLimit(q core.Query) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return b.limit
}

// openExtractorStream streams a track through yt-dlp. A process that cannot
// produce audio is unavailable; read errors later on are transport failures.
func (b *base) openExtractorStream(ctx context.Context, ext Extractor, t core.Track, mediaType string) (*core.Stream, error) {
	if ext == nil {
		return nil, core.NewStreamError(core.StreamUnavailable, b.name, t.URL, errors.New("no extractor configured"))
	}
	body, err := ext.Stream(ctx, t.URL)
	if err != nil {
		return nil, core.NewStreamError(core.StreamUnavailable, b.name, t.URL, err)
	}
	return &core.Stream{
		Body:      &transportReader{ReadCloser: body, provider: b.name, url: t.URL},
		MediaType: mediaType,
		Track:     t,
		Source:    b.source,
	}, nil
}

// transportReader reports mid-stream read errors as transport failures.
type transportReader struct {
	io.ReadCloser
	provider string
	url      string
}

func (r *transportReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, core.NewStreamError(core.StreamTransportFailure, r.provider, r.url, err)
	}
	return n, err
}

// entryTracks converts yt-dlp entries, dropping those without a title or URL.
func entryTracks(entries []ytdlp.Entry, source core.Source, urlFor func(ytdlp.Entry) string) []core.Track {
	tracks := make([]core.Track, 0, len(entries))
	for _, e := range entries {
		t, err := entryTrack(e, source, urlFor)
		if err != nil {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func entryTrack(e ytdlp.Entry, source core.Source, urlFor func(ytdlp.Entry) string) (core.Track, error) {
	link := e.URL
	if urlFor != nil {
		link = urlFor(e)
	}
	return core.NewTrack(core.Track{
		Title:     e.Title,
		URL:       link,
		Duration:  e.Duration,
		Thumbnail: e.Thumbnail,
		Author:    e.Uploader,
		Source:    source,
	})
}

// IsYouTubeURL reports whether a link points at youtube.com, youtu.be or
// music.youtube.com.
func IsYouTubeURL(rawURL string) bool {
	host := hostOf(rawURL)
	switch host {
	case "youtu.be", "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		return true
	}
	return false
}

// IsSoundCloudURL reports whether a link points at SoundCloud.
func IsSoundCloudURL(rawURL string) bool {
	host := hostOf(rawURL)
	return host == "soundcloud.com" || host == "m.soundcloud.com" || host == "on.soundcloud.com"
}

// IsSpotifyURL reports whether a link points at a Spotify page or share link.
func IsSpotifyURL(rawURL string) bool {
	if strings.HasPrefix(rawURL, "spotify:") {
		return true
	}
	host := hostOf(rawURL)
	return host == "open.spotify.com" || host == "spotify.link" || host == "spotify.app.link"
}

// IsYouTubePlaylistURL reports whether a YouTube link names a playlist.
func IsYouTubePlaylistURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, "/playlist") || u.Query().Get("list") != ""
}

// IsSoundCloudSetURL reports whether a SoundCloud link names a set.
func IsSoundCloudSetURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "/sets/")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
