// Package resolve turns user input into playable tracks by classifying it and
// walking the provider cascade.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/provider"
	"playernix/internal/ytdlp"
	"playernix/pkg/musiclink"
	"playernix/pkg/ranking"
)

// Providers are the adapters the engine routes to. Direct also receives
// attachments.
type Providers struct {
	YouTubeMusic provider.Provider
	YouTube      provider.Provider
	SoundCloud   provider.Provider
	Direct       provider.Provider
}

// LinkResolver turns a music service link into a title and artist.
// *musiclink.Manager implements it.
type LinkResolver interface {
	CanResolve(url string) bool
	Resolve(ctx context.Context, url string) (*musiclink.TrackInfo, error)
}

var _ LinkResolver = (*musiclink.Manager)(nil)

type step struct {
	prefix   string
	provider provider.Provider
}

// Engine is safe for concurrent use; it keeps no per-request state.
type Engine struct {
	providers   Providers
	links       LinkResolver
	cascade     []step
	timeout     time.Duration
	minDuration time.Duration
	searchLimit int
	metrics     core.MetricsRecorder
	logger      *zap.Logger
}

// NewEngine wires the cascade ytmsearch → ytsearch → scsearch. links may be nil.
func NewEngine(providers Providers, links LinkResolver, config *core.Config, metrics core.MetricsRecorder, logger *zap.Logger) *Engine {
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	return &Engine{
		providers: providers,
		links:     links,
		cascade: []step{
			{prefix: ytdlp.SearchYouTubeMusic, provider: providers.YouTubeMusic},
			{prefix: ytdlp.SearchYouTube, provider: providers.YouTube},
			{prefix: ytdlp.SearchSoundCloud, provider: providers.SoundCloud},
		},
		timeout:     config.Resolver.ResolveTimeout(),
		minDuration: config.Resolver.MinDuration(),
		searchLimit: config.Providers.SearchLimit,
		metrics:     metrics,
		logger:      logger.Named("resolve"),
	}
}

// Resolve classifies raw (or the attachment, which wins) and returns the
// tracks to enqueue. Provider failures never surface; the only error is a
// rejected attachment.
func (e *Engine) Resolve(ctx context.Context, raw string, attachment *core.Attachment, by core.Requester) (core.Result, error) {
	start := time.Now()
	logger := e.logger.With(zap.String("request_id", uuid.NewString()))

	var (
		res core.Result
		err error
		qt  core.QueryType
	)

	raw = strings.TrimSpace(raw)
	switch {
	case attachment != nil:
		qt = core.QueryTypeAttachment
		res, err = e.resolveAttachment(ctx, attachment, logger)
	case raw == "":
		return core.EmptyResult(), nil
	default:
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		if isDirectURL(raw) {
			res, qt = e.resolveURL(ctx, raw, logger)
		} else {
			qt = core.QueryTypeSearchText
			res = e.resolveSearch(ctx, raw, logger)
		}
	}

	res = attach(res, by, qt)
	e.metrics.RecordResolution(res.Kind.String(), time.Since(start))
	logger.Debug("Resolution finished",
		zap.String("query", raw),
		zap.String("type", qt.String()),
		zap.String("kind", res.Kind.String()),
		zap.Int("tracks", len(res.Tracks)),
		zap.Duration("elapsed", time.Since(start)))
	return res, err
}

func (e *Engine) resolveAttachment(ctx context.Context, a *core.Attachment, logger *zap.Logger) (core.Result, error) {
	q := core.Query{
		Raw:         a.URL,
		Text:        a.URL,
		IsDirectURL: true,
		Type:        core.QueryTypeAttachment,
		Attachment:  a,
	}
	res, err := e.attempt(ctx, e.providers.Direct, q, logger)
	if errors.Is(err, core.ErrUnsupportedAttachment) {
		return core.EmptyResult(), fmt.Errorf("%w: %q", core.ErrUnsupportedAttachment, a.ContentType)
	}
	return e.single(res, a.URL, false), nil
}

// resolveURL routes a link by host. Links never cascade, except that music
// service links become a search for their title and artist.
func (e *Engine) resolveURL(ctx context.Context, link string, logger *zap.Logger) (core.Result, core.QueryType) {
	var (
		p  provider.Provider
		qt core.QueryType
	)

	switch {
	case provider.IsYouTubeURL(link):
		p, qt = e.providers.YouTube, core.QueryTypeURLYouTube
	case provider.IsSoundCloudURL(link):
		p, qt = e.providers.SoundCloud, core.QueryTypeURLSoundCloud
	case provider.IsSpotifyURL(link):
		return e.resolveLink(ctx, link, logger), core.QueryTypeURLSpotify
	case e.links != nil && e.links.CanResolve(link):
		if res := e.resolveLink(ctx, link, logger); !res.IsEmpty() {
			return res, core.QueryTypeURLPage
		}
		p, qt = e.providers.Direct, core.QueryTypeURLOther
	default:
		p, qt = e.providers.Direct, core.QueryTypeURLOther
	}

	q := core.Query{Raw: link, Text: link, IsDirectURL: true, Type: qt}
	res, _ := e.attempt(ctx, p, q, logger)
	if res.Kind == core.ResultPlaylist {
		return res, qt
	}
	return e.single(res, link, false), qt
}

// resolveLink searches for the title and artist behind a music service link.
func (e *Engine) resolveLink(ctx context.Context, link string, logger *zap.Logger) core.Result {
	if e.links == nil {
		return core.EmptyResult()
	}
	info, err := e.links.Resolve(ctx, link)
	if err != nil {
		logger.Warn("Link resolution failed", zap.String("url", link), zap.Error(err))
		return core.EmptyResult()
	}

	phrase := info.SearchPhrase()
	logger.Debug("Resolved link to search phrase",
		zap.String("url", link),
		zap.String("service", info.Service),
		zap.String("phrase", phrase))
	return e.cascadeFrom(ctx, 0, phrase, logger)
}

// resolveSearch honours a user-typed ytmsearch:/ytsearch:/scsearch: prefix as
// the cascade entry point and otherwise starts at YouTube Music.
func (e *Engine) resolveSearch(ctx context.Context, raw string, logger *zap.Logger) core.Result {
	start, text := 0, raw
	for i, s := range e.cascade {
		if rest, ok := strings.CutPrefix(raw, s.prefix+":"); ok {
			start, text = i, strings.TrimSpace(rest)
			break
		}
	}
	if text == "" {
		return core.EmptyResult()
	}
	return e.cascadeFrom(ctx, start, text, logger)
}

// cascadeFrom tries the search steps in order and stops at the first
// non-empty result. Attempts run one after another.
func (e *Engine) cascadeFrom(ctx context.Context, start int, text string, logger *zap.Logger) core.Result {
	for _, s := range e.cascade[start:] {
		if ctx.Err() != nil {
			logger.Warn("Resolve deadline reached, skipping remaining providers",
				zap.String("query", text),
				zap.String("next", s.prefix))
			break
		}

		q := core.Query{
			Raw:   s.prefix + ":" + text,
			Text:  text,
			Type:  core.QueryTypeSearchText,
			Limit: e.searchLimit,
		}
		res, _ := e.attempt(ctx, s.provider, q, logger)
		if res.IsEmpty() {
			continue
		}
		if res.Kind == core.ResultPlaylist {
			return res
		}
		return e.single(res, text, true)
	}
	return core.EmptyResult()
}

// attempt runs one provider call. Failures are logged and reported as an
// empty result alongside the error.
func (e *Engine) attempt(ctx context.Context, p provider.Provider, q core.Query, logger *zap.Logger) (core.Result, error) {
	if p == nil {
		return core.EmptyResult(), nil
	}

	res, err := p.Resolve(ctx, q)
	switch {
	case err != nil:
		kind, _ := core.ProviderErrorKindOf(err)
		e.metrics.RecordProviderAttempt(p.Name(), outcome(kind))
		logger.Warn("Provider attempt failed",
			zap.String("provider", p.Name()),
			zap.String("query", q.Raw),
			zap.Error(err))
		return core.EmptyResult(), err
	case res.IsEmpty():
		e.metrics.RecordProviderAttempt(p.Name(), "empty")
		logger.Debug("Provider returned nothing",
			zap.String("provider", p.Name()),
			zap.String("query", q.Raw))
		return core.EmptyResult(), nil
	default:
		e.metrics.RecordProviderAttempt(p.Name(), "hit")
		return res, nil
	}
}

// single reduces a non-playlist result to its best track, ranked against
// query: the search text, or the link itself for URLs. Only search hits are
// duration filtered.
func (e *Engine) single(res core.Result, query string, search bool) core.Result {
	if res.IsEmpty() {
		return core.EmptyResult()
	}
	tracks := res.Tracks
	if search {
		tracks = ranking.DurationFilter(tracks, e.minDuration)
	}
	best, ok := ranking.Best(tracks, query)
	if !ok {
		return core.EmptyResult()
	}
	return core.SingleResult(best)
}

func attach(res core.Result, by core.Requester, qt core.QueryType) core.Result {
	if res.IsEmpty() {
		return core.EmptyResult()
	}
	tracks := make([]core.Track, len(res.Tracks))
	for i, t := range res.Tracks {
		t.RequestedBy = by
		t.QueryType = qt
		tracks[i] = t
	}
	res.Tracks = tracks
	return res
}

func isDirectURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func outcome(kind core.ProviderErrorKind) string {
	if kind == "" {
		return "error"
	}
	return string(kind)
}
