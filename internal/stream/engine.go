// Package stream opens audio for queued tracks and, when the track's own
// source fails, finds the same song on another source.
package stream

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/provider"
	"playernix/internal/ytdlp"
)

// Engine maps a track's source to the provider that streams it and to the
// provider searched when that fails. It is safe for concurrent use.
type Engine struct {
	primary  map[core.Source]provider.Provider
	fallback map[core.Source]provider.Provider
	window   int
	metrics  core.MetricsRecorder
	logger   *zap.Logger
}

// NewEngine wires youtube → soundcloud, soundcloud → youtube and
// direct → youtube.
func NewEngine(youtube, soundcloud, direct provider.Provider, window int, metrics core.MetricsRecorder, logger *zap.Logger) *Engine {
	if window <= 0 {
		window = core.DefaultFallbackWindow
	}
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	return &Engine{
		primary: map[core.Source]provider.Provider{
			core.SourceYouTube:    youtube,
			core.SourceSoundCloud: soundcloud,
			core.SourceDirect:     direct,
		},
		fallback: map[core.Source]provider.Provider{
			core.SourceYouTube:    soundcloud,
			core.SourceSoundCloud: youtube,
			core.SourceDirect:     youtube,
		},
		window:  window,
		metrics: metrics,
		logger:  logger.Named("stream"),
	}
}

// OpenStreamWithFallback opens t's own URL and, on failure, streams the top
// hit of a search for t's fallback key on another source. The returned
// stream always carries t. Only one fallback hop is made.
func (e *Engine) OpenStreamWithFallback(ctx context.Context, t core.Track) (*core.Stream, error) {
	logger := e.logger.With(
		zap.String("title", t.Title),
		zap.String("url", t.URL),
		zap.String("source", string(t.Source)))

	logger.Debug("Opening stream", zap.String("state", "primary_attempt"))
	s, primaryErr := e.openPrimary(ctx, t)
	if primaryErr == nil {
		e.metrics.RecordStream("primary")
		return s, nil
	}

	key := strings.TrimSpace(t.FallbackKey())
	fb := e.fallback[t.Source]
	if key == "" || fb == nil {
		logger.Debug("No fallback available", zap.String("state", "exhausted"), zap.Error(primaryErr))
		return nil, e.exhausted(t, primaryErr)
	}

	logger.Debug("Primary stream failed, searching fallback",
		zap.String("state", "fallback_search"),
		zap.String("provider", fb.Name()),
		zap.String("query", key),
		zap.Error(primaryErr))

	res, err := fb.Resolve(ctx, core.Query{
		Raw:   searchPrefix(fb.Source()) + ":" + key,
		Text:  key,
		Type:  core.QueryTypeSearchText,
		Limit: e.window,
	})
	if err != nil || res.IsEmpty() {
		logger.Debug("Fallback search found nothing", zap.String("state", "exhausted"), zap.Error(err))
		return nil, e.exhausted(t, primaryErr)
	}

	candidate := res.Tracks[0]
	logger.Debug("Opening fallback stream",
		zap.String("state", "fallback_stream_attempt"),
		zap.String("candidate", candidate.URL))

	s, err = fb.OpenStream(ctx, candidate)
	if err != nil {
		logger.Debug("Fallback stream failed", zap.String("state", "exhausted"), zap.Error(err))
		return nil, e.exhausted(t, primaryErr)
	}

	logger.Info("Streaming from fallback source",
		zap.String("provider", fb.Name()),
		zap.String("candidate", candidate.URL))
	e.metrics.RecordStream("fallback")
	s.Track = t
	s.Source = fb.Source()
	s.Fallback = true
	return s, nil
}

func (e *Engine) openPrimary(ctx context.Context, t core.Track) (*core.Stream, error) {
	p := e.primary[t.Source]
	if p == nil {
		return nil, core.NewStreamError(core.StreamUnavailable, string(t.Source), t.URL, errors.New("no provider for source"))
	}
	s, err := p.OpenStream(ctx, t)
	if err != nil {
		return nil, err
	}
	s.Track = t
	return s, nil
}

func searchPrefix(source core.Source) string {
	switch source {
	case core.SourceSoundCloud:
		return ytdlp.SearchSoundCloud
	case core.SourceYouTube:
		return ytdlp.SearchYouTube
	}
	return string(source)
}

func (e *Engine) exhausted(t core.Track, primaryErr error) error {
	e.metrics.RecordStream("exhausted")
	return core.NewStreamError(core.StreamAllProvidersExhausted, "", t.URL, primaryErr)
}
