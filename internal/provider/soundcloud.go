package provider

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
	"playernix/pkg/ranking"
)

var errEmptySet = errors.New("set has no playable entries")

// SoundCloud resolves track and set links and answers scsearch: queries.
type SoundCloud struct {
	base
	ext      Extractor
	search   Searcher
	fallback Searcher
}

// NewSoundCloud creates the SoundCloud provider. fallback is the search used
// when a track or set link cannot be read directly.
func NewSoundCloud(ext Extractor, fallback Searcher, opts Options, logger *zap.Logger) *SoundCloud {
	return &SoundCloud{
		base:     newBase("soundcloud", core.SourceSoundCloud, opts, logger),
		ext:      ext,
		search:   NewExtractorSearcher("scsearch", ytdlp.SearchSoundCloud, core.SourceSoundCloud, ext),
		fallback: fallback,
	}
}

func (p *SoundCloud) Resolve(ctx context.Context, q core.Query) (core.Result, error) {
	ctx, cancel, err := p.begin(ctx, q.Raw)
	if err != nil {
		return core.EmptyResult(), err
	}
	defer cancel()

	if !q.IsDirectURL {
		return p.searchResult(ctx, p.search, q)
	}

	if IsSoundCloudSetURL(q.Text) {
		name, entries, err := p.ext.Playlist(ctx, q.Text, 0)
		if err != nil {
			return p.resolveFromPath(ctx, q, core.ProviderNotFound, err)
		}
		res := core.PlaylistResult(name, entryTracks(entries, core.SourceSoundCloud, nil))
		if res.IsEmpty() {
			return p.resolveFromPath(ctx, q, core.ProviderNotFound, errEmptySet)
		}
		return res, nil
	}

	entry, err := p.ext.Metadata(ctx, q.Text)
	if err == nil {
		t, terr := entryTrack(*entry, core.SourceSoundCloud, nil)
		if terr == nil {
			return core.SingleResult(t), nil
		}
		err = terr
	}

	return p.resolveFromPath(ctx, q, metadataErrorKind(err), err)
}

// resolveFromPath searches for the words in the link's last path segment.
// Never fails: when the search finds nothing the result is empty.
func (p *SoundCloud) resolveFromPath(ctx context.Context, q core.Query, kind core.ProviderErrorKind, cause error) (core.Result, error) {
	phrase := PathPhrase(q.Text)
	if phrase == "" || p.fallback == nil {
		p.logger.Debug("No search phrase for link", zap.String("url", q.Text), zap.Error(cause))
		return core.EmptyResult(), nil
	}
	if kind != core.ProviderMalformed {
		phrase = "soundcloud " + phrase
	}

	p.logger.Debug("Direct resolution failed, searching link words",
		zap.String("url", q.Text),
		zap.String("phrase", phrase),
		zap.String("kind", string(kind)),
		zap.Error(cause))

	tracks, err := p.fallback.Search(ctx, phrase, p.searchLimit(q))
	if err != nil {
		p.logger.Debug("Link word search failed", zap.String("phrase", phrase), zap.Error(err))
		return core.EmptyResult(), nil
	}

	best, ok := ranking.Best(tracks, phrase)
	if !ok {
		return core.EmptyResult(), nil
	}
	return core.SingleResult(best), nil
}

func (p *SoundCloud) OpenStream(ctx context.Context, t core.Track) (*core.Stream, error) {
	return p.openExtractorStream(ctx, p.ext, t, MediaTypeArbitrary)
}

// PathPhrase turns ".../artist/some-track-name?x=y" into "some track name".
func PathPhrase(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s, err := url.PathUnescape(segments[i]); err == nil && s != "" {
			return strings.Join(strings.Fields(strings.ReplaceAll(s, "-", " ")), " ")
		}
	}
	return ""
}
