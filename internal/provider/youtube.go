package provider

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
	"playernix/pkg/musiclink"
)

// VideoLookup fetches video metadata without yt-dlp.
type VideoLookup interface {
	Lookup(ctx context.Context, rawURL string) (*musiclink.VideoInfo, error)
}

var _ VideoLookup = (*musiclink.YouTubeOEmbed)(nil)

// YouTubeMusic answers ytmsearch: queries.
type YouTubeMusic struct {
	base
	search Searcher
	ext    Extractor
}

// NewYouTubeMusic creates the primary search provider.
func NewYouTubeMusic(search Searcher, ext Extractor, opts Options, logger *zap.Logger) *YouTubeMusic {
	return &YouTubeMusic{
		base:   newBase("youtubemusic", core.SourceYouTube, opts, logger),
		search: search,
		ext:    ext,
	}
}

func (p *YouTubeMusic) Resolve(ctx context.Context, q core.Query) (core.Result, error) {
	if q.IsDirectURL {
		return core.EmptyResult(), core.NewProviderError(core.ProviderMalformed, p.name, q.Raw, errors.New("links are not searchable"))
	}

	ctx, cancel, err := p.begin(ctx, q.Raw)
	if err != nil {
		return core.EmptyResult(), err
	}
	defer cancel()

	return p.searchResult(ctx, p.search, q)
}

func (p *YouTubeMusic) OpenStream(ctx context.Context, t core.Track) (*core.Stream, error) {
	return p.openExtractorStream(ctx, p.ext, t, MediaTypeWebmOpus)
}

// YouTube resolves video and playlist links and answers ytsearch: queries.
type YouTube struct {
	base
	search Searcher
	ext    Extractor
	oembed VideoLookup
}

// NewYouTube creates the YouTube provider. oembed may be nil.
func NewYouTube(search Searcher, ext Extractor, oembed VideoLookup, opts Options, logger *zap.Logger) *YouTube {
	return &YouTube{
		base:   newBase("youtube", core.SourceYouTube, opts, logger),
		search: search,
		ext:    ext,
		oembed: oembed,
	}
}

// Searcher exposes the search path for other providers' fallbacks.
func (p *YouTube) Searcher() Searcher {
	return p.search
}

func (p *YouTube) Resolve(ctx context.Context, q core.Query) (core.Result, error) {
	ctx, cancel, err := p.begin(ctx, q.Raw)
	if err != nil {
		return core.EmptyResult(), err
	}
	defer cancel()

	switch {
	case !q.IsDirectURL:
		return p.searchResult(ctx, p.search, q)
	case IsYouTubePlaylistURL(q.Text):
		return p.resolvePlaylist(ctx, q)
	default:
		return p.resolveVideo(ctx, q)
	}
}

func (p *YouTube) resolvePlaylist(ctx context.Context, q core.Query) (core.Result, error) {
	name, entries, err := p.ext.Playlist(ctx, q.Text, 0)
	if err != nil {
		return core.EmptyResult(), p.fail(core.ProviderNotFound, q.Raw, err)
	}

	tracks := entryTracks(entries, core.SourceYouTube, youTubeEntryURL)
	p.logger.Debug("Resolved playlist",
		zap.String("url", q.Text),
		zap.String("name", name),
		zap.Int("tracks", len(tracks)))
	return core.PlaylistResult(name, tracks), nil
}

// resolveVideo reads metadata with yt-dlp and falls back to oEmbed, which
// knows no duration.
func (p *YouTube) resolveVideo(ctx context.Context, q core.Query) (core.Result, error) {
	entry, err := p.ext.Metadata(ctx, q.Text)
	if err == nil {
		t, terr := entryTrack(*entry, core.SourceYouTube, youTubeEntryURL)
		if terr == nil {
			return core.SingleResult(t), nil
		}
		err = terr
	}

	if p.oembed != nil && ctx.Err() == nil {
		p.logger.Debug("yt-dlp metadata failed, trying oEmbed", zap.String("url", q.Text), zap.Error(err))
		info, oerr := p.oembed.Lookup(ctx, q.Text)
		if oerr == nil {
			t, terr := core.NewTrack(core.Track{
				Title:     info.Title,
				URL:       info.URL,
				Thumbnail: info.Thumbnail,
				Author:    info.Author,
				Source:    core.SourceYouTube,
			})
			if terr == nil {
				return core.SingleResult(t), nil
			}
		}
	}

	return core.EmptyResult(), p.fail(metadataErrorKind(err), q.Raw, err)
}

func (p *YouTube) OpenStream(ctx context.Context, t core.Track) (*core.Stream, error) {
	return p.openExtractorStream(ctx, p.ext, t, MediaTypeWebmOpus)
}

func (b *base) searchResult(ctx context.Context, s Searcher, q core.Query) (core.Result, error) {
	tracks, err := s.Search(ctx, q.Text, b.searchLimit(q))
	if err != nil {
		return core.EmptyResult(), b.fail(core.ProviderNotFound, q.Raw, err)
	}
	return core.SingleResult(tracks...), nil
}

func youTubeEntryURL(e ytdlp.Entry) string {
	if e.ID != "" && (e.URL == "" || !IsYouTubeURL(e.URL)) {
		return youTubeWatchURL + e.ID
	}
	return e.URL
}

// metadataErrorKind treats a lookup that ran but produced no usable title as
// malformed and everything else as not found.
func metadataErrorKind(err error) core.ProviderErrorKind {
	if errors.Is(err, ytdlp.ErrNoOutput) || errors.Is(err, core.ErrMalformed) {
		return core.ProviderMalformed
	}
	return core.ProviderNotFound
}
