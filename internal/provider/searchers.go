package provider

import (
	"context"

	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
	"playernix/pkg/ranking"
)

const (
	youTubeWatchURL      = "https://www.youtube.com/watch?v="
	youTubeMusicWatchURL = "https://music.youtube.com/watch?v="
)

// YTMusicSearcher searches the YouTube Music catalogue for songs.
type YTMusicSearcher struct{}

func (YTMusicSearcher) Name() string { return "ytmusic" }

// Search returns up to limit songs. The client library takes no context, so
// the call is abandoned when ctx ends.
func (YTMusicSearcher) Search(ctx context.Context, text string, limit int) ([]core.Track, error) {
	type outcome struct {
		tracks []core.Track
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := ytmusic.TrackSearch(text).Next()
		if err != nil {
			done <- outcome{err: err}
			return
		}
		var tracks []core.Track
		for _, v := range res.Tracks {
			if v.VideoID == "" {
				continue
			}
			author := ""
			if len(v.Artists) > 0 {
				author = v.Artists[0].Name
			}
			thumb := ""
			if len(v.Thumbnails) > 0 {
				thumb = v.Thumbnails[len(v.Thumbnails)-1].URL
			}
			t, err := core.NewTrack(core.Track{
				Title:     v.Title,
				URL:       youTubeMusicWatchURL + v.VideoID,
				Duration:  ranking.ParseDuration(v.Duration),
				Thumbnail: thumb,
				Author:    author,
				Source:    core.SourceYouTube,
			})
			if err != nil {
				continue
			}
			tracks = append(tracks, t)
			if limit > 0 && len(tracks) >= limit {
				break
			}
		}
		done <- outcome{tracks: tracks}
	}()

	select {
	case o := <-done:
		return o.tracks, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// YTSearchSearcher scrapes YouTube's web search.
type YTSearchSearcher struct{}

func (YTSearchSearcher) Name() string { return "ytsearch" }

func (YTSearchSearcher) Search(ctx context.Context, text string, limit int) ([]core.Track, error) {
	res, err := ytsearch.NewClient(nil).Search(ctx, text)
	if err != nil {
		return nil, err
	}

	var tracks []core.Track
	for _, v := range res.Results {
		if v.VideoID == "" {
			continue
		}
		t, err := core.NewTrack(core.Track{
			Title:    v.Title,
			URL:      youTubeWatchURL + v.VideoID,
			Duration: ranking.ParseDuration(v.Duration),
			Author:   v.Channel,
			Source:   core.SourceYouTube,
		})
		if err != nil {
			continue
		}
		tracks = append(tracks, t)
		if limit > 0 && len(tracks) >= limit {
			break
		}
	}
	return tracks, nil
}

// ExtractorSearcher searches through yt-dlp with one of its search prefixes.
type ExtractorSearcher struct {
	name   string
	prefix string
	source core.Source
	ext    Extractor
}

// NewExtractorSearcher creates a yt-dlp search backend.
func NewExtractorSearcher(name, prefix string, source core.Source, ext Extractor) *ExtractorSearcher {
	return &ExtractorSearcher{name: name, prefix: prefix, source: source, ext: ext}
}

func (s *ExtractorSearcher) Name() string { return s.name }

func (s *ExtractorSearcher) Search(ctx context.Context, text string, limit int) ([]core.Track, error) {
	entries, err := s.ext.Search(ctx, s.prefix, text, limit)
	if err != nil {
		return nil, err
	}
	return entryTracks(entries, s.source, s.entryURL), nil
}

func (s *ExtractorSearcher) entryURL(e ytdlp.Entry) string {
	if e.URL != "" || s.source != core.SourceYouTube || e.ID == "" {
		return e.URL
	}
	return youTubeWatchURL + e.ID
}
