package provider

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
)

func scQuery(u string) core.Query {
	return core.Query{Raw: u, Text: u, IsDirectURL: true, Type: core.QueryTypeURLSoundCloud}
}

func TestSoundCloudTrackLink(t *testing.T) {
	ext := &fakeExtractor{meta: &ytdlp.Entry{URL: "https://soundcloud.com/artist/song", Title: "Song", Uploader: "Artist"}}
	fallback := &fakeSearcher{name: "yt"}
	p := NewSoundCloud(ext, fallback, Options{}, zap.NewNop())

	res, err := p.Resolve(context.Background(), scQuery("https://soundcloud.com/artist/song"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Tracks[0].Source != core.SourceSoundCloud || res.Tracks[0].Author != "Artist" {
		t.Errorf("unexpected track %+v", res.Tracks[0])
	}
	if len(fallback.calls) != 0 {
		t.Error("fallback search must not run after a direct hit")
	}
}

func TestSoundCloudPathFallback(t *testing.T) {
	hit := track("Great Track", "https://www.youtube.com/watch?v=g", core.SourceYouTube)

	tests := []struct {
		name       string
		ext        *fakeExtractor
		wantPhrase string
	}{
		{
			name:       "malformed metadata uses the bare phrase",
			ext:        &fakeExtractor{meta: &ytdlp.Entry{URL: "https://soundcloud.com/a/great-track"}},
			wantPhrase: "great track",
		},
		{
			name:       "other failures prefix the platform",
			ext:        &fakeExtractor{metaErr: errors.New("HTTP Error 404")},
			wantPhrase: "soundcloud great track",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &fakeSearcher{name: "yt", tracks: []core.Track{hit}}
			p := NewSoundCloud(tt.ext, fallback, Options{}, zap.NewNop())

			res, err := p.Resolve(context.Background(), scQuery("https://soundcloud.com/a/great-track?si=123"))
			if err != nil {
				t.Fatalf("fallback must not surface an error: %v", err)
			}
			if len(fallback.calls) != 1 || fallback.calls[0] != tt.wantPhrase {
				t.Fatalf("fallback searched %v, want %q", fallback.calls, tt.wantPhrase)
			}
			if res.Kind != core.ResultSingle || res.Tracks[0].Title != "Great Track" {
				t.Errorf("unexpected result %+v", res)
			}
		})
	}
}

func TestSoundCloudPathFallbackExhausted(t *testing.T) {
	ext := &fakeExtractor{metaErr: errors.New("HTTP Error 404")}
	fallback := &fakeSearcher{name: "yt", err: errors.New("down")}
	p := NewSoundCloud(ext, fallback, Options{}, zap.NewNop())

	res, err := p.Resolve(context.Background(), scQuery("https://soundcloud.com/a/great-track"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !res.IsEmpty() {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSoundCloudSet(t *testing.T) {
	ext := &fakeExtractor{
		playlistName: "Summer",
		playlist: []ytdlp.Entry{
			{URL: "https://soundcloud.com/a/two", Title: "Two"},
			{URL: "https://soundcloud.com/a/one", Title: "One"},
		},
	}
	p := NewSoundCloud(ext, &fakeSearcher{name: "yt"}, Options{}, zap.NewNop())

	res, err := p.Resolve(context.Background(), scQuery("https://soundcloud.com/a/sets/summer"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Kind != core.ResultPlaylist || len(res.Tracks) != 2 || res.Tracks[0].Title != "Two" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSoundCloudSetFallback(t *testing.T) {
	hit := track("Chill Mix", "https://www.youtube.com/watch?v=c", core.SourceYouTube)

	tests := []struct {
		name string
		ext  *fakeExtractor
	}{
		{"playlist error", &fakeExtractor{playlistErr: errors.New("HTTP Error 404")}},
		{"empty set", &fakeExtractor{playlistName: "Chill"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &fakeSearcher{name: "yt", tracks: []core.Track{hit}}
			p := NewSoundCloud(tt.ext, fallback, Options{}, zap.NewNop())

			res, err := p.Resolve(context.Background(), scQuery("https://soundcloud.com/a/sets/chill-mix"))
			if err != nil {
				t.Fatalf("set fallback must not surface an error: %v", err)
			}
			if len(fallback.calls) != 1 || fallback.calls[0] != "soundcloud chill mix" {
				t.Fatalf("fallback searched %v, want %q", fallback.calls, "soundcloud chill mix")
			}
			if res.Kind != core.ResultSingle || res.Tracks[0].Title != "Chill Mix" {
				t.Errorf("unexpected result %+v", res)
			}
		})
	}
}

func TestSoundCloudSearch(t *testing.T) {
	ext := &fakeExtractor{searchEntries: []ytdlp.Entry{{URL: "https://soundcloud.com/a/x", Title: "X"}}}
	p := NewSoundCloud(ext, nil, Options{}, zap.NewNop())

	res, err := p.Resolve(context.Background(), core.Query{Raw: "scsearch:x", Text: "x", Type: core.QueryTypeSearchText})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(ext.searches) != 1 || ext.searches[0] != "scsearch:x" {
		t.Errorf("searches = %v", ext.searches)
	}
	if res.Tracks[0].Source != core.SourceSoundCloud {
		t.Errorf("source = %v", res.Tracks[0].Source)
	}
}
