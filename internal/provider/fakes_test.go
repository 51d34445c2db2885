package provider

import (
	"context"
	"io"
	"strings"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
)

type fakeExtractor struct {
	searchEntries []ytdlp.Entry
	searchErr     error
	searches      []string

	meta    *ytdlp.Entry
	metaErr error

	playlistName string
	playlist     []ytdlp.Entry
	playlistErr  error

	streamBody string
	streamErr  error
	streamed   []string
}

func (f *fakeExtractor) Search(_ context.Context, prefix, query string, _ int) ([]ytdlp.Entry, error) {
	f.searches = append(f.searches, prefix+":"+query)
	return f.searchEntries, f.searchErr
}

func (f *fakeExtractor) Metadata(_ context.Context, _ string) (*ytdlp.Entry, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	if f.meta == nil {
		return nil, ytdlp.ErrNoOutput
	}
	e := *f.meta
	return &e, nil
}

func (f *fakeExtractor) Playlist(_ context.Context, _ string, _ int) (string, []ytdlp.Entry, error) {
	return f.playlistName, f.playlist, f.playlistErr
}

func (f *fakeExtractor) Stream(_ context.Context, url string) (io.ReadCloser, error) {
	f.streamed = append(f.streamed, url)
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.streamBody)), nil
}

type fakeSearcher struct {
	name   string
	tracks []core.Track
	err    error
	panics bool
	block  bool
	calls  []string
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(ctx context.Context, text string, _ int) ([]core.Track, error) {
	f.calls = append(f.calls, text)
	if f.panics {
		panic("library exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.tracks, f.err
}

func track(title, url string, source core.Source) core.Track {
	t, err := core.NewTrack(core.Track{Title: title, URL: url, Source: source})
	if err != nil {
		panic(err)
	}
	return t
}
