package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
)

func TestAcceptsContentType(t *testing.T) {
	tests := []struct {
		allowed     string
		contentType string
		want        bool
	}{
		{"audio/mpeg", "audio/mpeg", true},
		{"audio/mpeg", "AUDIO/MPEG", true},
		{"audio/mpeg", "audio/ogg", false},
		{"audio/*", "audio/ogg", true},
		{"audio/*", "video/mp4", false},
		{"audio/*", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.allowed+" "+tt.contentType, func(t *testing.T) {
			if got := AcceptsContentType(tt.allowed, tt.contentType); got != tt.want {
				t.Errorf("AcceptsContentType(%q, %q) = %v, want %v", tt.allowed, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestAttachmentContentType(t *testing.T) {
	tests := []struct {
		name string
		a    *core.Attachment
		want string
	}{
		{"header with params", &core.Attachment{ContentType: "audio/mpeg; charset=binary"}, "audio/mpeg"},
		{"guessed from name", &core.Attachment{Filename: "song.MP3"}, "audio/mpeg"},
		{"unknown", &core.Attachment{Filename: "song"}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AttachmentContentType(tt.a); got != tt.want {
				t.Errorf("AttachmentContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirectAttachment(t *testing.T) {
	p := NewDirect("", nil, Options{}, zap.NewNop())

	ok := &core.Attachment{URL: "https://cdn.example/song.mp3", Filename: "song.mp3", ContentType: "audio/mpeg"}
	res, err := p.Resolve(context.Background(), core.Query{Attachment: ok, IsDirectURL: true, Type: core.QueryTypeAttachment})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Tracks[0].Title != "song.mp3" || res.Tracks[0].Source != core.SourceDirect {
		t.Errorf("unexpected track %+v", res.Tracks[0])
	}

	bad := &core.Attachment{URL: "https://cdn.example/pic.png", Filename: "pic.png", ContentType: "image/png"}
	_, err = p.Resolve(context.Background(), core.Query{Attachment: bad, IsDirectURL: true, Type: core.QueryTypeAttachment})
	if !errors.Is(err, core.ErrUnsupportedAttachment) || !errors.Is(err, core.ErrMalformed) {
		t.Errorf("expected unsupported attachment error, got %v", err)
	}
}

func TestDirectLinkGenericExtractor(t *testing.T) {
	ext := &fakeExtractor{meta: &ytdlp.Entry{Title: "Radio Show"}}
	p := NewDirect("", ext, Options{}, zap.NewNop())

	res, err := p.Resolve(context.Background(), core.Query{Raw: "https://example.com/show", Text: "https://example.com/show", IsDirectURL: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Tracks[0].Title != "Radio Show" || res.Tracks[0].URL != "https://example.com/show" {
		t.Errorf("unexpected track %+v", res.Tracks[0])
	}
}

func TestDirectLinkAudioFileWithoutMetadata(t *testing.T) {
	p := NewDirect("", &fakeExtractor{metaErr: errors.New("unsupported URL")}, Options{}, zap.NewNop())

	res, err := p.Resolve(context.Background(), core.Query{Raw: "https://example.com/a/b.mp3", Text: "https://example.com/a/b.mp3", IsDirectURL: true})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Tracks[0].Title != "b.mp3" {
		t.Errorf("title = %q", res.Tracks[0].Title)
	}

	_, err = p.Resolve(context.Background(), core.Query{Raw: "https://example.com/page", Text: "https://example.com/page", IsDirectURL: true})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDirectOpenStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/song.mp3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 audio"))
	}))
	defer server.Close()

	p := NewDirect("", nil, Options{}, zap.NewNop())

	tr := track("song.mp3", server.URL+"/song.mp3", core.SourceDirect)
	s, err := p.OpenStream(context.Background(), tr)
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	body, err := io.ReadAll(s.Body)
	_ = s.Close()
	if err != nil || string(body) != "ID3 audio" {
		t.Errorf("body = %q, err = %v", body, err)
	}
	if s.MediaType != "audio/mpeg" || s.Track.URL != tr.URL {
		t.Errorf("unexpected stream %+v", s)
	}

	_, err = p.OpenStream(context.Background(), track("missing", server.URL+"/missing.mp3", core.SourceDirect))
	if !errors.Is(err, core.ErrStreamUnavailable) {
		t.Errorf("expected ErrStreamUnavailable, got %v", err)
	}
}

func TestDirectOpenStreamHTMLUsesExtractor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	ext := &fakeExtractor{streamBody: "audio"}
	p := NewDirect("", ext, Options{}, zap.NewNop())

	s, err := p.OpenStream(context.Background(), track("page", server.URL, core.SourceDirect))
	if err != nil {
		t.Fatalf("OpenStream() error = %v", err)
	}
	defer s.Close()
	if len(ext.streamed) != 1 {
		t.Errorf("expected yt-dlp to stream the page, got %v", ext.streamed)
	}
}
