package musiclink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAppleMusicResolver_CanResolve(t *testing.T) {
	resolver := NewAppleMusicResolver()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"Album link with track", "https://music.apple.com/us/album/never-gonna-give-you-up/123456?i=789", true},
		{"Legacy itunes link", "https://itunes.apple.com/us/album/some-album/id123", true},
		{"Direct song link", "https://music.apple.com/us/song/track-name/123456789", true},
		{"Regular apple.com", "https://www.apple.com/music", false},
		{"Spotify URL", "https://open.spotify.com/track/123", false},
		{"Malformed URL", "not-a-valid-url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.CanResolve(tt.url); got != tt.expected {
				t.Errorf("CanResolve() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractAppleTrackID(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		expectedID string
		wantError  bool
	}{
		{"Query parameter", "https://music.apple.com/us/album/album-name/123456?i=789012345", "789012345", false},
		{"Direct song link", "https://music.apple.com/us/song/track-name/987654321", "987654321", false},
		{"Other params", "https://music.apple.com/us/album/test/123?app=music&i=456789", "456789", false},
		{"Album without track", "https://music.apple.com/us/album/album-name/123456", "", true},
		{"Browse page", "https://music.apple.com/us/browse", "", true},
		{"Empty track parameter", "https://music.apple.com/us/album/test/123?i=", "", true},
		{"Song path without id", "https://music.apple.com/us/song/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := extractAppleTrackID(tt.url)
			if (err != nil) != tt.wantError {
				t.Fatalf("error = %v, wantError %v", err, tt.wantError)
			}
			if id != tt.expectedID {
				t.Errorf("id = %q, want %q", id, tt.expectedID)
			}
		})
	}
}

func TestAppleMusicResolver_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "789" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCount":2,"results":[
			{"wrapperType":"collection"},
			{"wrapperType":"track","trackName":"Never Gonna Give You Up","artistName":"Rick Astley","trackTimeMillis":213000}
		]}`))
	}))
	defer server.Close()

	resolver := NewAppleMusicResolver()
	resolver.lookupURL = server.URL

	info, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/album/x/1?i=789")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if info.Title != "Never Gonna Give You Up" || info.Artist != "Rick Astley" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Duration != 213*time.Second {
		t.Errorf("Duration = %v, want 213s", info.Duration)
	}

	if _, err := resolver.Resolve(context.Background(), "https://music.apple.com/us/album/x/1?i=000"); err == nil {
		t.Error("expected an error for a lookup miss")
	}
}
