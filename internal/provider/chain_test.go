package provider

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"playernix/internal/core"
)

func TestChainSearch(t *testing.T) {
	song := track("Song", "https://www.youtube.com/watch?v=a", core.SourceYouTube)
	other := track("Other", "https://www.youtube.com/watch?v=b", core.SourceYouTube)

	tests := []struct {
		name           string
		primary        *fakeSearcher
		secondary      *fakeSearcher
		wantTitles     []string
		wantErr        error
		wantSecondCall bool
	}{
		{
			name:       "primary succeeds",
			primary:    &fakeSearcher{name: "p", tracks: []core.Track{song}},
			secondary:  &fakeSearcher{name: "s", tracks: []core.Track{other}},
			wantTitles: []string{"Song"},
		},
		{
			name:       "primary empty is returned as is",
			primary:    &fakeSearcher{name: "p"},
			secondary:  &fakeSearcher{name: "s", tracks: []core.Track{other}},
			wantTitles: nil,
		},
		{
			name:           "primary error falls back",
			primary:        &fakeSearcher{name: "p", err: errors.New("quota")},
			secondary:      &fakeSearcher{name: "s", tracks: []core.Track{other}},
			wantTitles:     []string{"Other"},
			wantSecondCall: true,
		},
		{
			name:           "primary panic falls back",
			primary:        &fakeSearcher{name: "p", panics: true},
			secondary:      &fakeSearcher{name: "s", tracks: []core.Track{other}},
			wantTitles:     []string{"Other"},
			wantSecondCall: true,
		},
		{
			name:           "both fail",
			primary:        &fakeSearcher{name: "p", err: errors.New("quota")},
			secondary:      &fakeSearcher{name: "s", err: errors.New("exit status 1")},
			wantErr:        core.ErrNotFound,
			wantSecondCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewChain("test", tt.primary, tt.secondary, zap.NewNop())
			got, err := chain.Search(context.Background(), "query", 5)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(got) != len(tt.wantTitles) {
				t.Fatalf("got %d tracks, want %d", len(got), len(tt.wantTitles))
			}
			for i, title := range tt.wantTitles {
				if got[i].Title != title {
					t.Errorf("track %d = %q, want %q", i, got[i].Title, title)
				}
			}

			if called := len(tt.secondary.calls) > 0; called != tt.wantSecondCall {
				t.Errorf("secondary called = %v, want %v", called, tt.wantSecondCall)
			}
			if tt.wantSecondCall && tt.secondary.calls[0] != "query" {
				t.Errorf("secondary got %q, want the same text", tt.secondary.calls[0])
			}
		})
	}
}

func TestChainKeepsBothCauses(t *testing.T) {
	first := errors.New("first cause")
	second := errors.New("second cause")
	chain := NewChain("test", &fakeSearcher{name: "p", err: first}, &fakeSearcher{name: "s", err: second}, zap.NewNop())

	_, err := chain.Search(context.Background(), "query", 5)
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("expected both causes in %v", err)
	}
}
