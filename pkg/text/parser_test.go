package text

import (
	"testing"

	"playernix/internal/core"
)

// runStringTransformationTest is a helper to run tests for string transformation functions.
func runStringTransformationTest(t *testing.T, testName string,
	transformFunc func(string) string, testCases []struct {
		name     string
		input    string
		expected string
	}) {
	t.Helper()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			result := transformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", testName, result, tt.expected)
			}
		})
	}
}

func TestParser_ParseMessage(t *testing.T) {
	parser := NewParser("!")

	tests := []struct {
		name     string
		input    string
		ok       bool
		expected core.CommandType
		args     string
		urls     int
	}{
		{
			name:     "Play with search text",
			input:    "!play never gonna give you up",
			ok:       true,
			expected: core.CommandPlay,
			args:     "never gonna give you up",
		},
		{
			name:     "Short alias with extra spaces",
			input:    "  !p   lofi   beats ",
			ok:       true,
			expected: core.CommandPlay,
			args:     "lofi beats",
		},
		{
			name:     "Play with link strips tracking",
			input:    "!play https://www.youtube.com/watch?v=abc&si=track",
			ok:       true,
			expected: core.CommandPlay,
			args:     "https://www.youtube.com/watch?v=abc",
			urls:     1,
		},
		{
			name:     "Upper case name",
			input:    "!SKIP",
			ok:       true,
			expected: core.CommandSkip,
		},
		{
			name:     "Queue alias",
			input:    "!q",
			ok:       true,
			expected: core.CommandQueue,
		},
		{
			name:     "Loop with mode",
			input:    "!loop queue",
			ok:       true,
			expected: core.CommandLoop,
			args:     "queue",
		},
		{
			name:     "Unknown command",
			input:    "!dance now",
			ok:       true,
			expected: core.CommandUnknown,
			args:     "now",
		},
		{
			name:  "No prefix",
			input: "play something",
			ok:    false,
		},
		{
			name:  "Prefix only",
			input: "!",
			ok:    false,
		},
		{
			name:  "Empty",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ParseMessage(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Type != tt.expected {
				t.Errorf("Type = %v, want %v", got.Type, tt.expected)
			}
			if got.Args != tt.args {
				t.Errorf("Args = %q, want %q", got.Args, tt.args)
			}
			if len(got.URLs) != tt.urls {
				t.Errorf("URLs = %v, want %d", got.URLs, tt.urls)
			}
		})
	}
}

func TestCommandFromName_PlaybackControls(t *testing.T) {
	tests := []struct {
		name     string
		expected core.CommandType
	}{
		{"shuffle", core.CommandShuffle},
		{"prev", core.CommandPrevious},
		{"previous", core.CommandPrevious},
		{"back", core.CommandPrevious},
		{"pause", core.CommandPause},
		{"resume", core.CommandResume},
		{"unpause", core.CommandResume},
		{"np", core.CommandNowPlaying},
		{"NowPlaying", core.CommandNowPlaying},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommandFromName(tt.name); got != tt.expected {
				t.Errorf("CommandFromName(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestParser_CustomPrefix(t *testing.T) {
	parser := NewParser("?")

	if _, ok := parser.ParseMessage("!play x"); ok {
		t.Error("default prefix should not match a custom parser")
	}
	got, ok := parser.ParseMessage("?stop")
	if !ok || got.Type != core.CommandStop {
		t.Errorf("ParseMessage(?stop) = %+v, %v", got, ok)
	}
	if NewParser("").Prefix() != "!" {
		t.Error("empty prefix should fall back to !")
	}
}

func TestExtractSpotifyTrackID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Track URL", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC", false},
		{"Localised URL", "https://open.spotify.com/intl-de/track/abc123?si=x", "abc123", false},
		{"URI", "spotify:track:abc123", "abc123", false},
		{"Album URL", "https://open.spotify.com/album/abc123", "", true},
		{"Not a URL", "abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSpotifyTrackID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ExtractSpotifyTrackID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParser_normalizeText(t *testing.T) {
	parser := NewParser("!")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Basic text",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "Multiple spaces",
			input:    "hello    world",
			expected: "hello world",
		},
		{
			name:     "Leading and trailing whitespace",
			input:    "  hello world  ",
			expected: "hello world",
		},
		{
			name:     "Multiple lines",
			input:    "hello\n\nworld\n",
			expected: "hello world",
		},
		{
			name:     "Mixed whitespace",
			input:    " hello \t\n world \r\n ",
			expected: "hello world",
		},
		{
			name:     "Empty lines",
			input:    "hello\n\n\nworld",
			expected: "hello world",
		},
	}

	runStringTransformationTest(t, "normalizeText", parser.normalizeText, tests)
}

func TestParser_cleanURL(t *testing.T) {
	parser := NewParser("!")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Clean URL",
			input:    "https://open.spotify.com/track/123",
			expected: "https://open.spotify.com/track/123",
		},
		{
			name:     "URL with UTM parameters",
			input:    "https://example.com?utm_source=test&utm_medium=social&other=keep",
			expected: "https://example.com?other=keep",
		},
		{
			name:     "URL with Spotify si parameter",
			input:    "https://open.spotify.com/track/123?si=abc123&other=keep",
			expected: "https://open.spotify.com/track/123?other=keep",
		},
		{
			name:     "URL with trailing punctuation",
			input:    "https://example.com!",
			expected: "https://example.com",
		},
		{
			name:     "URL with multiple trailing punctuation",
			input:    "https://example.com.,!?;",
			expected: "https://example.com",
		},
		{
			name:     "YouTube share link",
			input:    "https://youtu.be/dQw4w9WgXcQ?si=xyz&t=42",
			expected: "https://youtu.be/dQw4w9WgXcQ?t=42",
		},
		{
			name:     "Angle bracket wrapped",
			input:    "<https://soundcloud.com/artist/song>",
			expected: "https://soundcloud.com/artist/song",
		},
		{
			name:     "Invalid URL",
			input:    "not-a-url",
			expected: "",
		},
	}

	runStringTransformationTest(t, "cleanURL", parser.cleanURL, tests)
}
