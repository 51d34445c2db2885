package core

import (
	"testing"
	"time"

	"playernix/internal/i18n"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.App.Language != i18n.DefaultLanguage {
		t.Errorf("Expected default language to be %s, got %s", i18n.DefaultLanguage, config.App.Language)
	}

	if config.Discord.CommandPrefix != "!" {
		t.Errorf("Expected default prefix '!', got %q", config.Discord.CommandPrefix)
	}

	if config.Resolver.FallbackWindow != 3 {
		t.Errorf("Expected fallback window 3, got %d", config.Resolver.FallbackWindow)
	}

	if config.Resolver.MinDuration() != 60*time.Second {
		t.Errorf("Expected min duration 60s, got %v", config.Resolver.MinDuration())
	}

	if config.Providers.AllowedContentType != "audio/mpeg" {
		t.Errorf("Expected allowed content type audio/mpeg, got %s", config.Providers.AllowedContentType)
	}

	if config.Spotify.Enabled() {
		t.Error("Expected Spotify to be disabled without credentials")
	}
}

func TestConfigConstants(t *testing.T) {
	if DefaultProviderTimeoutSecs <= 0 {
		t.Error("DefaultProviderTimeoutSecs should be positive")
	}

	if DefaultResolveTimeoutSecs <= DefaultProviderTimeoutSecs {
		t.Error("Resolve timeout should be longer than a single provider timeout")
	}

	if DefaultServerPort <= 0 || DefaultServerPort > 65535 {
		t.Error("DefaultServerPort should be a valid port number")
	}
}

func TestSpotifyEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  SpotifyConfig
		want bool
	}{
		{"empty", SpotifyConfig{}, false},
		{"id only", SpotifyConfig{ClientID: "id"}, false},
		{"both", SpotifyConfig{ClientID: "id", ClientSecret: "secret"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
