package core

import (
	"time"
)

const (
	DefaultCommandPrefix       = "!"
	DefaultSearchLimit         = 10
	DefaultProviderRPS         = 5.0
	DefaultProviderTimeoutSecs = 15
	DefaultResolveTimeoutSecs  = 45
	DefaultFallbackWindow      = 3
	DefaultMinDurationSecs     = 60
	DefaultAllowedContentType  = "audio/mpeg"
	DefaultHistorySize         = 500
	DefaultAutoplayCount       = 3
	DefaultServerPort          = 8080
	DefaultFloodLimitPerMinute = 6
	DefaultLanguage            = "en"
)

type Config struct {
	Discord   DiscordConfig
	Spotify   SpotifyConfig
	Providers ProvidersConfig
	Resolver  ResolverConfig
	Player    PlayerConfig
	Server    ServerConfig
	Log       LogConfig
	App       AppConfig
}

type DiscordConfig struct {
	Token         string
	GuildID       string
	CommandPrefix string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether Spotify link resolution has credentials.
func (c SpotifyConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type ProvidersConfig struct {
	YtdlpPath           string
	YouTubeProxy        string
	SearchLimit         int
	RequestsPerSecond   float64
	ProviderTimeoutSecs int
	AllowedContentType  string
}

// ProviderTimeout is the deadline applied to a single provider call.
func (c ProvidersConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSecs) * time.Second
}

type ResolverConfig struct {
	ResolveTimeoutSecs int
	FallbackWindow     int
	MinDurationSecs    int
}

// ResolveTimeout bounds a whole resolution cascade.
func (c ResolverConfig) ResolveTimeout() time.Duration {
	return time.Duration(c.ResolveTimeoutSecs) * time.Second
}

// MinDuration is the shortest search hit kept by the duration filter.
func (c ResolverConfig) MinDuration() time.Duration {
	return time.Duration(c.MinDurationSecs) * time.Second
}

type PlayerConfig struct {
	CacheDir      string
	HistorySize   int
	AutoplayCount int
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type AppConfig struct {
	Language            string
	FloodLimitPerMinute int
}

func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			CommandPrefix: DefaultCommandPrefix,
		},
		Providers: ProvidersConfig{
			YtdlpPath:           "yt-dlp",
			SearchLimit:         DefaultSearchLimit,
			RequestsPerSecond:   DefaultProviderRPS,
			ProviderTimeoutSecs: DefaultProviderTimeoutSecs,
			AllowedContentType:  DefaultAllowedContentType,
		},
		Resolver: ResolverConfig{
			ResolveTimeoutSecs: DefaultResolveTimeoutSecs,
			FallbackWindow:     DefaultFallbackWindow,
			MinDurationSecs:    DefaultMinDurationSecs,
		},
		Player: PlayerConfig{
			CacheDir:      "./cache",
			HistorySize:   DefaultHistorySize,
			AutoplayCount: DefaultAutoplayCount,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:            DefaultLanguage,
			FloodLimitPerMinute: DefaultFloodLimitPerMinute,
		},
	}
}
