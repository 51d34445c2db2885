// Package main provides the playernix CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"playernix/internal/chat"
	"playernix/internal/chat/discord"
	"playernix/internal/core"
	"playernix/internal/flood"
	httpserver "playernix/internal/http"
	"playernix/internal/i18n"
	"playernix/internal/player"
	"playernix/internal/provider"
	"playernix/internal/resolve"
	"playernix/internal/spotify"
	"playernix/internal/stream"
	"playernix/internal/ytdlp"
	"playernix/pkg/musiclink"
)

const (
	envPrefix         = "PLAYERNIX"
	defaultServerHost = "0.0.0.0"
	version           = "1.0.0"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "playernix",
	Short: "playernix - Discord music bot",
	Long: `playernix is a Discord music bot that resolves links, searches and uploaded files
into tracks across YouTube Music, YouTube and SoundCloud, and falls back to another
source when a stream cannot be opened.`,
	RunE: runPlayernix,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Log.Format, "log format (json, console)")
	flags.String("log-file", "", "also write logs to this file, rotated")
	flags.String("discord-token", "", "Discord bot token")
	flags.String("discord-guild-id", "", "register slash commands on this guild only")
	flags.String("command-prefix", defaults.Discord.CommandPrefix, "prefix for text commands")
	flags.String("spotify-client-id", "", "Spotify client ID (optional, enables track links)")
	flags.String("spotify-client-secret", "", "Spotify client secret")
	flags.String("ytdlp-path", defaults.Providers.YtdlpPath, "path to the yt-dlp binary")
	flags.String("youtube-proxy", "", "proxy used by yt-dlp")
	flags.Int("search-limit", defaults.Providers.SearchLimit, "candidates requested per search")
	flags.Float64("provider-rps", defaults.Providers.RequestsPerSecond, "requests per second allowed per provider")
	flags.Int("provider-timeout-secs", defaults.Providers.ProviderTimeoutSecs, "deadline for one provider call")
	flags.Int("resolve-timeout-secs", defaults.Resolver.ResolveTimeoutSecs, "deadline for a whole resolution")
	flags.Int("fallback-window", defaults.Resolver.FallbackWindow, "fallback candidates tried per provider")
	flags.Int("min-duration-secs", defaults.Resolver.MinDurationSecs, "drop search hits shorter than this, 0 keeps every hit")
	flags.String("allowed-content-type", defaults.Providers.AllowedContentType, "accepted attachment type (audio/* for any audio)")
	flags.String("cache-dir", defaults.Player.CacheDir, "directory receiving played audio")
	flags.Int("history-size", defaults.Player.HistorySize, "tracks remembered per session for autoplay")
	flags.Int("autoplay-count", defaults.Player.AutoplayCount, "tracks queued per autoplay round")
	flags.String("server-host", defaultServerHost, "HTTP server host")
	flags.Int("server-port", defaults.Server.Port, "HTTP server port")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	flags.String("language", i18n.DefaultLanguage, fmt.Sprintf("Bot language (%s)", supportedLangs))
	flags.Int("flood-limit-per-minute", defaults.App.FloodLimitPerMinute, "Maximum commands per user per minute (0 disables)")
	flags.Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureDiscord(cfg)
	configureSpotify(cfg)
	configureProviders(cfg)
	configurePlayer(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureDiscord(cfg *core.Config) {
	cfg.Discord.Token = viper.GetString("discord-token")
	cfg.Discord.GuildID = viper.GetString("discord-guild-id")
	if prefix := viper.GetString("command-prefix"); prefix != "" {
		cfg.Discord.CommandPrefix = prefix
	}
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
}

func configureProviders(cfg *core.Config) {
	if path := viper.GetString("ytdlp-path"); path != "" {
		cfg.Providers.YtdlpPath = path
	}
	cfg.Providers.YouTubeProxy = viper.GetString("youtube-proxy")
	cfg.Providers.SearchLimit = viper.GetInt("search-limit")
	cfg.Providers.RequestsPerSecond = viper.GetFloat64("provider-rps")
	cfg.Providers.ProviderTimeoutSecs = viper.GetInt("provider-timeout-secs")
	if ct := viper.GetString("allowed-content-type"); ct != "" {
		cfg.Providers.AllowedContentType = ct
	}

	cfg.Resolver.ResolveTimeoutSecs = viper.GetInt("resolve-timeout-secs")
	cfg.Resolver.FallbackWindow = viper.GetInt("fallback-window")
	cfg.Resolver.MinDurationSecs = viper.GetInt("min-duration-secs")
}

func configurePlayer(cfg *core.Config) {
	if dir := viper.GetString("cache-dir"); dir != "" {
		cfg.Player.CacheDir = dir
	}
	cfg.Player.HistorySize = viper.GetInt("history-size")
	cfg.Player.AutoplayCount = viper.GetInt("autoplay-count")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")
	if format := viper.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	cfg.Log.File = viper.GetString("log-file")
}

func configureApp(cfg *core.Config) {
	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}
	cfg.App.FloodLimitPerMinute = viper.GetInt("flood-limit-per-minute")
}

func buildLogger(cfg core.LogConfig) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}
	level := zap.NewAtomicLevelAt(zapLevel)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)}
	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func runPlayernix(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting playernix",
		zap.String("version", version),
		zap.String("language", config.App.Language),
		zap.Bool("spotify_enabled", config.Spotify.Enabled()),
		zap.String("ytdlp", config.Providers.YtdlpPath))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices()
	if err != nil {
		return err
	}

	return runServices(ctx, svcs)
}

type services struct {
	frontend   chat.Frontend
	httpServer *httpserver.Server
	player     *player.Coordinator
	dispatcher *core.Dispatcher
	flood      *flood.Gate
}

func initializeServices() (*services, error) {
	httpServer := httpserver.NewServer(&config.Server, logger)

	providers := buildProviders()
	links := musiclink.NewDefaultManager(spotify.NewClient(&config.Spotify, logger))

	resolver := resolve.NewEngine(providers, links, config, httpServer, logger)
	streamer := stream.NewEngine(providers.YouTube, providers.SoundCloud, providers.Direct,
		config.Resolver.FallbackWindow, httpServer, logger)

	frontend := discord.NewFrontend(&discord.Config{
		Token:         config.Discord.Token,
		GuildID:       config.Discord.GuildID,
		CommandPrefix: config.Discord.CommandPrefix,
	}, logger)

	// the coordinator reports to the dispatcher, which is built after it
	var dispatcher *core.Dispatcher
	notifier := core.NotifierFunc(func(ctx context.Context, ev core.Event) {
		dispatcher.Notify(ctx, ev)
	})

	coordinator := player.NewCoordinator(
		streamer,
		player.NewFileOutput(config.Player.CacheDir, logger),
		notifier,
		providers.YouTubeMusic,
		httpServer,
		player.OptionsFromConfig(config),
		logger,
	)

	gate := flood.New(config.App.FloodLimitPerMinute)
	if err := httpServer.RegisterGaugeFunc("playernix_flood_active_users",
		"Users with commands inside the flood window",
		func() float64 { return float64(gate.Stats().ActiveUsers) }); err != nil {
		gate.Stop()
		return nil, fmt.Errorf("failed to register flood metrics: %w", err)
	}
	dispatcher = core.NewDispatcher(config, resolver, coordinator, frontend, gate, httpServer, logger)

	return &services{
		frontend:   frontend,
		httpServer: httpServer,
		player:     coordinator,
		dispatcher: dispatcher,
		flood:      gate,
	}, nil
}

// buildProviders wires the provider cascade around one yt-dlp client.
func buildProviders() resolve.Providers {
	ext := ytdlp.NewClient(ytdlp.Config{
		ExecPath: config.Providers.YtdlpPath,
		Proxy:    config.Providers.YouTubeProxy,
	}, logger)
	opts := provider.OptionsFromConfig(config.Providers)

	musicSearch := provider.NewChain("ytmusic",
		provider.YTMusicSearcher{},
		provider.NewExtractorSearcher("ytdlp-ytmsearch", ytdlp.SearchYouTubeMusic, core.SourceYouTube, ext),
		logger)
	videoSearch := provider.NewChain("youtube",
		provider.YTSearchSearcher{},
		provider.NewExtractorSearcher("ytdlp-ytsearch", ytdlp.SearchYouTube, core.SourceYouTube, ext),
		logger)

	youtube := provider.NewYouTube(videoSearch, ext, musiclink.NewYouTubeOEmbed(), opts, logger)

	return resolve.Providers{
		YouTubeMusic: provider.NewYouTubeMusic(musicSearch, ext, opts, logger),
		YouTube:      youtube,
		SoundCloud:   provider.NewSoundCloud(ext, youtube.Searcher(), opts, logger),
		Direct:       provider.NewDirect(config.Providers.AllowedContentType, ext, opts, logger),
	}
}

func runServices(ctx context.Context, svcs *services) error {
	defer svcs.flood.Stop()

	if err := svcs.frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chat frontend: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return svcs.player.Run(gCtx)
	})

	g.Go(func() error {
		return svcs.frontend.Listen(gCtx, svcs.dispatcher.Handle)
	})

	svcs.httpServer.SetReady(true)
	logger.Info("playernix started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("playernix stopped with error", zap.Error(err))
		return err
	}

	logger.Info("playernix stopped gracefully", zap.Any("flood", svcs.flood.Stats()))
	return nil
}

func validateConfig(cfg *core.Config) error {
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token is required")
	}
	if (cfg.Spotify.ClientID == "") != (cfg.Spotify.ClientSecret == "") {
		return fmt.Errorf("spotify client ID and secret must be set together")
	}

	checks := []struct {
		name  string
		value int
		min   int
	}{
		{"search-limit", cfg.Providers.SearchLimit, 1},
		{"provider-timeout-secs", cfg.Providers.ProviderTimeoutSecs, 1},
		{"resolve-timeout-secs", cfg.Resolver.ResolveTimeoutSecs, 0},
		{"fallback-window", cfg.Resolver.FallbackWindow, 1},
		{"min-duration-secs", cfg.Resolver.MinDurationSecs, 0},
		{"history-size", cfg.Player.HistorySize, 1},
		{"autoplay-count", cfg.Player.AutoplayCount, 1},
		{"flood-limit-per-minute", cfg.App.FloodLimitPerMinute, 0},
		{"server-port", cfg.Server.Port, 1},
	}
	for _, c := range checks {
		if c.value < c.min {
			return fmt.Errorf("%s must be at least %d, got %d", c.name, c.min, c.value)
		}
	}
	if cfg.Providers.RequestsPerSecond <= 0 {
		return fmt.Errorf("provider-rps must be positive, got %v", cfg.Providers.RequestsPerSecond)
	}
	if !strings.HasPrefix(cfg.Providers.AllowedContentType, "audio/") {
		return fmt.Errorf("allowed-content-type must be an audio type, got %q", cfg.Providers.AllowedContentType)
	}

	if !i18n.IsSupported(cfg.App.Language) {
		return fmt.Errorf("unsupported language %q, use one of %s",
			cfg.App.Language, strings.Join(i18n.GetSupportedLanguages(), ", "))
	}
	return nil
}
