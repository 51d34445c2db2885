// Package ytdlp wraps the yt-dlp binary for searching, metadata lookups,
// playlist expansion and audio streaming.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"playernix/pkg/ranking"
)

const (
	entryTemplate    = "%(webpage_url,url)s\t%(title)s\t%(uploader,channel)s\t%(duration)s\t%(id)s\t%(thumbnail)s"
	playlistTemplate = "%(playlist_title)s\t%(url)s\t%(title)s\t%(uploader,channel)s\t%(duration)s\t%(id)s"
	audioFormat      = "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio/best"
	streamPeekBytes  = 64 << 10
	maxPlaylistItems = 200
)

// Search prefixes understood by yt-dlp.
const (
	SearchYouTube      = "ytsearch"
	SearchYouTubeMusic = "ytmsearch"
	SearchSoundCloud   = "scsearch"
)

// ErrNoOutput is returned when yt-dlp exits cleanly without printing an entry.
var ErrNoOutput = errors.New("yt-dlp returned no entries")

// Entry is one line of yt-dlp print output.
type Entry struct {
	URL       string
	ID        string
	Title     string
	Uploader  string
	Duration  time.Duration
	Thumbnail string
}

type Config struct {
	ExecPath string
	Proxy    string
}

// Client runs yt-dlp processes. It holds no per-request state.
type Client struct {
	config Config
	logger *zap.Logger
}

func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger.Named("ytdlp"),
	}
}

func (c *Client) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoWarnings().
		IgnoreConfig()

	if c.config.ExecPath != "" && c.config.ExecPath != "yt-dlp" {
		cmd.SetExecutable(c.config.ExecPath)
	}
	if c.config.Proxy != "" {
		cmd.Proxy(c.config.Proxy)
	}
	return cmd
}

// SearchTarget builds the "ytsearch5:query" style argument.
func SearchTarget(prefix, query string, limit int) string {
	if limit <= 0 {
		limit = 1
	}
	return fmt.Sprintf("%s%d:%s", prefix, limit, query)
}

// Search runs a flat search with one of the Search* prefixes.
func (c *Client) Search(ctx context.Context, prefix, query string, limit int) ([]Entry, error) {
	target := SearchTarget(prefix, query, limit)

	res, err := c.command().
		FlatPlaylist().
		Print(entryTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", max(limit, 1))).
		Run(ctx, target)
	if err != nil {
		return nil, c.runError("search", target, res, err)
	}

	entries := ParseEntries(res.Stdout)
	c.logger.Debug("yt-dlp search finished",
		zap.String("target", target),
		zap.Int("results", len(entries)))
	return entries, nil
}

// Metadata resolves a single URL without downloading it.
func (c *Client) Metadata(ctx context.Context, url string) (*Entry, error) {
	res, err := c.command().
		Print(entryTemplate).
		NoSimulate().
		NoPlaylist().
		Run(ctx, "--skip-download", url)
	if err != nil {
		return nil, c.runError("metadata", url, res, err)
	}

	entries := ParseEntries(res.Stdout)
	if len(entries) == 0 {
		return nil, ErrNoOutput
	}
	e := entries[0]
	if e.URL == "" {
		e.URL = url
	}
	return &e, nil
}

// Playlist expands a playlist URL in provider order.
func (c *Client) Playlist(ctx context.Context, url string, limit int) (string, []Entry, error) {
	if limit <= 0 || limit > maxPlaylistItems {
		limit = maxPlaylistItems
	}

	res, err := c.command().
		FlatPlaylist().
		Print(playlistTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Run(ctx, "--yes-playlist", url)
	if err != nil {
		return "", nil, c.runError("playlist", url, res, err)
	}

	name, entries := ParsePlaylist(res.Stdout)
	return name, entries, nil
}

// Stream starts yt-dlp writing the best audio format of url to stdout. It
// waits for the first bytes so that dead links fail here rather than mid-play.
func (c *Client) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	cmd := c.command().
		Format(audioFormat).
		Output("-").
		NoSimulate().
		NoPart().
		NoPlaylist().
		Quiet().
		BuildCommand(ctx, url)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp stdout pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	s := &processStream{cmd: cmd, stderr: stderr, reader: bufio.NewReaderSize(stdout, streamPeekBytes)}
	if _, err := s.reader.Peek(1); err != nil {
		waitErr := s.wait()
		if waitErr == nil {
			waitErr = err
		}
		return nil, fmt.Errorf("yt-dlp produced no audio: %w: %s", waitErr, lastLine(stderr.String()))
	}

	c.logger.Debug("yt-dlp stream started", zap.String("url", url))
	return s, nil
}

func (c *Client) runError(op, target string, res *ytdlp.Result, err error) error {
	stderr := ""
	if res != nil {
		stderr = lastLine(res.Stderr)
	}
	c.logger.Debug("yt-dlp failed",
		zap.String("op", op),
		zap.String("target", target),
		zap.String("stderr", stderr),
		zap.Error(err))
	if stderr != "" {
		return fmt.Errorf("yt-dlp %s: %w: %s", op, err, stderr)
	}
	return fmt.Errorf("yt-dlp %s: %w", op, err)
}

// processStream ties the lifetime of the yt-dlp process to its stdout.
type processStream struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	reader *bufio.Reader

	once    sync.Once
	waitErr error
}

func (s *processStream) Read(p []byte) (int, error) {
	n, err := s.reader.Read(p)
	if errors.Is(err, io.EOF) {
		if werr := s.wait(); werr != nil {
			return n, fmt.Errorf("yt-dlp exited: %w", werr)
		}
	}
	return n, err
}

func (s *processStream) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}

func (s *processStream) wait() error {
	s.once.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

// ParseEntries parses lines printed with the entry template.
func ParseEntries(stdout string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(line, "\t")
		if len(ps) < 4 {
			continue
		}
		e := Entry{
			URL:      na(ps[0]),
			Title:    na(ps[1]),
			Uploader: na(ps[2]),
			Duration: ranking.ParseDuration(ps[3]),
		}
		if len(ps) > 4 {
			e.ID = na(ps[4])
		}
		if len(ps) > 5 {
			e.Thumbnail = na(ps[5])
		}
		if e.URL == "" && e.Title == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// ParsePlaylist parses lines printed with the playlist template and returns the
// playlist title of the first line.
func ParsePlaylist(stdout string) (string, []Entry) {
	var (
		name    string
		entries []Entry
	)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		ps := strings.Split(line, "\t")
		if len(ps) < 5 {
			continue
		}
		if name == "" {
			name = na(ps[0])
		}
		e := Entry{
			URL:      na(ps[1]),
			Title:    na(ps[2]),
			Uploader: na(ps[3]),
			Duration: ranking.ParseDuration(ps[4]),
		}
		if len(ps) > 5 {
			e.ID = na(ps[5])
		}
		if e.URL == "" {
			continue
		}
		entries = append(entries, e)
	}
	return name, entries
}

func na(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
