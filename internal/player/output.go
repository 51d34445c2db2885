package player

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/provider"
)

// Output consumes an open stream. Play blocks until the stream is drained or
// ctx is cancelled; it does not close the stream.
type Output interface {
	Play(ctx context.Context, guildID string, s *core.Stream) error
}

const maxFileTitleLength = 60

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var mediaExtensions = map[string]string{
	provider.MediaTypeWebmOpus: ".webm",
	"audio/webm":               ".webm",
	"audio/mpeg":               ".mp3",
	"audio/mp3":                ".mp3",
	"audio/ogg":                ".ogg",
	"audio/opus":               ".opus",
	"audio/flac":               ".flac",
	"audio/x-flac":             ".flac",
	"audio/wav":                ".wav",
	"audio/x-wav":              ".wav",
	"audio/mp4":                ".m4a",
	"audio/aac":                ".aac",
}

// FileOutput writes every stream to <dir>/<guild>/<time>-<title><ext>. It
// stands in for a voice connection.
type FileOutput struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileOutput returns an output rooted at dir.
func NewFileOutput(dir string, logger *zap.Logger) *FileOutput {
	return &FileOutput{
		dir:    dir,
		logger: logger.Named("output"),
		now:    time.Now,
	}
}

func (o *FileOutput) Play(ctx context.Context, guildID string, s *core.Stream) error {
	guildDir := filepath.Join(o.dir, sanitize(guildID))
	if err := os.MkdirAll(guildDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(guildDir, o.fileName(s))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	start := o.now()
	n, err := io.Copy(f, &contextReader{ctx: ctx, r: s.Body})
	if err != nil {
		return err
	}

	o.logger.Debug("Stream written",
		zap.String("guild", guildID),
		zap.String("path", path),
		zap.Int64("bytes", n),
		zap.Bool("fallback", s.Fallback),
		zap.Duration("elapsed", o.now().Sub(start)))
	return nil
}

func (o *FileOutput) fileName(s *core.Stream) string {
	title := sanitize(s.Track.Title)
	if len(title) > maxFileTitleLength {
		title = title[:maxFileTitleLength]
	}
	if title == "" {
		title = "track"
	}
	return o.now().UTC().Format("20060102-150405") + "-" + title + extensionFor(s.MediaType)
}

func extensionFor(mediaType string) string {
	mt, _, _ := strings.Cut(strings.ToLower(mediaType), ";")
	if ext, ok := mediaExtensions[strings.TrimSpace(mt)]; ok {
		return ext
	}
	return ".bin"
}

func sanitize(s string) string {
	return strings.Trim(unsafeFileChars.ReplaceAllString(s, "_"), "_")
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
