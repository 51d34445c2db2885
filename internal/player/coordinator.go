// Package player runs one playback session per guild: a FIFO queue, loop
// modes and autoplay, with audio opened right before each track plays.
package player

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/store"
	"playernix/pkg/ranking"
)

var (
	// ErrNoTracks is returned when Enqueue receives nothing to play.
	ErrNoTracks = errors.New("no tracks to enqueue")
	// ErrClosed is returned once the coordinator has shut down.
	ErrClosed = errors.New("player closed")
)

// RelatedSource finds tracks for autoplay. provider.Provider implements it.
type RelatedSource interface {
	Resolve(ctx context.Context, q core.Query) (core.Result, error)
}

// AutoplayRequester is the requester recorded on autoplay picks.
var AutoplayRequester = core.Requester{ID: "autoplay", Name: "autoplay"}

// Options tune the coordinator.
type Options struct {
	HistorySize   int
	AutoplayCount int
	SearchLimit   int
}

// OptionsFromConfig reads player options from the loaded configuration.
func OptionsFromConfig(cfg *core.Config) Options {
	return Options{
		HistorySize:   cfg.Player.HistorySize,
		AutoplayCount: cfg.Player.AutoplayCount,
		SearchLimit:   cfg.Providers.SearchLimit,
	}
}

// Coordinator owns the guild to session map. It implements
// core.SessionPlayer.
type Coordinator struct {
	streamer   core.Streamer
	output     Output
	notifier   core.Notifier
	related    RelatedSource
	metrics    core.MetricsRecorder
	normalizer *ranking.Normalizer
	opts       Options
	logger     *zap.Logger
	now        func() time.Time

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mutex    sync.Mutex
	sessions map[string]*session
	closed   bool
}

var _ core.SessionPlayer = (*Coordinator)(nil)

// NewCoordinator builds a coordinator. related and notifier may be nil, which
// disables autoplay and notifications respectively.
func NewCoordinator(
	streamer core.Streamer,
	output Output,
	notifier core.Notifier,
	related RelatedSource,
	metrics core.MetricsRecorder,
	opts Options,
	logger *zap.Logger,
) *Coordinator {
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = core.DefaultHistorySize
	}
	if opts.AutoplayCount <= 0 {
		opts.AutoplayCount = core.DefaultAutoplayCount
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = core.DefaultSearchLimit
	}

	root, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		streamer:   streamer,
		output:     output,
		notifier:   notifier,
		related:    related,
		metrics:    metrics,
		normalizer: ranking.NewNormalizer(),
		opts:       opts,
		logger:     logger.Named("player"),
		now:        time.Now,
		root:       root,
		cancel:     cancel,
		sessions:   make(map[string]*session),
	}
}

// Run blocks until ctx is done, then stops every session.
func (c *Coordinator) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return nil
}

// Close stops all sessions and waits for their playback goroutines.
func (c *Coordinator) Close() {
	c.mutex.Lock()
	c.closed = true
	c.sessions = make(map[string]*session)
	c.mutex.Unlock()

	c.cancel()
	c.wg.Wait()
	c.metrics.SetActiveSessions(0)
}

// Enqueue appends tracks to the guild's queue, starting a session when none
// exists. It returns the queue position of the first track, 1 being next.
func (c *Coordinator) Enqueue(ctx context.Context, guildID, channelID string, tracks []core.Track) (int, error) {
	if len(tracks) == 0 {
		return 0, ErrNoTracks
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	s, ok := c.sessions[guildID]
	if !ok {
		s = c.startSession(guildID, channelID)
	}
	if channelID != "" {
		s.channelID = channelID
	}

	position := len(s.queue) + 1
	for i, t := range tracks {
		t.Position = position + i
		s.queue = append(s.queue, t)
	}
	s.signal()

	c.logger.Debug("Tracks enqueued",
		zap.String("guild", guildID),
		zap.Int("count", len(tracks)),
		zap.Int("position", position))
	return position, nil
}

// Skip ends the current track. It reports false when nothing is playing.
func (c *Coordinator) Skip(guildID string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok || s.current == nil || s.cancelTrack == nil {
		return false
	}
	s.cancelTrack()
	return true
}

// Stop clears the queue and ends the session.
func (c *Coordinator) Stop(guildID string) bool {
	c.mutex.Lock()
	s, ok := c.sessions[guildID]
	if ok {
		delete(c.sessions, guildID)
		s.queue = nil
		s.cancel()
	}
	count := len(c.sessions)
	c.mutex.Unlock()

	if ok {
		c.metrics.SetActiveSessions(count)
		c.logger.Info("Session stopped", zap.String("guild", guildID))
	}
	return ok
}

// Snapshot returns the current track and a copy of the queue.
func (c *Coordinator) Snapshot(guildID string) (*core.Track, []core.Track, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok {
		return nil, nil, false
	}

	var current *core.Track
	if s.current != nil {
		t := *s.current
		current = &t
	}
	queued := make([]core.Track, len(s.queue))
	copy(queued, s.queue)
	return current, queued, true
}

// SetAutoplay toggles autoplay for an existing session.
func (c *Coordinator) SetAutoplay(guildID string, on bool) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if ok {
		s.autoplay = on
	}
	return ok
}

// SetLoop sets the loop mode of an existing session.
func (c *Coordinator) SetLoop(guildID string, mode core.LoopMode) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if ok {
		s.loop = mode
	}
	return ok
}

// Shuffle reorders the upcoming tracks at random and returns how many there
// are.
func (c *Coordinator) Shuffle(guildID string) (int, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok {
		return 0, false
	}
	// #nosec G404 - queue order does not need a secure source
	rand.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
	renumber(s.queue)
	return len(s.queue), true
}

// Previous plays the last finished track again. The interrupted current
// track follows it. Repeated calls walk further back through the history.
func (c *Coordinator) Previous(guildID string) (core.Track, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok {
		return core.Track{}, false
	}
	prev, ok := s.history.Pop()
	if !ok {
		return core.Track{}, false
	}

	head := []core.Track{prev}
	if s.current != nil && s.cancelTrack != nil {
		head = append(head, *s.current)
		s.rewind = true
		s.cancelTrack()
	}
	s.queue = append(head, s.queue...)
	renumber(s.queue)
	s.signal()

	c.logger.Debug("Going back to previous track",
		zap.String("guild", guildID),
		zap.String("title", prev.Title))
	return prev, true
}

// Pause holds the current track. It reports false when nothing is playing.
func (c *Coordinator) Pause(guildID string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok || s.gate == nil {
		return false
	}
	s.gate.pause()
	return true
}

// Resume continues a paused track. It reports false when nothing is playing.
func (c *Coordinator) Resume(guildID string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok || s.gate == nil {
		return false
	}
	s.gate.resume()
	return true
}

// NowPlaying describes the current track and the session around it.
func (c *Coordinator) NowPlaying(guildID string) (core.NowPlaying, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.sessions[guildID]
	if !ok || s.current == nil || s.gate == nil {
		return core.NowPlaying{}, false
	}
	return core.NowPlaying{
		Track:    *s.current,
		Elapsed:  s.gate.elapsed(),
		Paused:   s.gate.paused(),
		Loop:     s.loop,
		Autoplay: s.autoplay,
		Queued:   len(s.queue),
		Played:   s.history.Len(),
	}, true
}

// startSession must be called with c.mutex held.
func (c *Coordinator) startSession(guildID, channelID string) *session {
	ctx, cancel := context.WithCancel(c.root)
	s := &session{
		guildID:   guildID,
		channelID: channelID,
		history:   store.NewHistory(c.opts.HistorySize, store.DefaultFalsePositiveRate),
		wake:      make(chan struct{}, 1),
		cancel:    cancel,
	}
	c.sessions[guildID] = s
	c.metrics.SetActiveSessions(len(c.sessions))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, s)
	}()

	c.logger.Info("Session started", zap.String("guild", guildID))
	return s
}

func (c *Coordinator) notify(ctx context.Context, ev core.Event) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(ctx, ev)
}
