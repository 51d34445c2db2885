package player

import (
	"context"
	"io"

	"go.uber.org/zap"

	"playernix/internal/core"
	"playernix/internal/ytdlp"
)

type outcome int

const (
	outcomeEnded outcome = iota
	outcomeSkipped
	outcomeFailed
)

// session fields are guarded by the coordinator mutex.
type session struct {
	guildID      string
	channelID    string
	queue        []core.Track
	current      *core.Track
	last         *core.Track
	autoplay     bool
	autoplaySeed string
	loop         core.LoopMode
	played       bool
	rewind       bool
	history      historyStore
	gate         *pauseGate
	wake         chan struct{}
	cancel       context.CancelFunc
	cancelTrack  context.CancelFunc
}

type historyStore interface {
	Seen(key string) bool
	Record(key string, t core.Track)
	Pop() (core.Track, bool)
	Len() int
}

// playback is the track taken off the queue and the handles that control it.
type playback struct {
	track  core.Track
	ctx    context.Context
	cancel context.CancelFunc
	gate   *pauseGate
}

func (s *session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the playback goroutine of one session. It plays queued tracks in
// order, tops the queue up with autoplay and otherwise idles until woken.
func (c *Coordinator) run(ctx context.Context, s *session) {
	for {
		if ctx.Err() != nil {
			return
		}

		if pb, ok := c.next(ctx, s); ok {
			c.play(ctx, s, pb)
			continue
		}

		if c.autoplay(ctx, s) {
			continue
		}

		if ch, drained := c.drained(s); drained {
			c.notify(ctx, core.Event{Type: core.EventQueueEmpty, GuildID: s.guildID, ChannelID: ch})
		}

		select {
		case <-s.wake:
		case <-ctx.Done():
			return
		}
	}
}

// next pops the head of the queue and makes it current.
func (c *Coordinator) next(ctx context.Context, s *session) (*playback, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}

	t := s.queue[0]
	s.queue = s.queue[1:]
	renumber(s.queue)

	trackCtx, cancel := context.WithCancel(ctx)
	pb := &playback{track: t, ctx: trackCtx, cancel: cancel, gate: newPauseGate(c.now)}
	s.current = &t
	s.cancelTrack = cancel
	s.gate = pb.gate
	return pb, true
}

func (c *Coordinator) play(ctx context.Context, s *session, pb *playback) {
	defer pb.cancel()
	t, trackCtx := pb.track, pb.ctx
	logger := c.logger.With(
		zap.String("guild", s.guildID),
		zap.String("title", t.Title),
		zap.String("url", t.URL))

	stream, err := c.streamer.OpenStreamWithFallback(trackCtx, t)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if trackCtx.Err() != nil {
			c.finish(ctx, s, t, outcomeSkipped, nil)
			return
		}
		logger.Warn("Track could not be streamed", zap.Error(err))
		c.finish(ctx, s, t, outcomeFailed, err)
		return
	}
	defer stream.Close()

	logger.Info("Track started",
		zap.String("source", string(stream.Source)),
		zap.Bool("fallback", stream.Fallback))
	c.notify(ctx, core.Event{
		Type:      core.EventTrackStart,
		GuildID:   s.guildID,
		ChannelID: c.channelOf(s),
		Track:     &t,
		Fallback:  stream.Fallback,
	})

	gated := *stream
	gated.Body = io.NopCloser(&pausableReader{ctx: trackCtx, gate: pb.gate, r: stream.Body})
	err = c.output.Play(trackCtx, s.guildID, &gated)
	switch {
	case ctx.Err() != nil:
		return
	case trackCtx.Err() != nil:
		c.finish(ctx, s, t, outcomeSkipped, nil)
	case err != nil:
		logger.Warn("Playback interrupted", zap.Error(err))
		c.finish(ctx, s, t, outcomeFailed, err)
	default:
		c.finish(ctx, s, t, outcomeEnded, nil)
	}
}

// finish records t as played and applies the loop mode. A failed track is
// never repeated. A track interrupted by Previous is already queued again and
// stays out of the history.
func (c *Coordinator) finish(ctx context.Context, s *session, t core.Track, result outcome, err error) {
	c.mutex.Lock()
	s.current = nil
	s.cancelTrack = nil
	s.gate = nil
	s.played = true
	s.last = &t

	if s.rewind {
		s.rewind = false
	} else {
		s.history.Record(c.normalizer.Key(t), t)
		switch {
		case result == outcomeFailed:
		case s.loop == core.LoopTrack && result == outcomeEnded:
			s.queue = append([]core.Track{t}, s.queue...)
		case s.loop == core.LoopQueue:
			s.queue = append(s.queue, t)
		}
	}
	renumber(s.queue)
	channelID := s.channelID
	c.mutex.Unlock()

	ev := core.Event{Type: core.EventTrackEnd, GuildID: s.guildID, ChannelID: channelID, Track: &t}
	if result == outcomeFailed {
		ev.Type = core.EventTrackException
		ev.Err = err
	}
	c.notify(ctx, ev)
}

// drained reports, once per run of the queue, that playback ran out of tracks.
func (c *Coordinator) drained(s *session) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !s.played || len(s.queue) > 0 {
		return "", false
	}
	s.played = false
	return s.channelID, true
}

func (c *Coordinator) channelOf(s *session) string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return s.channelID
}

// autoplay queues tracks related to the last finished one. Each finished
// track seeds at most one search.
func (c *Coordinator) autoplay(ctx context.Context, s *session) bool {
	if c.related == nil {
		return false
	}

	c.mutex.Lock()
	if !s.autoplay || s.last == nil || len(s.queue) > 0 {
		c.mutex.Unlock()
		return false
	}
	seed := *s.last
	seedKey := c.normalizer.Key(seed)
	if s.autoplaySeed == seedKey {
		c.mutex.Unlock()
		return false
	}
	s.autoplaySeed = seedKey
	c.mutex.Unlock()

	phrase := c.normalizer.SeedPhrase(seed)
	if phrase == "" {
		return false
	}

	res, err := c.related.Resolve(ctx, core.Query{
		Raw:   ytdlp.SearchYouTubeMusic + ":" + phrase,
		Text:  phrase,
		Type:  core.QueryTypeSearchText,
		Limit: c.opts.SearchLimit,
	})
	if err != nil {
		c.logger.Warn("Autoplay search failed",
			zap.String("guild", s.guildID),
			zap.String("query", phrase),
			zap.Error(err))
		return false
	}

	picks := c.pickRelated(s, seed, res.Tracks)
	if len(picks) == 0 {
		c.logger.Debug("Autoplay found nothing new",
			zap.String("guild", s.guildID),
			zap.String("query", phrase))
		return false
	}

	c.mutex.Lock()
	if ctx.Err() != nil {
		c.mutex.Unlock()
		return false
	}
	for _, t := range picks {
		t.Position = len(s.queue) + 1
		s.queue = append(s.queue, t)
	}
	channelID := s.channelID
	c.mutex.Unlock()

	c.logger.Info("Autoplay queued tracks",
		zap.String("guild", s.guildID),
		zap.String("query", phrase),
		zap.Int("count", len(picks)))
	c.notify(ctx, core.Event{
		Type:      core.EventAutoplay,
		GuildID:   s.guildID,
		ChannelID: channelID,
		Track:     &seed,
		Count:     len(picks),
	})
	return true
}

// pickRelated drops the seed, anything already played and duplicates among
// the candidates, keeping provider order.
func (c *Coordinator) pickRelated(s *session, seed core.Track, candidates []core.Track) []core.Track {
	picks := make([]core.Track, 0, c.opts.AutoplayCount)
	for _, t := range candidates {
		if len(picks) >= c.opts.AutoplayCount {
			break
		}
		if c.normalizer.SameSong(seed, t) || s.history.Seen(c.normalizer.Key(t)) {
			continue
		}
		duplicate := false
		for _, p := range picks {
			if c.normalizer.SameSong(p, t) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		t.RequestedBy = AutoplayRequester
		t.QueryType = core.QueryTypeSearchText
		picks = append(picks, t)
	}
	return picks
}

func renumber(queue []core.Track) {
	for i := range queue {
		queue[i].Position = i + 1
	}
}
