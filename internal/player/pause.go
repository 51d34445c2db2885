package player

import (
	"context"
	"io"
	"sync"
	"time"
)

// pauseGate holds back reads of the playing stream while paused. Each track
// gets its own gate, so skipping a paused track plays the next one.
type pauseGate struct {
	mutex   sync.Mutex
	resumed chan struct{} // non-nil while paused
	started time.Time
	since   time.Time
	held    time.Duration
	now     func() time.Time
}

func newPauseGate(now func() time.Time) *pauseGate {
	return &pauseGate{started: now(), now: now}
}

// pause reports false when the gate was already paused.
func (g *pauseGate) pause() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.resumed != nil {
		return false
	}
	g.resumed = make(chan struct{})
	g.since = g.now()
	return true
}

// resume reports false when the gate was not paused.
func (g *pauseGate) resume() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.resumed == nil {
		return false
	}
	close(g.resumed)
	g.resumed = nil
	g.held += g.now().Sub(g.since)
	return true
}

func (g *pauseGate) paused() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.resumed != nil
}

// elapsed is the play time of the track, not counting pauses.
func (g *pauseGate) elapsed() time.Duration {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	end := g.now()
	if g.resumed != nil {
		end = g.since
	}
	return end.Sub(g.started) - g.held
}

func (g *pauseGate) wait(ctx context.Context) error {
	g.mutex.Lock()
	resumed := g.resumed
	g.mutex.Unlock()

	if resumed == nil {
		return nil
	}
	select {
	case <-resumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pausableReader blocks each read while the gate is paused.
type pausableReader struct {
	ctx  context.Context
	gate *pauseGate
	r    io.Reader
}

func (p *pausableReader) Read(b []byte) (int, error) {
	if err := p.gate.wait(p.ctx); err != nil {
		return 0, err
	}
	return p.r.Read(b)
}
