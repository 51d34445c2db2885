package player

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPauseGate_Elapsed(t *testing.T) {
	clock := &stepClock{now: time.Unix(1700000000, 0)}
	g := newPauseGate(clock.Now)

	clock.Advance(10 * time.Second)
	if !g.pause() {
		t.Fatal("pause() = false on a running gate")
	}
	if g.pause() {
		t.Error("pause() should report false when already paused")
	}

	clock.Advance(30 * time.Second)
	if got := g.elapsed(); got != 10*time.Second {
		t.Errorf("elapsed while paused = %v, want 10s", got)
	}

	if !g.resume() {
		t.Fatal("resume() = false on a paused gate")
	}
	if g.resume() {
		t.Error("resume() should report false when not paused")
	}

	clock.Advance(5 * time.Second)
	if got := g.elapsed(); got != 15*time.Second {
		t.Errorf("elapsed after resume = %v, want 15s", got)
	}
	if g.paused() {
		t.Error("gate should not be paused after resume")
	}
}

func TestPausableReader_BlocksWhilePaused(t *testing.T) {
	g := newPauseGate(time.Now)
	g.pause()
	r := &pausableReader{ctx: context.Background(), gate: g, r: strings.NewReader("audio")}

	done := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()

	select {
	case <-done:
		t.Fatal("read finished while the gate was paused")
	case <-time.After(50 * time.Millisecond):
	}

	g.resume()
	select {
	case got := <-done:
		if got != "audio" {
			t.Errorf("read %q, want %q", got, "audio")
		}
	case <-time.After(eventTimeout):
		t.Fatal("read did not finish after resume")
	}
}

func TestPausableReader_CancelWhilePaused(t *testing.T) {
	g := newPauseGate(time.Now)
	g.pause()
	ctx, cancel := context.WithCancel(context.Background())
	r := &pausableReader{ctx: ctx, gate: g, r: strings.NewReader("audio")}

	done := make(chan error, 1)
	go func() {
		_, err := r.Read(make([]byte, 8))
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	case <-time.After(eventTimeout):
		t.Fatal("cancel did not release a paused read")
	}
}
