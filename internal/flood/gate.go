// Package flood rate limits chat commands per user and guild.
package flood

import (
	"sync"
	"time"
)

const (
	// window is the sliding window commands are counted in
	window = time.Minute
	// sweepInterval is how often idle users are dropped
	sweepInterval = 10 * time.Minute
	// idleTimeout is how long a user may stay silent before being dropped
	idleTimeout = 10 * time.Minute
)

// Gate allows at most limit commands per user per guild in any one-minute
// window. A limit of zero or less disables the gate.
type Gate struct {
	limit   int
	users   map[string]*activity
	mutex   sync.Mutex
	now     func() time.Time
	stop    chan struct{}
	stopped sync.Once
}

type activity struct {
	times    []time.Time
	lastSeen time.Time
}

// Stats describes the current gate state.
type Stats struct {
	ActiveUsers    int `json:"active_users"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}

// New starts a gate and its background sweeper. Call Stop to release it.
func New(limitPerMinute int) *Gate {
	g := newGate(limitPerMinute, time.Now)
	go g.sweepLoop()
	return g
}

func newGate(limitPerMinute int, now func() time.Time) *Gate {
	return &Gate{
		limit: limitPerMinute,
		users: make(map[string]*activity),
		now:   now,
		stop:  make(chan struct{}),
	}
}

// Stop ends the background sweeper. It is safe to call more than once.
func (g *Gate) Stop() {
	g.stopped.Do(func() { close(g.stop) })
}

// Allow records a command from userID in guildID and reports whether it may
// be processed. Rejected commands do not count against the window.
func (g *Gate) Allow(guildID, userID string) bool {
	if g.limit <= 0 {
		return true
	}

	key := guildID + ":" + userID
	now := g.now()

	g.mutex.Lock()
	defer g.mutex.Unlock()

	a, ok := g.users[key]
	if !ok {
		a = &activity{times: make([]time.Time, 0, g.limit)}
		g.users[key] = a
	}
	a.lastSeen = now

	cutoff := now.Add(-window)
	kept := a.times[:0]
	for _, ts := range a.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	a.times = kept

	if len(a.times) >= g.limit {
		return false
	}
	a.times = append(a.times, now)
	return true
}

// Stats returns a snapshot for logging.
func (g *Gate) Stats() Stats {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return Stats{
		ActiveUsers:    len(g.users),
		LimitPerMinute: g.limit,
		WindowSeconds:  int(window.Seconds()),
	}
}

func (g *Gate) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep()
		case <-g.stop:
			return
		}
	}
}

func (g *Gate) sweep() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	cutoff := g.now().Add(-idleTimeout)
	for key, a := range g.users {
		if a.lastSeen.Before(cutoff) {
			delete(g.users, key)
		}
	}
}
