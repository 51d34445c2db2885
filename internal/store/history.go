// Package store keeps the recent play history of a session so autoplay does
// not pick the same tracks again and earlier tracks can be played back.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"playernix/internal/core"
)

// DefaultFalsePositiveRate is the bloom filter error rate used by NewHistory.
const DefaultFalsePositiveRate = 0.001

// History is a bounded set of played tracks keyed by their normalized key.
// The bloom filter answers most negative lookups; the LRU holds the
// authoritative entries in play order.
//
// Evicted keys stay in the filter until enough of them pile up, then the
// filter is rebuilt from the LRU.
type History struct {
	mutex    sync.RWMutex
	filter   *bloom.BloomFilter
	recent   *lru.Cache[string, core.Track]
	capacity int
	fpRate   float64
	stale    int
}

// NewHistory builds a history holding at most capacity keys.
func NewHistory(capacity int, fpRate float64) *History {
	if capacity <= 0 {
		capacity = 1
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = DefaultFalsePositiveRate
	}

	h := &History{
		capacity: capacity,
		fpRate:   fpRate,
	}
	h.filter = bloom.NewWithEstimates(uint(capacity), fpRate)
	// lru.NewWithEvict only fails for a non-positive size
	h.recent, _ = lru.NewWithEvict[string, core.Track](capacity, func(string, core.Track) {
		h.stale++
	})
	return h
}

// Seen reports whether key was recorded and not yet evicted.
func (h *History) Seen(key string) bool {
	if key == "" {
		return false
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.filter.TestString(key) {
		return false
	}
	return h.recent.Contains(key)
}

// Record marks t as played under key. Recording a key again moves it to the
// front.
func (h *History) Record(key string, t core.Track) {
	if key == "" {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.recent.Add(key, t)
	h.filter.AddString(key)

	if h.stale >= h.capacity {
		h.rebuild()
	}
}

// Pop removes and returns the most recently played track.
func (h *History) Pop() (core.Track, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	keys := h.recent.Keys()
	if len(keys) == 0 {
		return core.Track{}, false
	}
	key := keys[len(keys)-1]
	t, _ := h.recent.Peek(key)
	h.recent.Remove(key)
	return t, true
}

// Len returns the number of tracks held.
func (h *History) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.recent.Len()
}

func (h *History) rebuild() {
	h.filter = bloom.NewWithEstimates(uint(h.capacity), h.fpRate)
	for _, key := range h.recent.Keys() {
		h.filter.AddString(key)
	}
	h.stale = 0
}
