package player

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"playernix/internal/core"
)

const eventTimeout = 2 * time.Second

type fakeStreamer struct {
	mu       sync.Mutex
	errs     map[string]error
	fallback map[string]bool
	opened   []string
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{errs: map[string]error{}, fallback: map[string]bool{}}
}

func (f *fakeStreamer) OpenStreamWithFallback(_ context.Context, t core.Track) (*core.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opened = append(f.opened, t.URL)
	if err := f.errs[t.URL]; err != nil {
		return nil, err
	}
	return &core.Stream{
		Body:      io.NopCloser(strings.NewReader("audio of " + t.Title)),
		MediaType: "audio/mpeg",
		Track:     t,
		Source:    t.Source,
		Fallback:  f.fallback[t.URL],
	}, nil
}

// gatedOutput records what it played. With a non-nil release channel every
// Play blocks until a token arrives or ctx is cancelled.
type gatedOutput struct {
	mu      sync.Mutex
	played  []string
	release chan struct{}
}

func (o *gatedOutput) Play(ctx context.Context, _ string, s *core.Stream) error {
	o.mu.Lock()
	o.played = append(o.played, s.Track.Title)
	o.mu.Unlock()

	if _, err := io.Copy(io.Discard, s.Body); err != nil {
		return err
	}
	if o.release == nil {
		return nil
	}
	select {
	case <-o.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *gatedOutput) Played() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.played...)
}

type recordingNotifier struct {
	events chan core.Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan core.Event, 128)}
}

func (n *recordingNotifier) Notify(_ context.Context, ev core.Event) {
	n.events <- ev
}

// waitFor drops events until one of type typ arrives.
func (n *recordingNotifier) waitFor(t *testing.T, typ core.EventType) core.Event {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case ev := <-n.events:
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
			return core.Event{}
		}
	}
}

// collectUntil returns every event up to and including the first of type typ.
func (n *recordingNotifier) collectUntil(t *testing.T, typ core.EventType) []core.Event {
	t.Helper()
	var out []core.Event
	deadline := time.After(eventTimeout)
	for {
		select {
		case ev := <-n.events:
			out = append(out, ev)
			if ev.Type == typ {
				return out
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event, got %v", typ, eventTypes(out))
			return nil
		}
	}
}

func eventTypes(events []core.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type.String()
	}
	return out
}

type fakeRelated struct {
	mu      sync.Mutex
	result  core.Result
	err     error
	queries []core.Query
}

func (f *fakeRelated) Resolve(_ context.Context, q core.Query) (core.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.result, f.err
}

func (f *fakeRelated) Queries() []core.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Query(nil), f.queries...)
}

type fakeMetrics struct {
	core.NopRecorder
	mu       sync.Mutex
	sessions []int
}

func (m *fakeMetrics) SetActiveSessions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, count)
}

func (m *fakeMetrics) Last() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) == 0 {
		return -1
	}
	return m.sessions[len(m.sessions)-1]
}

func track(title, url string) core.Track {
	t, err := core.NewTrack(core.Track{Title: title, URL: url, Author: "Band", Source: core.SourceYouTube})
	if err != nil {
		panic(err)
	}
	return t
}

type harness struct {
	coordinator *Coordinator
	streamer    *fakeStreamer
	output      *gatedOutput
	notifier    *recordingNotifier
	related     *fakeRelated
	metrics     *fakeMetrics
}

func newHarness(t *testing.T, gated bool) *harness {
	t.Helper()
	h := &harness{
		streamer: newFakeStreamer(),
		output:   &gatedOutput{},
		notifier: newRecordingNotifier(),
		related:  &fakeRelated{},
		metrics:  &fakeMetrics{},
	}
	if gated {
		h.output.release = make(chan struct{})
	}
	h.coordinator = NewCoordinator(h.streamer, h.output, h.notifier, h.related, h.metrics,
		Options{HistorySize: 50, AutoplayCount: 3, SearchLimit: 10}, zap.NewNop())
	t.Cleanup(h.coordinator.Close)
	return h
}

func (h *harness) release(t *testing.T) {
	t.Helper()
	select {
	case h.output.release <- struct{}{}:
	case <-time.After(eventTimeout):
		t.Fatal("timed out releasing the output")
	}
}
