package core

import (
	"context"
	"io"
	"strings"
	"time"
)

// Source identifies the provider a track was resolved from.
type Source string

const (
	// SourceYouTube covers youtube.com and music.youtube.com videos
	SourceYouTube Source = "youtube"
	// SourceSoundCloud covers soundcloud.com tracks
	SourceSoundCloud Source = "soundcloud"
	// SourceDirect covers uploaded attachments and plain audio URLs
	SourceDirect Source = "direct"
)

// StreamingMode describes how the audio bytes of a track are obtained.
type StreamingMode string

// StreamingModeDirect streams straight from the provider without a local transcode step
const StreamingModeDirect StreamingMode = "direct"

type QueryType int

const (
	// QueryTypeAuto lets the resolution engine classify the input
	QueryTypeAuto QueryType = iota
	// QueryTypeURLYouTube is a YouTube or YouTube Music link
	QueryTypeURLYouTube
	// QueryTypeURLSoundCloud is a SoundCloud link
	QueryTypeURLSoundCloud
	// QueryTypeURLSpotify is a Spotify track link, resolved to a search phrase
	QueryTypeURLSpotify
	// QueryTypeURLPage is another music-service page, resolved to a search phrase
	QueryTypeURLPage
	// QueryTypeURLOther is any other http(s) link
	QueryTypeURLOther
	// QueryTypeAttachment is an uploaded audio file
	QueryTypeAttachment
	// QueryTypeSearchText is free text
	QueryTypeSearchText
)

func (t QueryType) String() string {
	switch t {
	case QueryTypeURLYouTube:
		return "url_youtube"
	case QueryTypeURLSoundCloud:
		return "url_soundcloud"
	case QueryTypeURLSpotify:
		return "url_spotify"
	case QueryTypeURLPage:
		return "url_page"
	case QueryTypeURLOther:
		return "url_other"
	case QueryTypeAttachment:
		return "attachment"
	case QueryTypeSearchText:
		return "search_text"
	default:
		return "auto"
	}
}

// Requester is the opaque identity of whoever asked for a track.
type Requester struct {
	ID   string
	Name string
}

// Track is the immutable descriptor of one playable track.
type Track struct {
	Title          string
	URL            string
	Duration       time.Duration // 0 means unknown or live
	Thumbnail      string
	Author         string
	Views          int64
	Source         Source
	StreamingMode  StreamingMode
	FallbackSearch string
	RequestedBy    Requester
	QueryType      QueryType
	Position       int
}

// NewTrack builds a descriptor and enforces that title and URL are present.
// FallbackSearch defaults to the title.
func NewTrack(t Track) (Track, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.URL = strings.TrimSpace(t.URL)
	if t.Title == "" || t.URL == "" {
		return Track{}, ErrMalformed
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
	if t.Views < 0 {
		t.Views = 0
	}
	if t.StreamingMode == "" {
		t.StreamingMode = StreamingModeDirect
	}
	if strings.TrimSpace(t.FallbackSearch) == "" {
		t.FallbackSearch = t.Title
	}
	return t, nil
}

// FallbackKey returns the phrase used to find this track on another provider.
func (t Track) FallbackKey() string {
	if k := strings.TrimSpace(t.FallbackSearch); k != "" {
		return k
	}
	return t.Title
}

// DurationMs returns the duration in whole milliseconds.
func (t Track) DurationMs() int64 {
	return t.Duration.Milliseconds()
}

type ResultKind int

const (
	// ResultEmpty means nothing playable was found
	ResultEmpty ResultKind = iota
	// ResultSingle carries exactly one track
	ResultSingle
	// ResultPlaylist carries tracks in provider order
	ResultPlaylist
)

func (k ResultKind) String() string {
	switch k {
	case ResultSingle:
		return "single"
	case ResultPlaylist:
		return "playlist"
	default:
		return "empty"
	}
}

// Result is the outcome of resolving one query.
type Result struct {
	Kind         ResultKind
	Tracks       []Track
	PlaylistName string
}

// EmptyResult returns a result with no tracks.
func EmptyResult() Result {
	return Result{Kind: ResultEmpty}
}

// SingleResult wraps one track. Providers may return several candidates
// under this kind; the resolution engine narrows them to one.
func SingleResult(tracks ...Track) Result {
	if len(tracks) == 0 {
		return EmptyResult()
	}
	return Result{Kind: ResultSingle, Tracks: tracks}
}

// PlaylistResult wraps an ordered list of tracks.
func PlaylistResult(name string, tracks []Track) Result {
	if len(tracks) == 0 {
		return EmptyResult()
	}
	return Result{Kind: ResultPlaylist, Tracks: tracks, PlaylistName: name}
}

// IsEmpty reports whether the result carries no tracks.
func (r Result) IsEmpty() bool {
	return r.Kind == ResultEmpty || len(r.Tracks) == 0
}

// Query is the input handed to a provider. It is classified once by the
// resolution engine and never re-classified downstream.
type Query struct {
	Raw         string
	Text        string
	IsDirectURL bool
	Type        QueryType
	Limit       int
	Attachment  *Attachment
}

// Attachment is an uploaded file that should be played as-is.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
	Size        int
}

// Stream is an open audio byte stream. Track is always the descriptor the
// caller asked for, even when the bytes come from a fallback provider.
type Stream struct {
	Body      io.ReadCloser
	MediaType string
	Track     Track
	Source    Source
	Fallback  bool
}

// Close releases the underlying body.
func (s *Stream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}

// LoopMode controls what a session does when a track finishes.
type LoopMode int

const (
	// LoopNone plays the queue once
	LoopNone LoopMode = iota
	// LoopTrack repeats the current track
	LoopTrack
	// LoopQueue re-appends finished tracks to the end of the queue
	LoopQueue
)

func (m LoopMode) String() string {
	switch m {
	case LoopTrack:
		return "track"
	case LoopQueue:
		return "queue"
	default:
		return "none"
	}
}

// ParseLoopMode maps user input to a loop mode.
func ParseLoopMode(s string) (LoopMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "0":
		return LoopNone, true
	case "track", "song", "1":
		return LoopTrack, true
	case "queue", "all", "2":
		return LoopQueue, true
	}
	return LoopNone, false
}

// CommandType enumerates the chat commands the dispatcher understands.
type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandPlay
	CommandSkip
	CommandStop
	CommandQueue
	CommandAutoplay
	CommandLoop
	CommandShuffle
	CommandPrevious
	CommandPause
	CommandResume
	CommandNowPlaying
)

func (c CommandType) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandSkip:
		return "skip"
	case CommandStop:
		return "stop"
	case CommandQueue:
		return "queue"
	case CommandAutoplay:
		return "autoplay"
	case CommandLoop:
		return "loop"
	case CommandShuffle:
		return "shuffle"
	case CommandPrevious:
		return "previous"
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandNowPlaying:
		return "nowplaying"
	default:
		return "unknown"
	}
}

// Command is a normalized chat command from any frontend.
type Command struct {
	Type       CommandType
	Args       string
	Attachment *Attachment
	GuildID    string
	ChannelID  string
	MessageID  string
	Requester  Requester
	Reply      func(ctx context.Context, text string) error
}

// EventType enumerates playback notifications.
type EventType int

const (
	EventTrackStart EventType = iota
	EventTrackEnd
	EventTrackException
	EventQueueEmpty
	EventAutoplay
)

func (e EventType) String() string {
	switch e {
	case EventTrackStart:
		return "track_start"
	case EventTrackEnd:
		return "track_end"
	case EventTrackException:
		return "track_exception"
	case EventAutoplay:
		return "autoplay"
	default:
		return "queue_empty"
	}
}

// Event is forwarded by the playback side to whatever listens for it.
type Event struct {
	Type      EventType
	GuildID   string
	ChannelID string
	Track     *Track
	Fallback  bool
	Count     int // tracks added, for EventAutoplay
	Err       error
}

// Resolver turns user input into playable tracks.
type Resolver interface {
	Resolve(ctx context.Context, raw string, attachment *Attachment, by Requester) (Result, error)
}

// Streamer opens audio for a queued track.
type Streamer interface {
	OpenStreamWithFallback(ctx context.Context, t Track) (*Stream, error)
}

// Notifier receives playback events. The resolution and streaming engines
// never call it; the session side does.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// SessionPlayer is the queue side the dispatcher drives.
type SessionPlayer interface {
	Enqueue(ctx context.Context, guildID, channelID string, tracks []Track) (int, error)
	Skip(guildID string) bool
	Stop(guildID string) bool
	Snapshot(guildID string) (current *Track, queued []Track, ok bool)
	SetAutoplay(guildID string, on bool) bool
	SetLoop(guildID string, mode LoopMode) bool
	Shuffle(guildID string) (int, bool)
	Previous(guildID string) (Track, bool)
	Pause(guildID string) bool
	Resume(guildID string) bool
	NowPlaying(guildID string) (NowPlaying, bool)
}

// NowPlaying describes the track a session is playing.
type NowPlaying struct {
	Track    Track
	Elapsed  time.Duration
	Paused   bool
	Loop     LoopMode
	Autoplay bool
	Queued   int
	Played   int
}

// MetricsRecorder is implemented by the HTTP metrics server. A nil recorder is
// replaced with NopRecorder by the components that accept one.
type MetricsRecorder interface {
	RecordCommand(command, status string)
	RecordResolution(kind string, duration time.Duration)
	RecordProviderAttempt(provider, outcome string)
	RecordStream(outcome string)
	SetActiveSessions(count int)
}

// NopRecorder discards all metrics.
type NopRecorder struct{}

func (NopRecorder) RecordCommand(string, string) {}
func (NopRecorder) RecordResolution(string, time.Duration) {}
func (NopRecorder) RecordProviderAttempt(string, string) {}
func (NopRecorder) RecordStream(string) {}
func (NopRecorder) SetActiveSessions(int) {}
