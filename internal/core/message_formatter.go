package core

import (
	"strconv"
	"strings"
	"time"
)

// queuePreviewSize is the number of upcoming tracks listed by the queue command.
const queuePreviewSize = 10

// FormatDuration renders d as M:SS or H:MM:SS. Zero renders as an empty string.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return strconv.Itoa(h) + ":" + pad(m) + ":" + pad(s)
	}
	return strconv.Itoa(m) + ":" + pad(s)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// durationLabel renders a track length, or the localized "live" label when
// the length is unknown.
func (d *Dispatcher) durationLabel(t Track) string {
	if s := FormatDuration(t.Duration); s != "" {
		return s
	}
	return d.localizer.T("format.duration_live")
}

// formatQueue renders the now-playing line and a preview of what follows.
func (d *Dispatcher) formatQueue(current *Track, queued []Track) string {
	if current == nil && len(queued) == 0 {
		return d.localizer.T("format.queue_empty")
	}

	var lines []string
	if current != nil {
		lines = append(lines, d.localizer.T("format.queue_current", current.Title, d.durationLabel(*current)))
	}
	for i, t := range queued {
		if i == queuePreviewSize {
			lines = append(lines, d.localizer.T("format.queue_more", len(queued)-queuePreviewSize))
			break
		}
		lines = append(lines, d.localizer.T("format.queue_item", i+1, t.Title, d.durationLabel(t)))
	}
	return strings.Join(lines, "\n")
}

// formatNowPlaying renders the current track with its progress and the
// session modes on a second line.
func (d *Dispatcher) formatNowPlaying(np NowPlaying) string {
	key := "format.now_playing"
	if np.Paused {
		key = "format.now_playing_paused"
	}
	elapsed := FormatDuration(np.Elapsed)
	if elapsed == "" {
		elapsed = "0:00"
	}
	requester := np.Track.RequestedBy.Name
	if requester == "" {
		requester = np.Track.RequestedBy.ID
	}

	autoplay := d.localizer.T("format.off")
	if np.Autoplay {
		autoplay = d.localizer.T("format.on")
	}
	return d.localizer.T(key, np.Track.Title, elapsed, d.durationLabel(np.Track), requester) + "\n" +
		d.localizer.T("format.now_playing_modes", np.Loop.String(), autoplay, np.Queued)
}

// formatEvent returns the channel message for a playback event, or "" when
// the event is not announced.
func (d *Dispatcher) formatEvent(ev Event) string {
	title := ""
	if ev.Track != nil {
		title = ev.Track.Title
	}

	switch ev.Type {
	case EventTrackStart:
		if ev.Track == nil {
			return ""
		}
		if ev.Fallback {
			return d.localizer.T("bot.now_playing_alt", title, d.durationLabel(*ev.Track))
		}
		return d.localizer.T("bot.now_playing", title, d.durationLabel(*ev.Track))
	case EventTrackException:
		return d.localizer.T(PlaybackFailureKey(ev.Err), title)
	case EventAutoplay:
		return d.localizer.T("bot.autoplay_added", ev.Count)
	case EventQueueEmpty:
		return d.localizer.T("bot.queue_finished")
	default:
		return ""
	}
}
