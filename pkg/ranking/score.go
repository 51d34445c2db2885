// Package ranking scores and filters search candidates so that one query
// resolves to the most plausible upload of a song.
package ranking

import (
	"sort"
	"strings"
	"time"

	"playernix/internal/core"
)

// MinDuration is the usual cut-off for DurationFilter.
const MinDuration = 60 * time.Second

const (
	officialBonus    = 100
	vevoBonus        = 80
	audioBonus       = 50
	authorMatchBonus = 60
	longTrackBonus   = 20
	longerTrackBonus = 10
	karaokePenalty   = -60
	longTrackMs      = 120_000
	longerTrackMs    = 180_000
)

// penalties apply when the title carries the term and the query does not.
var penalties = []struct {
	term   string
	amount int
}{
	{"remix", -50},
	{"cover", -50},
	{"live", -40},
	{"instrumental", -40},
	{"lyric", -30},
}

// RankScore returns an additive plausibility score for t as an answer to query.
// All checks are case-insensitive substring matches.
func RankScore(t core.Track, query string) int {
	title := strings.ToLower(t.Title)
	author := strings.ToLower(t.Author)
	q := strings.ToLower(query)

	score := 0

	if strings.Contains(title, "official") || strings.Contains(author, "official") {
		score += officialBonus
	}
	if strings.Contains(title, "vevo") || strings.Contains(author, "vevo") {
		score += vevoBonus
	}
	if strings.Contains(title, "audio") || strings.Contains(title, "music video") {
		score += audioBonus
	}

	for _, p := range penalties {
		if strings.Contains(title, p.term) && !strings.Contains(q, p.term) {
			score += p.amount
		}
	}

	if strings.Contains(title, "karaoke") {
		score += karaokePenalty
	}

	if author != "" {
		token := strings.TrimSpace(strings.SplitN(author, "-", 2)[0])
		if token != "" && strings.Contains(q, token) {
			score += authorMatchBonus
		}
	}

	ms := t.DurationMs()
	if ms > longTrackMs {
		score += longTrackBonus
	}
	if ms > longerTrackMs {
		score += longerTrackBonus
	}

	return score
}

// Rank returns a copy of tracks ordered by descending RankScore. Equal scores
// keep their provider order.
func Rank(tracks []core.Track, query string) []core.Track {
	type scored struct {
		track core.Track
		score int
	}

	items := make([]scored, len(tracks))
	for i, t := range tracks {
		items[i] = scored{track: t, score: RankScore(t, query)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranked := make([]core.Track, len(items))
	for i, it := range items {
		ranked[i] = it.track
	}
	return ranked
}

// Best returns the highest ranked track, or false for an empty list.
func Best(tracks []core.Track, query string) (core.Track, bool) {
	if len(tracks) == 0 {
		return core.Track{}, false
	}
	if len(tracks) == 1 {
		return tracks[0], true
	}
	return Rank(tracks, query)[0], true
}

// DurationFilter drops tracks shorter than min. When that would drop every
// track the input is returned unchanged. A min of zero disables the filter.
func DurationFilter(tracks []core.Track, min time.Duration) []core.Track {
	if min <= 0 {
		return tracks
	}

	kept := make([]core.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Duration >= min {
			kept = append(kept, t)
		}
	}

	if len(kept) == 0 {
		return tracks
	}
	return kept
}
