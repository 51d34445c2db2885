package ranking

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"playernix/internal/core"
)

var (
	featRegex       = regexp.MustCompile(`(?i)\s*[\(\[]?\s*\b(?:feat\.?|ft\.?|featuring)\s+[^\)\]]*[\)\]]?\s*`)
	bracketRegex    = regexp.MustCompile(`[\(\[][^\)\]]*[\)\]]`)
	versionRegex    = regexp.MustCompile(`(?i)\b(official|video|audio|lyrics?|visualizer|hd|4k|remaster(ed)?)\b`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	seedSplitRegex  = regexp.MustCompile(`\s*[-–|]\s*`)
)

// sameSongThreshold is the title similarity above which two uploads count as one song.
const sameSongThreshold = 0.85

// Normalizer folds titles and artist names into comparable keys.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.basicNormalize(artist)
	artist = strings.TrimSuffix(artist, " topic")
	artist = strings.TrimSuffix(artist, "vevo")
	artist = strings.ReplaceAll(artist, " and ", " & ")
	return strings.TrimSpace(artist)
}

// NormalizeTitle drops featured artists, bracketed qualifiers and upload
// decorations such as "official video".
func (n *Normalizer) NormalizeTitle(title string) string {
	title = featRegex.ReplaceAllString(title, " ")
	title = bracketRegex.ReplaceAllString(title, " ")
	title = n.basicNormalize(title)
	title = versionRegex.ReplaceAllString(title, " ")
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// SeedPhrase derives the related-music search phrase for a finished track:
// its author, or the title before the first "-", "–" or "|".
func (n *Normalizer) SeedPhrase(t core.Track) string {
	if a := strings.TrimSpace(t.Author); a != "" {
		return a
	}
	parts := seedSplitRegex.Split(strings.TrimSpace(t.Title), 2)
	return strings.TrimSpace(parts[0])
}

// SameSong reports whether two descriptors most likely carry the same
// recording, even when they come from different uploads.
func (n *Normalizer) SameSong(a, b core.Track) bool {
	if a.URL != "" && a.URL == b.URL {
		return true
	}
	ta, tb := n.NormalizeTitle(a.Title), n.NormalizeTitle(b.Title)
	if ta == "" || tb == "" {
		return false
	}
	if n.CalculateSimilarity(ta, tb) < sameSongThreshold {
		return false
	}
	if a.Duration == 0 || b.Duration == 0 {
		return true
	}
	return n.DurationTolerance(a.Duration, b.Duration) > 0
}

// Key returns a stable identity for history lookups.
func (n *Normalizer) Key(t core.Track) string {
	if t.URL != "" {
		return t.URL
	}
	return n.NormalizeTitle(t.Title)
}

func (n *Normalizer) CalculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	return float64(n.longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
}

func (n *Normalizer) longestCommonSubsequence(s1, s2 string) int {
	rows, cols := len(s1), len(s2)
	dp := make([][]int, rows+1)
	for i := range dp {
		dp[i] = make([]int, cols+1)
	}

	for i := 1; i <= rows; i++ {
		for j := 1; j <= cols; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[rows][cols]
}

// DurationTolerance returns 1 for durations within 30s of each other,
// falling linearly to 0 at two minutes apart.
func (n *Normalizer) DurationTolerance(d1, d2 time.Duration) float64 {
	diff := d1 - d2
	if diff < 0 {
		diff = -diff
	}
	tolerance := 30 * time.Second

	if diff <= tolerance {
		return 1.0
	}

	maxDiff := 2 * time.Minute
	if diff >= maxDiff {
		return 0.0
	}

	return 1.0 - float64(diff-tolerance)/float64(maxDiff-tolerance)
}
