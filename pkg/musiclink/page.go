package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// pageService describes how a known service formats its page titles.
type pageService struct {
	name       string
	hosts      []string
	suffix     string
	separators []string
}

var knownPageServices = []pageService{
	{name: "tidal", hosts: []string{"tidal.com", "listen.tidal.com"}, suffix: " | TIDAL", separators: []string{" – ", " - ", " by "}},
	{name: "beatport", hosts: []string{"beatport.com"}, suffix: " on Beatport", separators: []string{" by "}},
	{name: "amazonmusic", hosts: []string{"music.amazon.com", "music.amazon.de", "music.amazon.co.uk"}, suffix: " on Amazon Music", separators: []string{" by "}},
	{name: "deezer", hosts: []string{"deezer.com"}, suffix: " - Deezer", separators: []string{" - "}},
	{name: "bandcamp", hosts: []string{"bandcamp.com"}, suffix: "", separators: []string{", by ", " | "}},
}

var (
	musicPathPatterns = []string{
		"/track/", "/tracks/",
		"/album/", "/albums/",
		"/song/", "/songs/",
		"/music/",
	}
	musicSubdomains = []string{"music.", "play.", "listen.", "stream."}
)

// PageResolver reads OpenGraph tags or the <title> of a music service page.
type PageResolver struct {
	client *http.Client
}

// NewPageResolver creates a new generic music page resolver.
func NewPageResolver() *PageResolver {
	return &PageResolver{client: newHTTPClient()}
}

// IsLikelyMusicPage reports whether a link looks like a track or album page of a
// music service, judged by its path or subdomain.
func IsLikelyMusicPage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	if lookupPageService(u.Hostname()) != nil {
		return true
	}

	path := strings.ToLower(u.Path) + "/"
	for _, pattern := range musicPathPatterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, sub := range musicSubdomains {
		if strings.HasPrefix(host, sub) {
			return true
		}
	}
	return false
}

// CanResolve checks if the URL looks like a music page.
func (r *PageResolver) CanResolve(rawURL string) bool {
	return IsLikelyMusicPage(rawURL)
}

// Resolve fetches the page and extracts the track title and artist.
func (r *PageResolver) Resolve(ctx context.Context, rawURL string) (*TrackInfo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	svc := lookupPageService(u.Hostname())
	name := u.Hostname()
	if svc != nil {
		name = svc.name
	}

	page, err := fetchHTMLFromURL(ctx, r.client, rawURL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	title, artist := extractPageTrackInfo(page, svc)
	if title == "" {
		return nil, errors.New("could not extract track information from page")
	}

	return &TrackInfo{Title: title, Artist: artist, Service: name}, nil
}

func extractPageTrackInfo(page string, svc *pageService) (title, artist string) {
	suffix, separators := "", []string{" - ", " by "}
	if svc != nil {
		suffix, separators = svc.suffix, svc.separators
	}

	if og := extractMetaContent(page, "og:title"); og != "" {
		title, artist = splitTitleAndArtist(og, suffix, separators...)
		if artist == "" {
			artist = artistFromDescription(extractMetaContent(page, "og:description"))
		}
	} else if tag := extractTitleTag(page); tag != "" {
		title, artist = splitTitleAndArtist(tag, suffix, separators...)
	}
	return title, artist
}

// artistFromDescription picks the artist out of descriptions like
// "Listen to X by Artist" or "Song · 2021 · Artist".
func artistFromDescription(desc string) string {
	if desc == "" {
		return ""
	}
	lower := strings.ToLower(desc)
	if i := strings.LastIndex(lower, " by "); i >= 0 {
		rest := desc[i+len(" by "):]
		rest, _, _ = strings.Cut(rest, ".")
		return strings.TrimSpace(rest)
	}
	return ""
}

func lookupPageService(hostname string) *pageService {
	host := strings.TrimPrefix(strings.ToLower(hostname), "www.")
	for i := range knownPageServices {
		for _, h := range knownPageServices[i].hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return &knownPageServices[i]
			}
		}
	}
	return nil
}
