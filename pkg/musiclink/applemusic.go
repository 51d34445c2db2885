package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// iTunesLookupURL is the iTunes/Apple Music API lookup endpoint.
const iTunesLookupURL = "https://itunes.apple.com/lookup"

type iTunesLookupResponse struct {
	ResultCount int                 `json:"resultCount"`
	Results     []iTunesTrackResult `json:"results"`
}

type iTunesTrackResult struct {
	WrapperType    string `json:"wrapperType"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	TrackTimeMilli int64  `json:"trackTimeMillis"`
	ISRC           string `json:"isrc"`
}

// AppleMusicResolver resolves Apple Music song links through the iTunes lookup API.
type AppleMusicResolver struct {
	client    *http.Client
	lookupURL string
}

// NewAppleMusicResolver creates a new Apple Music link resolver.
func NewAppleMusicResolver() *AppleMusicResolver {
	return &AppleMusicResolver{
		client:    newHTTPClient(),
		lookupURL: iTunesLookupURL,
	}
}

// CanResolve checks if the URL is an Apple Music link.
func (r *AppleMusicResolver) CanResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	return hostname == "music.apple.com" || hostname == "itunes.apple.com"
}

// Resolve extracts track information from an Apple Music URL.
func (r *AppleMusicResolver) Resolve(ctx context.Context, rawURL string) (*TrackInfo, error) {
	if !r.CanResolve(rawURL) {
		return nil, errors.New("not an Apple Music URL")
	}

	trackID, err := extractAppleTrackID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract track ID: %w", err)
	}

	reqURL := fmt.Sprintf("%s?id=%s&entity=song", r.lookupURL, url.QueryEscape(trackID))
	var resp iTunesLookupResponse
	if err := fetchJSON(ctx, r.client, reqURL, "iTunes API", &resp); err != nil {
		return nil, err
	}

	for _, res := range resp.Results {
		if res.TrackName == "" {
			continue
		}
		return &TrackInfo{
			Title:    res.TrackName,
			Artist:   res.ArtistName,
			Duration: time.Duration(res.TrackTimeMilli) * time.Millisecond,
			ISRC:     res.ISRC,
			Service:  "applemusic",
		}, nil
	}

	return nil, errors.New("no track found in iTunes API response")
}

// extractAppleTrackID reads ?i=<id> from album links or the trailing id of
// /song/<name>/<id> links.
func extractAppleTrackID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	if trackID := u.Query().Get("i"); trackID != "" {
		return trackID, nil
	}

	if strings.Contains(u.Path, "/song/") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if songID := parts[len(parts)-1]; songID != "" && songID != "song" {
			return songID, nil
		}
	}

	return "", errors.New("no track ID in Apple Music URL")
}
