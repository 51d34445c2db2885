package musiclink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// YouTubeOEmbedURL is the YouTube oEmbed API endpoint.
const YouTubeOEmbedURL = "https://www.youtube.com/oembed"

type youTubeOEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// YouTubeOEmbed looks up video titles without running yt-dlp. It is used as a
// metadata fallback and does not report durations.
type YouTubeOEmbed struct {
	client   *http.Client
	endpoint string
}

// NewYouTubeOEmbed creates a client for the public oEmbed endpoint.
func NewYouTubeOEmbed() *YouTubeOEmbed {
	return &YouTubeOEmbed{client: newHTTPClient(), endpoint: YouTubeOEmbedURL}
}

// VideoInfo is what oEmbed knows about a video.
type VideoInfo struct {
	Title     string
	Author    string
	Thumbnail string
	URL       string
}

// Lookup fetches title, channel and thumbnail of a video URL.
func (o *YouTubeOEmbed) Lookup(ctx context.Context, rawURL string) (*VideoInfo, error) {
	videoID, err := ExtractYouTubeVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	videoURL := "https://www.youtube.com/watch?v=" + videoID

	var resp youTubeOEmbedResponse
	if err := fetchOEmbedJSON(ctx, o.client, o.endpoint, videoURL, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch oEmbed data: %w", err)
	}
	if strings.TrimSpace(resp.Title) == "" {
		return nil, errors.New("oEmbed response has no title")
	}

	return &VideoInfo{
		Title:     resp.Title,
		Author:    strings.TrimSuffix(resp.AuthorName, " - Topic"),
		Thumbnail: resp.ThumbnailURL,
		URL:       videoURL,
	}, nil
}

// ExtractYouTubeVideoID extracts the video ID from watch, short, shorts and
// YouTube Music links.
func ExtractYouTubeVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	hostname := strings.ToLower(u.Hostname())

	if hostname == "youtu.be" {
		path := strings.Trim(u.Path, "/")
		if path == "" {
			return "", errors.New("no video ID in youtu.be URL")
		}
		return path, nil
	}

	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if strings.HasPrefix(u.Path, prefix) {
			if id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/"); id != "" {
				return id, nil
			}
		}
	}

	videoID := u.Query().Get("v")
	if videoID == "" {
		return "", errors.New("no video ID in YouTube URL")
	}
	return videoID, nil
}
