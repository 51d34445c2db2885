package musiclink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// commonUserAgent is the user agent string used for all HTTP requests.
	commonUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// commonAcceptHeader is the accept header used for all HTTP requests.
	commonAcceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	// expectedSplitParts is the expected number of parts when splitting title/artist strings.
	expectedSplitParts = 2
	// defaultHTTPTimeout is the default timeout for HTTP requests.
	defaultHTTPTimeout = 10 * time.Second
	// maxHTTPRedirects is the maximum number of HTTP redirects to follow.
	maxHTTPRedirects = 3
	// maxPageReadSize caps how much of a page is read; the head is all we need.
	maxPageReadSize = 512 * 1024
)

var (
	// ErrTooManyRedirects is returned when too many redirects are encountered.
	ErrTooManyRedirects = errors.New("too many redirects")

	titleTagRegex = regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`)
)

// newHTTPClient creates a new HTTP client with standard settings and redirect validation.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: defaultHTTPTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxHTTPRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// fetchHTMLFromURL fetches HTML content from a URL with a size limit.
func fetchHTMLFromURL(ctx context.Context, client *http.Client, pageURL, serviceName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", commonUserAgent)
	req.Header.Set("Accept", commonAcceptHeader)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", serviceName, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxPageReadSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(bodyBytes), nil
}

// fetchJSON performs a GET request and decodes the JSON body into dest.
func fetchJSON(ctx context.Context, client *http.Client, reqURL, serviceName string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", commonUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", serviceName, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", serviceName, err)
	}

	return nil
}

// fetchOEmbedJSON fetches and decodes JSON from an oEmbed API endpoint.
func fetchOEmbedJSON(ctx context.Context, client *http.Client, oembedURL, targetURL string, dest any) error {
	reqURL := fmt.Sprintf("%s?url=%s&format=json", oembedURL, url.QueryEscape(targetURL))
	return fetchJSON(ctx, client, reqURL, "oEmbed API", dest)
}

// extractMetaContent returns the content of a <meta property=...> or
// <meta name=...> tag, with either attribute order.
func extractMetaContent(page, property string) string {
	p := regexp.QuoteMeta(property)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta\s+[^>]*(?:property|name)="` + p + `"[^>]*\scontent="([^"]*)"`),
		regexp.MustCompile(`(?i)<meta\s+[^>]*content="([^"]*)"[^>]*\s(?:property|name)="` + p + `"`),
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(page); len(m) > 1 {
			return strings.TrimSpace(html.UnescapeString(m[1]))
		}
	}
	return ""
}

// extractTitleTag returns the unescaped text of the <title> element.
func extractTitleTag(page string) string {
	m := titleTagRegex.FindStringSubmatch(page)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// splitTitleAndArtist strips a service suffix and splits the remainder on
// the first separator that occurs in it.
func splitTitleAndArtist(text, serviceSuffix string, separators ...string) (title, artist string) {
	text = strings.TrimSpace(text)
	if serviceSuffix != "" {
		text = strings.TrimSpace(strings.TrimSuffix(text, serviceSuffix))
	}

	for _, sep := range separators {
		if sep == "" || !strings.Contains(text, sep) {
			continue
		}
		parts := strings.SplitN(text, sep, expectedSplitParts)
		if len(parts) == expectedSplitParts {
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}

	return text, ""
}
