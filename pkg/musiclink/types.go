// Package musiclink turns links to music services that cannot be streamed
// directly into a title and artist that can be searched for elsewhere.
package musiclink

import (
	"context"
	"strings"
	"time"
)

// TrackInfo holds extracted track information from various music providers.
type TrackInfo struct {
	Title    string        // Track title.
	Artist   string        // Artist name(s).
	Duration time.Duration // Zero when the service does not expose it.
	ISRC     string        // International Standard Recording Code (if available).
	Service  string        // Name of the resolver that produced the info.
}

// SearchPhrase returns "title artist", the text handed to the search cascade.
func (t *TrackInfo) SearchPhrase() string {
	return strings.TrimSpace(strings.TrimSpace(t.Title) + " " + strings.TrimSpace(t.Artist))
}

// Resolver defines the interface for resolving music links from various providers to track information.
type Resolver interface {
	// Resolve extracts track information from a music provider URL.
	Resolve(ctx context.Context, url string) (*TrackInfo, error)

	// CanResolve checks if this resolver can handle the given URL.
	CanResolve(url string) bool
}
