package musiclink

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoResolver is returned when no registered resolver accepts a URL.
var ErrNoResolver = errors.New("no resolver found for URL")

// Manager coordinates multiple music link resolvers to handle various provider URLs.
type Manager struct {
	resolvers []Resolver
}

// NewManager creates a manager that asks the given resolvers in order.
func NewManager(resolvers ...Resolver) *Manager {
	m := &Manager{}
	for _, r := range resolvers {
		if r != nil {
			m.resolvers = append(m.resolvers, r)
		}
	}
	return m
}

// NewDefaultManager registers the resolvers that need no credentials,
// followed by any extra ones such as the Spotify resolver.
func NewDefaultManager(extra ...Resolver) *Manager {
	resolvers := append([]Resolver{}, extra...)
	resolvers = append(resolvers, NewAppleMusicResolver(), NewPageResolver())
	return NewManager(resolvers...)
}

// Resolve attempts to resolve a music link using the first resolver that accepts it.
func (m *Manager) Resolve(ctx context.Context, url string) (*TrackInfo, error) {
	for _, resolver := range m.resolvers {
		if !resolver.CanResolve(url) {
			continue
		}
		info, err := resolver.Resolve(ctx, url)
		if err != nil {
			return nil, err
		}
		if info.SearchPhrase() == "" {
			return nil, fmt.Errorf("resolver returned no title for %s", url)
		}
		return info, nil
	}

	return nil, ErrNoResolver
}

// CanResolve checks if any resolver can handle the given URL.
func (m *Manager) CanResolve(url string) bool {
	for _, resolver := range m.resolvers {
		if resolver.CanResolve(url) {
			return true
		}
	}
	return false
}
