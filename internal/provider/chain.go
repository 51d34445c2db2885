package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"playernix/internal/core"
)

// Chain searches with a primary backend and falls back to a secondary one
// when the primary fails or panics. A primary that finds nothing is not a
// failure.
type Chain struct {
	name      string
	primary   Searcher
	secondary Searcher
	logger    *zap.Logger
}

// NewChain creates a two-step search chain.
func NewChain(name string, primary, secondary Searcher, logger *zap.Logger) *Chain {
	return &Chain{
		name:      name,
		primary:   primary,
		secondary: secondary,
		logger:    logger.Named("chain"),
	}
}

func (c *Chain) Name() string { return c.name }

// Search tries the primary backend, then the secondary with the same text.
func (c *Chain) Search(ctx context.Context, text string, limit int) ([]core.Track, error) {
	tracks, primaryErr := safeSearch(ctx, c.primary, text, limit)
	if primaryErr == nil {
		return tracks, nil
	}
	if ctx.Err() != nil {
		return nil, core.NewProviderError(core.ProviderTimeout, c.name, text, ctx.Err())
	}

	c.logger.Debug("Primary search failed, trying secondary",
		zap.String("primary", c.primary.Name()),
		zap.String("secondary", c.secondary.Name()),
		zap.String("query", text),
		zap.Error(primaryErr))

	tracks, secondaryErr := safeSearch(ctx, c.secondary, text, limit)
	if secondaryErr == nil {
		return tracks, nil
	}

	return nil, core.NewProviderError(core.ProviderNotFound, c.name, text, errors.Join(primaryErr, secondaryErr))
}

func safeSearch(ctx context.Context, s Searcher, text string, limit int) (tracks []core.Track, err error) {
	if s == nil {
		return nil, errors.New("search backend not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			tracks = nil
			err = fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	return s.Search(ctx, text, limit)
}
