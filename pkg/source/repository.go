package source

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithPrimary sets the source of truth consulted on a cache miss and for
// pages after the first. Defaults to Remote().
func WithPrimary(src Source) RepositoryOption {
	return func(r *Repository) {
		r.primary = src
	}
}

// WithRepositoryLogger sets the logger.
func WithRepositoryLogger(logger zerolog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// Repository serves pages with a cache-aside policy on page 1: the local
// store is consulted first, and a remote page 1 is written back to it.
// Later pages always come from the primary source and are not persisted.
//
// A stored page carries no page size of its own. A stored page longer than
// limit is refetched and overwritten; a shorter one is served as is and
// ends the feed, so stores shared across page sizes should be keyed by
// limit (store.PageKey).
type Repository struct {
	router  *Router
	primary Source
	logger  zerolog.Logger
}

// NewRepository creates a repository over router.
func NewRepository(router *Router, opts ...RepositoryOption) *Repository {
	r := &Repository{
		router:  router,
		primary: Remote(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchPhotos returns one page of photos. Errors are *client.Error.
func (r *Repository) FetchPhotos(ctx context.Context, page, limit int) ([]photo.Photo, error) {
	if page != 1 {
		return r.router.Fetch(ctx, page, limit, r.primary)
	}

	cached, err := r.router.Fetch(ctx, page, limit, LocalCache())
	switch {
	case err != nil:
		r.logger.Warn().
			Err(err).
			Msg("Local cache read failed, falling back to primary source")
	case len(cached) > limit:
		r.logger.Debug().
			Int("count", len(cached)).
			Int("limit", limit).
			Msg("Cached page 1 exceeds page size, refetching")
	case len(cached) > 0:
		r.logger.Debug().
			Int("count", len(cached)).
			Msg("Serving page 1 from local cache")
		return cached, nil
	}

	records, err := r.router.Fetch(ctx, page, limit, r.primary)
	if err != nil {
		return nil, err
	}

	if err := r.router.Persist(ctx, records); err != nil {
		r.logger.Error().
			Err(err).
			Int("count", len(records)).
			Msg("Failed to persist page 1, serving it uncached")
	}

	return records, nil
}
