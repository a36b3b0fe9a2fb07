// Package source dispatches page requests to the remote API, the local
// store, or a bundled fixture, and applies the cache-aside policy for the
// cold-start page.
package source

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
	"github.com/Sternrassler/photo-fetcher/pkg/store"
)

var photoSourceFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "photo_source_fetches_total",
	Help: "Total number of routed fetches by source and outcome",
}, []string{"source", "outcome"})

// Kind selects where a fetch is served from.
type Kind int

const (
	KindRemote Kind = iota
	KindBundled
	KindLocalCache
)

// String returns the metric label of k.
func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindBundled:
		return "bundled"
	case KindLocalCache:
		return "local_cache"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source is a logical source selector.
type Source struct {
	Kind Kind

	// Name is the fixture name for KindBundled.
	Name string
}

// Remote selects the paginated HTTP API.
func Remote() Source { return Source{Kind: KindRemote} }

// Bundled selects the fixture called name.
func Bundled(name string) Source { return Source{Kind: KindBundled, Name: name} }

// LocalCache selects the local store.
func LocalCache() Source { return Source{Kind: KindLocalCache} }

func (s Source) String() string {
	if s.Kind == KindBundled {
		return fmt.Sprintf("bundled(%s)", s.Name)
	}
	return s.Kind.String()
}

// FixtureLoader reads a named fixture. fixture.Loader satisfies it.
type FixtureLoader interface {
	Load(name string) ([]photo.Photo, error)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLocalStore sets the store used for LocalCache and Persist.
func WithLocalStore(local store.LocalStore) RouterOption {
	return func(r *Router) {
		r.local = local
	}
}

// WithFixtures sets the loader used for Bundled.
func WithFixtures(fixtures FixtureLoader) RouterOption {
	return func(r *Router) {
		r.fixtures = fixtures
	}
}

// WithRouterLogger sets the logger.
func WithRouterLogger(logger zerolog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// Router dispatches a fetch to the collaborator selected by a Source.
// Every error it returns is a *client.Error.
type Router struct {
	remote   client.PageFetcher[photo.Photo]
	local    store.LocalStore
	fixtures FixtureLoader
	logger   zerolog.Logger
}

// NewRouter creates a router over remote (may be nil for offline use).
func NewRouter(remote client.PageFetcher[photo.Photo], opts ...RouterOption) *Router {
	r := &Router{
		remote: remote,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch returns one page from src.
//
// Remote delegates to the page fetcher. Bundled loads the fixture and
// returns the slice of it that page/limit address. LocalCache returns the
// stored records, or an empty slice when nothing is stored.
func (r *Router) Fetch(ctx context.Context, page, limit int, src Source) ([]photo.Photo, error) {
	records, err := r.fetch(ctx, page, limit, src)
	if err != nil {
		photoSourceFetchesTotal.WithLabelValues(src.Kind.String(), "error").Inc()
		return nil, client.Normalize(err)
	}

	outcome := "ok"
	if len(records) == 0 {
		outcome = "empty"
	}
	photoSourceFetchesTotal.WithLabelValues(src.Kind.String(), outcome).Inc()
	return records, nil
}

func (r *Router) fetch(ctx context.Context, page, limit int, src Source) ([]photo.Photo, error) {
	switch src.Kind {
	case KindRemote:
		if r.remote == nil {
			return nil, &client.Error{Kind: client.KindUnknown, Detail: "no remote source configured"}
		}
		return r.remote.FetchPage(ctx, page, limit)

	case KindBundled:
		if r.fixtures == nil {
			return nil, client.FixtureNotFound(src.Name, nil)
		}
		records, err := r.fixtures.Load(src.Name)
		if err != nil {
			return nil, err
		}
		return pageOf(records, page, limit), nil

	case KindLocalCache:
		if r.local == nil {
			return []photo.Photo{}, nil
		}
		records, err := r.local.Load(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []photo.Photo{}
		}
		return records, nil

	default:
		return nil, &client.Error{Kind: client.KindUnknown, Detail: "unknown source " + src.String()}
	}
}

// Persist writes records to the local store. Without a store it is a no-op.
func (r *Router) Persist(ctx context.Context, records []photo.Photo) error {
	if r.local == nil {
		return nil
	}
	if err := r.local.Save(ctx, records); err != nil {
		return client.Normalize(err)
	}
	return nil
}

// pageOf returns the page-th window of limit records, or an empty slice
// past the end.
func pageOf(records []photo.Photo, page, limit int) []photo.Photo {
	if page < 1 || limit < 1 {
		return []photo.Photo{}
	}
	start := (page - 1) * limit
	if start >= len(records) {
		return []photo.Photo{}
	}
	end := min(start+limit, len(records))

	out := make([]photo.Photo, end-start)
	copy(out, records[start:end])
	return out
}
