package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/config"
	"github.com/Sternrassler/photo-fetcher/pkg/favorites"
	"github.com/Sternrassler/photo-fetcher/pkg/fixture"
	"github.com/Sternrassler/photo-fetcher/pkg/logging"
	"github.com/Sternrassler/photo-fetcher/pkg/pagination"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
	"github.com/Sternrassler/photo-fetcher/pkg/ratelimit"
	"github.com/Sternrassler/photo-fetcher/pkg/source"
	"github.com/Sternrassler/photo-fetcher/pkg/store"
)

// app holds the wired components of one photo screen.
type app struct {
	feed     *pagination.Feed
	router   *source.Router
	fixtures *fixture.Loader
	catalog  *pagination.BatchFetcher[photo.Photo]
	limiter  *ratelimit.Limiter
	ready    func(ctx context.Context) error
	maxPages int
	logger   zerolog.Logger
	closers  []func() error
}

// Close releases store connections.
func (a *app) Close() error {
	a.feed.Close()
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// backends are the persistence collaborators selected by store.driver.
type backends struct {
	local   store.LocalStore
	kv      favorites.KV
	ready   func(ctx context.Context) error
	closers []func() error
}

func openBackends(ctx context.Context, cfg config.StoreConfig, pageSize int) (*backends, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return &backends{
			local:   store.NewRedisStore(rdb, store.PageKey(cfg.Feed, pageSize), cfg.TTL),
			kv:      store.NewRedisKV(rdb),
			ready:   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			closers: []func() error{rdb.Close},
		}, nil

	case config.DriverSQLite:
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		return &backends{
			local:   store.NewSQLiteStore(db),
			kv:      store.NewSQLiteKV(db),
			ready:   sqlDB.PingContext,
			closers: []func() error{sqlDB.Close},
		}, nil

	default:
		return &backends{
			local: store.NewMemoryStore(nil),
			kv:    store.NewMemoryKV(),
			ready: func(context.Context) error { return nil },
		}, nil
	}
}

// newApp wires transport, fetcher, router, repository, favorites and feed.
func newApp(ctx context.Context, cfg *config.Config, b *backends, logger zerolog.Logger) (*app, error) {
	transportCfg := client.DefaultTransportConfig()
	transportCfg.RequestTimeout = cfg.API.RequestTimeout
	transportCfg.UserAgent = cfg.API.UserAgent
	transportCfg.Logger = logging.Component(logger, "transport")

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerSecond = cfg.API.RateLimit
	limiterCfg.Burst = cfg.API.RateBurst
	limiterCfg.Logger = logging.Component(logger, "ratelimit")
	limiter := ratelimit.NewLimiter(client.NewHTTPTransport(transportCfg), limiterCfg)

	observer := client.MultiObserver{
		client.MetricsObserver{},
		logging.NewFetchObserver(logging.Component(logger, "fetcher")),
	}
	fetcher, err := client.NewPhotoFetcher(client.NewRequestBuilder(cfg.API.BaseURL, nil, nil), limiter, observer, cfg.API.ResourceTimeout)
	if err != nil {
		return nil, err
	}

	retryCfg := client.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.API.MaxAttempts
	retryCfg.Logger = logging.Component(logger, "retry")
	remote := client.WithRetry[photo.Photo](fetcher, retryCfg)

	fixtures := fixture.Default()
	router := source.NewRouter(remote,
		source.WithLocalStore(b.local),
		source.WithFixtures(fixtures),
		source.WithRouterLogger(logging.Component(logger, "router")),
	)
	repo := source.NewRepository(router,
		source.WithRepositoryLogger(logging.Component(logger, "repository")),
	)

	favs, err := favorites.Load(ctx, b.kv,
		favorites.WithKey(cfg.Favorites.Key),
		favorites.WithLogger(logging.Component(logger, "favorites")),
	)
	if err != nil {
		// Start with an empty set; the fault is logged and not fatal.
		logger.Warn().Err(err).Msg("Failed to load favorites")
	}

	feed := pagination.NewFeed(repo, favs,
		pagination.WithPageSize(cfg.API.PageSize),
		pagination.WithLogger(logging.Component(logger, "feed")),
	)

	batchCfg := pagination.DefaultConfig()
	batchCfg.PageSize = cfg.API.PageSize
	batchCfg.Timeout = cfg.API.ResourceTimeout
	batchCfg.Logger = logging.Component(logger, "catalog")

	return &app{
		feed:     feed,
		router:   router,
		fixtures: fixtures,
		catalog:  pagination.NewBatchFetcher[photo.Photo](remote, batchCfg),
		limiter:  limiter,
		ready:    b.ready,
		maxPages: cfg.Server.CatalogMaxPages,
		logger:   logger,
		closers:  b.closers,
	}, nil
}
