// Package favorites keeps the set of photo ids a user has marked, persisted
// as one named value through a key/value store.
package favorites

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// DefaultKey is the name the set is persisted under.
const DefaultKey = "favoritePhotos"

var (
	photoFavoritesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "photo_favorites_total",
		Help: "Number of photos currently marked as favorite",
	})

	photoFavoriteTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_favorite_toggles_total",
		Help: "Total number of favorite toggles by action",
	}, []string{"action"}) // "add", "remove", "failed"
)

// KV is the persistence contract the set needs. store.RedisKV, store.SQLiteKV
// and store.MemoryKV satisfy it.
type KV interface {
	Get(ctx context.Context, name string) (value []byte, found bool, err error)
	Set(ctx context.Context, name string, value []byte) error
}

// Option configures a Set.
type Option func(*Set)

// WithKey overrides the persisted value name.
func WithKey(name string) Option {
	return func(s *Set) {
		s.key = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Set) {
		s.logger = logger
	}
}

// Set is a persisted set of favorite photo ids. It is safe for concurrent use.
type Set struct {
	kv     KV
	key    string
	logger zerolog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Load hydrates a Set from kv. An absent value yields an empty set.
// On a read or decode fault the returned Set is still usable (empty) and
// the error is a KindPersistenceRead *client.Error.
func Load(ctx context.Context, kv KV, opts ...Option) (*Set, error) {
	s := &Set{
		kv:     kv,
		key:    DefaultKey,
		logger: zerolog.Nop(),
		ids:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, found, err := kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to load favorites")
		return s, persistenceError(client.KindPersistenceRead, "load favorites", err)
	}
	if !found {
		s.logger.Debug().Str("key", s.key).Msg("No favorites stored yet")
		photoFavoritesTotal.Set(0)
		return s, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("Stored favorites are not a JSON string array")
		return s, persistenceError(client.KindPersistenceRead, "decode favorites", err)
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}

	photoFavoritesTotal.Set(float64(len(s.ids)))
	s.logger.Info().Int("count", len(s.ids)).Msg("Favorites loaded")
	return s, nil
}

// IsFavorite reports whether id is in the set.
func (s *Set) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id and persists the whole set before
// returning. It reports the new membership. If persisting fails the flip
// is reverted and a KindPersistenceWrite error is returned.
func (s *Set) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, was := s.ids[id]
	if was {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}

	if err := s.persistLocked(ctx); err != nil {
		if was {
			s.ids[id] = struct{}{}
		} else {
			delete(s.ids, id)
		}
		photoFavoriteTogglesTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("photo_id", id).Msg("Failed to persist favorites, toggle reverted")
		return was, err
	}

	action := "add"
	if was {
		action = "remove"
	}
	photoFavoriteTogglesTotal.WithLabelValues(action).Inc()
	photoFavoritesTotal.Set(float64(len(s.ids)))

	s.logger.Debug().
		Str("photo_id", id).
		Str("action", action).
		Int("count", len(s.ids)).
		Msg("Favorite toggled")

	return !was, nil
}

// Filter returns the records whose id is in the set, preserving order.
func (s *Set) Filter(records []photo.Photo) []photo.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]photo.Photo, 0, len(records))
	for _, r := range records {
		if _, ok := s.ids[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// IDs returns the favorite ids sorted.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Len returns the number of favorites.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Set) sortedLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Set) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.sortedLocked())
	if err != nil {
		return persistenceError(client.KindPersistenceWrite, "encode favorites", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return persistenceError(client.KindPersistenceWrite, "save favorites", err)
	}
	return nil
}

// persistenceError keeps an existing taxonomy error of the same kind and
// wraps anything else.
func persistenceError(kind client.ErrorKind, detail string, err error) *client.Error {
	if client.IsKind(err, kind) {
		return client.Normalize(err)
	}
	return &client.Error{Kind: kind, Detail: detail, Err: err}
}
