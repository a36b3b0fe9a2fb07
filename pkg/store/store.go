package store

import (
	"context"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// LocalStore persists and retrieves the records of previously fetched pages.
type LocalStore interface {
	// Save replaces the stored records.
	Save(ctx context.Context, photos []photo.Photo) error

	// Load returns the stored records, or an empty slice if none were saved.
	Load(ctx context.Context) ([]photo.Photo, error)
}

// KV is a named-value contract for small persisted values.
type KV interface {
	// Get returns the value stored under name; found is false if absent.
	Get(ctx context.Context, name string) (value []byte, found bool, err error)

	// Set overwrites the value stored under name.
	Set(ctx context.Context, name string, value []byte) error
}

var (
	_ LocalStore = (*RedisStore)(nil)
	_ LocalStore = (*SQLiteStore)(nil)
	_ LocalStore = (*MemoryStore)(nil)

	_ KV = (*RedisKV)(nil)
	_ KV = (*SQLiteKV)(nil)
	_ KV = (*MemoryKV)(nil)
)

func readError(operation, detail string, err error) *client.Error {
	StoreErrors.WithLabelValues(operation).Inc()
	return &client.Error{Kind: client.KindPersistenceRead, Detail: detail, Err: err}
}

func writeError(operation, detail string, err error) *client.Error {
	StoreErrors.WithLabelValues(operation).Inc()
	return &client.Error{Kind: client.KindPersistenceWrite, Detail: detail, Err: err}
}

func clonePhotos(photos []photo.Photo) []photo.Photo {
	out := make([]photo.Photo, len(photos))
	copy(out, photos)
	return out
}
