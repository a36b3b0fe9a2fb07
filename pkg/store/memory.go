package store

import (
	"context"
	"sync"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

const backendMemory = "memory"

// MemoryStore is a LocalStore held in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	photos []photo.Photo
}

// NewMemoryStore creates a store seeded with photos (may be nil).
func NewMemoryStore(photos []photo.Photo) *MemoryStore {
	return &MemoryStore{photos: clonePhotos(photos)}
}

// Load returns a copy of the stored photos.
func (s *MemoryStore) Load(ctx context.Context) ([]photo.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError("load", "memory load", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recordLoad(backendMemory, len(s.photos))
	return clonePhotos(s.photos), nil
}

// Save replaces the stored photos with a copy.
func (s *MemoryStore) Save(ctx context.Context, photos []photo.Photo) error {
	if err := ctx.Err(); err != nil {
		return writeError("save", "memory save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.photos = clonePhotos(photos)
	return nil
}

// MemoryKV is a KV held in process memory.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV creates an empty KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored under name.
func (kv *MemoryKV) Get(ctx context.Context, name string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	value, ok := kv.values[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value under name.
func (kv *MemoryKV) Set(ctx context.Context, name string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.values[name] = append([]byte(nil), value...)
	return nil
}
