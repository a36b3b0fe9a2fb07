package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

const backendRedis = "redis"

// RedisStore is a LocalStore holding one page as a JSON entry in Redis.
type RedisStore struct {
	redis *redis.Client
	key   Key
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisStore creates a store writing under key. A ttl <= 0 keeps the
// entry until it is overwritten.
func NewRedisStore(redisClient *redis.Client, key Key, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Key returns the key the store writes under.
func (s *RedisStore) Key() Key {
	return s.key
}

// Load returns the stored page. A missing or expired entry yields an
// empty slice.
func (s *RedisStore) Load(ctx context.Context) ([]photo.Photo, error) {
	data, err := s.redis.Get(ctx, s.key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			recordLoad(backendRedis, 0)
			return []photo.Photo{}, nil
		}
		return nil, readError("load", "redis get", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, readError("load", "invalid entry", err)
	}

	if entry.IsExpired(s.now()) {
		// Clear counts a failed delete in StoreErrors; the entry reads as a
		// miss either way and the next Save overwrites it.
		_ = s.Clear(ctx)
		recordLoad(backendRedis, 0)
		return []photo.Photo{}, nil
	}

	if entry.Photos == nil {
		entry.Photos = []photo.Photo{}
	}
	recordLoad(backendRedis, len(entry.Photos))
	return entry.Photos, nil
}

// Save overwrites the stored page.
func (s *RedisStore) Save(ctx context.Context, photos []photo.Photo) error {
	data, err := json.Marshal(NewEntry(photos, s.now(), s.ttl))
	if err != nil {
		return writeError("save", "marshal entry", err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key.String(), data, ttl).Err(); err != nil {
		return writeError("save", "redis set", err)
	}

	StoreSize.WithLabelValues(backendRedis).Set(float64(len(data)))
	return nil
}

// Clear removes the stored page.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key.String()).Err(); err != nil {
		return writeError("delete", "redis del", err)
	}
	return nil
}

// RedisKV is a KV backed by plain Redis strings.
type RedisKV struct {
	redis *redis.Client
}

// NewRedisKV creates a KV on redisClient.
func NewRedisKV(redisClient *redis.Client) *RedisKV {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisKV{redis: redisClient}
}

// Get returns the value stored under name.
func (kv *RedisKV) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := kv.redis.Get(ctx, kvKey(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, readError("get", "redis get", err)
	}
	return data, true, nil
}

// Set overwrites the value stored under name.
func (kv *RedisKV) Set(ctx context.Context, name string, value []byte) error {
	if err := kv.redis.Set(ctx, kvKey(name), value, 0).Err(); err != nil {
		return writeError("set", "redis set", err)
	}
	return nil
}
