// Package store persists previously fetched photo pages so a cold start can
// be served without the network.
//
// Three LocalStore backends are provided:
//
//   - RedisStore keeps the page as one JSON entry under a deterministic Key
//   - SQLiteStore keeps one row per photo in a cached_photos table (gorm)
//   - MemoryStore keeps a copy in process memory
//
// Read faults surface as client.KindPersistenceRead and write faults as
// client.KindPersistenceWrite. An absent entry is not a fault: Load returns
// an empty slice.
//
// The same backends expose a small key/value contract (RedisKV, SQLiteKV,
// MemoryKV) used to persist the favorite set.
//
// # Basic Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	local := store.NewRedisStore(rdb, store.PageKey("picsum", 30), 0)
//
//	if err := local.Save(ctx, photos); err != nil {
//		// KindPersistenceWrite
//	}
//	cached, err := local.Load(ctx)
//
// # Metrics
//
// Hits, misses and errors are exported as photo_store_hits_total,
// photo_store_misses_total and photo_store_errors_total.
package store
