package store

import (
	"time"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// Entry is the JSON envelope a page is stored in.
type Entry struct {
	// Photos are the records of the page in fetch order.
	Photos []photo.Photo `json:"photos"`

	// SavedAt is when the entry was written.
	SavedAt time.Time `json:"saved_at"`

	// Expires is when the entry becomes stale; zero means never.
	Expires time.Time `json:"expires,omitempty"`
}

// NewEntry wraps photos in an entry. A ttl <= 0 never expires.
func NewEntry(photos []photo.Photo, now time.Time, ttl time.Duration) *Entry {
	entry := &Entry{Photos: clonePhotos(photos), SavedAt: now}
	if ttl > 0 {
		entry.Expires = now.Add(ttl)
	}
	return entry
}

// IsExpired returns true if the entry has an expiry in the past.
func (e *Entry) IsExpired(now time.Time) bool {
	return !e.Expires.IsZero() && now.After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 for entries that never expire or have already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	if e.Expires.IsZero() {
		return 0
	}
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
