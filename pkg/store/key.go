package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Namespace prefixes every key written by this package.
const Namespace = "photos"

// Key identifies a persisted entry.
type Key struct {
	// Feed is the logical listing the entry belongs to (e.g. "picsum").
	Feed string

	// Page is the page number; 0 omits it.
	Page int

	// Params are extra qualifiers (e.g. {"limit": "30"}).
	Params map[string]string
}

// FeedKey returns the key of the cold-start page of feed.
func FeedKey(feed string) Key {
	return Key{Feed: feed, Page: 1}
}

// PageKey returns the key of the cold-start page of feed fetched with
// limit records per page.
func PageKey(feed string, limit int) Key {
	return Key{Feed: feed, Page: 1, Params: map[string]string{"limit": strconv.Itoa(limit)}}
}

// String generates a deterministic key string.
// Format: photos:feed=<feed>:page=<page>:param1=val1
//
// Example:
//
//	photos:feed=picsum:page=1
func (k Key) String() string {
	parts := []string{Namespace}

	if feed := strings.TrimSpace(k.Feed); feed != "" {
		parts = append(parts, "feed="+feed)
	}
	if k.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", k.Page))
	}

	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Params[key]))
		}
	}

	return strings.Join(parts, ":")
}

// kvKey namespaces a key/value entry name.
func kvKey(name string) string {
	return Namespace + ":kv=" + name
}
