// Package metrics provides the Prometheus registry and exposition handler for
// the photo fetcher. All metrics are defined in their respective packages
// (client, ratelimit, store, source, favorites, pagination) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the photo fetcher.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the metrics registered with Registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - photo_requests_total{status} (Counter): Listing requests by HTTP status
//   - photo_request_duration_seconds (Histogram): Listing request duration
//   - photo_fetch_errors_total{kind} (Counter): Failed page fetches by error kind
//
// Retry Metrics (pkg/client):
//   - photo_retries_total{kind} (Counter): Retry attempts by error kind
//   - photo_retry_exhausted_total{kind} (Counter): Fetches that exhausted max attempts
//
// Rate Limit Metrics (pkg/ratelimit):
//   - photo_ratelimit_waits_total (Counter): Requests that waited for a token
//   - photo_ratelimit_cooldowns_total (Counter): Cooldowns entered after 429
//
// Local Store Metrics (pkg/store):
//   - photo_store_hits_total{backend} (Counter): Non-empty loads by backend
//   - photo_store_misses_total{backend} (Counter): Empty loads by backend
//   - photo_store_errors_total{operation} (Counter): Store operation errors
//   - photo_store_size_bytes{backend} (Gauge): Size of the last saved snapshot
//
// Source Metrics (pkg/source):
//   - photo_source_fetches_total{source, outcome} (Counter): Fetches by data source
//
// Feed Metrics (pkg/pagination, pkg/favorites):
//   - photo_pages_loaded_total{result} (Counter): Page loads (full, short, failed, stale)
//   - photo_feed_records (Gauge): Records accumulated in the feed
//   - photo_favorites_total (Gauge): Current number of favorites
//   - photo_favorite_toggles_total{action} (Counter): Toggles (add, remove, failed)
//
// Example Prometheus Queries:
//
//   # Local Cache Hit Rate
//   sum(rate(photo_store_hits_total[5m])) /
//   (sum(rate(photo_store_hits_total[5m])) + sum(rate(photo_store_misses_total[5m])))
//
//   # Fetch Error Rate by Kind
//   sum by (kind) (rate(photo_fetch_errors_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(photo_request_duration_seconds_bucket[5m]))
//
//   # Rate Limited Responses
//   rate(photo_requests_total{status="429"}[5m])
