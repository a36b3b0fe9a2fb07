package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreHits tracks loads that returned records, by backend
	StoreHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_store_hits_total",
			Help: "Total number of local store loads that returned records",
		},
		[]string{"backend"}, // "redis", "sqlite", "memory"
	)

	// StoreMisses tracks loads that found nothing
	StoreMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_store_misses_total",
			Help: "Total number of local store loads that found no records",
		},
		[]string{"backend"},
	)

	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_store_errors_total",
			Help: "Total number of local store operation errors",
		},
		[]string{"operation"}, // "load", "save", "get", "set", "delete"
	)

	// StoreSize tracks the size of the last saved entry in bytes
	StoreSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_store_size_bytes",
			Help: "Size of the last saved local store entry in bytes",
		},
		[]string{"backend"},
	)
)

func recordLoad(backend string, count int) {
	if count > 0 {
		StoreHits.WithLabelValues(backend).Inc()
		return
	}
	StoreMisses.WithLabelValues(backend).Inc()
}
