package client

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for fetch operations.
var (
	photoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_requests_total",
		Help: "Total listing requests by HTTP status",
	}, []string{"status"})

	photoRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "photo_request_duration_seconds",
		Help:    "Listing request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	photoFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_fetch_errors_total",
		Help: "Total failed page fetches by error kind",
	}, []string{"kind"})
)

// Observer receives lifecycle notifications from a Fetcher. Implementations
// must not block; they run on the fetching goroutine.
type Observer interface {
	RequestBuilt(ctx context.Context, req *Request)
	ResponseReceived(ctx context.Context, req *Request, statusCode int, elapsed time.Duration)
	DecodeSucceeded(ctx context.Context, req *Request, count int)
	FetchFailed(ctx context.Context, req *Request, err *Error)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) RequestBuilt(context.Context, *Request) {}
func (NopObserver) ResponseReceived(context.Context, *Request, int, time.Duration) {}
func (NopObserver) DecodeSucceeded(context.Context, *Request, int) {}
func (NopObserver) FetchFailed(context.Context, *Request, *Error) {}

// MultiObserver fans notifications out in order.
type MultiObserver []Observer

func (m MultiObserver) RequestBuilt(ctx context.Context, req *Request) {
	for _, o := range m {
		o.RequestBuilt(ctx, req)
	}
}

func (m MultiObserver) ResponseReceived(ctx context.Context, req *Request, statusCode int, elapsed time.Duration) {
	for _, o := range m {
		o.ResponseReceived(ctx, req, statusCode, elapsed)
	}
}

func (m MultiObserver) DecodeSucceeded(ctx context.Context, req *Request, count int) {
	for _, o := range m {
		o.DecodeSucceeded(ctx, req, count)
	}
}

func (m MultiObserver) FetchFailed(ctx context.Context, req *Request, err *Error) {
	for _, o := range m {
		o.FetchFailed(ctx, req, err)
	}
}

// MetricsObserver records Prometheus metrics for each fetch.
type MetricsObserver struct{}

func (MetricsObserver) RequestBuilt(context.Context, *Request) {}

func (MetricsObserver) ResponseReceived(_ context.Context, _ *Request, statusCode int, elapsed time.Duration) {
	photoRequestsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	photoRequestDuration.Observe(elapsed.Seconds())
}

func (MetricsObserver) DecodeSucceeded(context.Context, *Request, int) {}

func (MetricsObserver) FetchFailed(_ context.Context, _ *Request, err *Error) {
	if err.Kind == KindTransport {
		photoRequestsTotal.WithLabelValues("network_error").Inc()
	}
	photoFetchErrorsTotal.WithLabelValues(string(err.Kind)).Inc()
}
