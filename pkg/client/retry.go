package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	photoRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photo_retries_total",
		Help: "Total number of page fetch retries by error kind",
	}, []string{"kind"})

	photoRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_retry_exhausted_total",
		Help: "Total number of page fetches that exhausted their retry attempts",
	})
)

// ErrContextCancelled is returned when the context is cancelled during backoff.
var ErrContextCancelled = errors.New("context cancelled")

// RetryConfig holds the configuration for caller-side retries.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts including the first.
	// Values <= 1 disable retries.
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	Logger zerolog.Logger
}

// DefaultRetryConfig returns a configuration with retries disabled.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       1,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Logger:            zerolog.Nop(),
	}
}

type retryFetcher[T any] struct {
	next   PageFetcher[T]
	config RetryConfig
}

// WithRetry wraps next so retryable failures are re-attempted with
// exponential backoff and jitter. With MaxAttempts <= 1 next is returned as is.
func WithRetry[T any](next PageFetcher[T], cfg RetryConfig) PageFetcher[T] {
	if cfg.MaxAttempts <= 1 {
		return next
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	return &retryFetcher[T]{next: next, config: cfg}
}

func (r *retryFetcher[T]) FetchPage(ctx context.Context, page, limit int) ([]T, error) {
	cfg := r.config
	backoff := cfg.InitialBackoff

	var lastErr *Error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		records, err := r.next.FetchPage(ctx, page, limit)
		if err == nil {
			if attempt > 1 {
				cfg.Logger.Info().
					Int("page", page).
					Int("attempt", attempt).
					Msg("Page fetch succeeded after retry")
			}
			return records, nil
		}

		lastErr = Normalize(err)
		if !lastErr.Retryable() {
			return nil, lastErr
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		photoRetriesTotal.WithLabelValues(string(lastErr.Kind)).Inc()

		// ±20% jitter
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		cfg.Logger.Debug().
			Str("kind", string(lastErr.Kind)).
			Int("page", page).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying page fetch after backoff")

		select {
		case <-ctx.Done():
			return nil, &Error{
				Kind:   KindTransport,
				Class:  ErrorClassNetwork,
				Detail: "retry aborted",
				Err:    fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err()),
			}
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	photoRetryExhaustedTotal.Inc()
	cfg.Logger.Warn().
		Str("kind", string(lastErr.Kind)).
		Int("page", page).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, lastErr
}
