package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
)

// Prometheus metrics for request pacing.
var (
	photoRateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_ratelimit_waits_total",
		Help: "Total number of requests delayed by the token bucket",
	})

	photoRateLimitCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photo_ratelimit_cooldowns_total",
		Help: "Total number of cooldowns entered after a 429 response",
	})
)

// Config holds the limiter configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate. Values <= 0 disable pacing.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// MaxCooldown caps Retry-After driven cooldowns.
	MaxCooldown time.Duration

	Logger zerolog.Logger
}

// DefaultConfig returns the default pacing configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		MaxCooldown:       MaxCooldown,
		Logger:            zerolog.Nop(),
	}
}

// Limiter is a client.Transport decorator that paces requests.
type Limiter struct {
	next   client.Transport
	bucket *rate.Limiter
	config Config
	now    func() time.Time
	mu     sync.RWMutex
	state  State
}

// NewLimiter wraps next with pacing according to cfg.
func NewLimiter(next client.Transport, cfg Config) *Limiter {
	l := &Limiter{
		next:   next,
		config: cfg,
		now:    time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		l.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return l
}

// State returns the current throttling state.
func (l *Limiter) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Execute waits for a cooldown and a token, then forwards to the wrapped
// transport. A wait interrupted by ctx is reported as KindTransport.
func (l *Limiter) Execute(ctx context.Context, req *client.Request) (*client.Response, error) {
	if err := l.waitCooldown(ctx); err != nil {
		return nil, err
	}
	if err := l.waitToken(ctx); err != nil {
		return nil, err
	}

	resp, err := l.next.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	l.record(resp)
	return resp, nil
}

func (l *Limiter) waitCooldown(ctx context.Context) error {
	wait := l.State().TimeUntilReset(l.now())
	if wait <= 0 {
		return nil
	}

	l.config.Logger.Debug().
		Dur("wait", wait).
		Msg("Waiting for rate limit cooldown")

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return waitAborted(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) waitToken(ctx context.Context) error {
	if l.bucket == nil {
		return nil
	}
	if l.bucket.Allow() {
		return nil
	}

	photoRateLimitWaitsTotal.Inc()
	if err := l.bucket.Wait(ctx); err != nil {
		return waitAborted(err)
	}
	return nil
}

func (l *Limiter) record(resp *client.Response) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.LastStatus = resp.StatusCode
	l.state.LastUpdate = now

	if resp.StatusCode != http.StatusTooManyRequests {
		return
	}

	wait := cooldownFor(resp.Header, now, l.config.MaxCooldown)
	l.state.CooldownUntil = now.Add(wait)
	l.state.Throttled++
	photoRateLimitCooldownsTotal.Inc()

	l.config.Logger.Warn().
		Dur("cooldown", wait).
		Time("until", l.state.CooldownUntil).
		Msg("Server throttled requests, entering cooldown")
}

func waitAborted(err error) *client.Error {
	return &client.Error{
		Kind:   client.KindTransport,
		Class:  client.ErrorClassNetwork,
		Detail: "rate limit wait aborted",
		Err:    err,
	}
}
