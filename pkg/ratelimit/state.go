// Package ratelimit paces outgoing page requests and honours server-side
// throttling. A token bucket spaces requests; a 429 response with a
// Retry-After header puts the limiter into a cooldown until the server
// is willing to answer again.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Defaults for request pacing.
const (
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 5

	// DefaultCooldown applies when a 429 carries no usable Retry-After.
	DefaultCooldown = 5 * time.Second

	// MaxCooldown caps any server supplied Retry-After.
	MaxCooldown = 60 * time.Second
)

// State is a snapshot of the limiter's throttling state.
type State struct {
	// CooldownUntil is the instant before which no request is sent.
	CooldownUntil time.Time `json:"cooldown_until"`

	// LastStatus is the status code of the most recent response.
	LastStatus int `json:"last_status"`

	// LastUpdate is when the state last changed.
	LastUpdate time.Time `json:"last_update"`

	// Throttled counts 429 responses seen since creation.
	Throttled int `json:"throttled"`
}

// InCooldown reports whether requests are currently held back.
func (s State) InCooldown(now time.Time) bool {
	return now.Before(s.CooldownUntil)
}

// TimeUntilReset returns the remaining cooldown, or 0 once it has passed.
func (s State) TimeUntilReset(now time.Time) time.Duration {
	d := s.CooldownUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsHealthy reports whether the last response was not a throttle.
func (s State) IsHealthy() bool {
	return s.LastStatus != http.StatusTooManyRequests
}

// ParseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. ok is false when the header is absent or malformed.
func ParseRetryAfter(header http.Header, now time.Time) (wait time.Duration, ok bool) {
	value := header.Get("Retry-After")
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	if d := at.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}

// cooldownFor picks the cooldown for a throttled response.
func cooldownFor(header http.Header, now time.Time, maxCooldown time.Duration) time.Duration {
	wait, ok := ParseRetryAfter(header, now)
	if !ok {
		wait = DefaultCooldown
	}
	if maxCooldown > 0 && wait > maxCooldown {
		wait = maxCooldown
	}
	return wait
}
