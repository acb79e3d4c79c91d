// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package ratelimit gates outgoing forge API calls with
// golang.org/x/time/rate, with the limiter's rate and burst kept in
// sync with whatever the forge's own response headers report.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a rate.Limiter whose rate is continuously retuned from
// the forge's rate-limit response headers, so a caller gets the
// standard token-bucket Wait semantics without having to hand-track
// remaining/reset itself.
type Limiter struct {
	mu        sync.Mutex
	rl        *rate.Limiter
	limit     int
	remaining int
	resetTime time.Time
}

// NewLimiter creates a Limiter seeded with limit requests per hour,
// the shape every forge publishes its quota in.
func NewLimiter(limit int) *Limiter {
	if limit <= 0 {
		limit = 5000 // GitHub's unauthenticated-adjacent default
	}
	l := &Limiter{
		limit:     limit,
		remaining: limit,
		resetTime: time.Now().Add(time.Hour),
	}
	l.rl = rate.NewLimiter(perHour(limit), burstFor(limit))
	return l
}

func perHour(limit int) rate.Limit {
	return rate.Limit(float64(limit) / time.Hour.Seconds())
}

func burstFor(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// Wait blocks until the limiter admits one more request, honoring ctx
// cancellation and any server-imposed Retry-After.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// UpdateFromHeaders retunes the limiter from resp's rate-limit headers.
// Supports GitHub (X-RateLimit-*), GitLab (RateLimit-*), and a shared
// Retry-After.
func (l *Limiter) UpdateFromHeaders(resp *http.Response) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v := firstHeader(resp, "X-RateLimit-Remaining", "RateLimit-Remaining"); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			l.remaining = r
		}
	}
	if v := firstHeader(resp, "X-RateLimit-Limit", "RateLimit-Limit"); v != "" {
		if lim, err := strconv.Atoi(v); err == nil && lim > 0 {
			l.limit = lim
			l.rl.SetLimit(perHour(lim))
			l.rl.SetBurst(burstFor(lim))
		}
	}
	if v := firstHeader(resp, "X-RateLimit-Reset", "RateLimit-Reset"); v != "" {
		if r, err := strconv.ParseInt(v, 10, 64); err == nil {
			l.resetTime = time.Unix(r, 0)
		}
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			l.rl.SetLimit(0)
			time.AfterFunc(time.Duration(seconds)*time.Second, func() {
				l.mu.Lock()
				defer l.mu.Unlock()
				l.rl.SetLimit(perHour(l.limit))
			})
		}
	}
}

func firstHeader(resp *http.Response, names ...string) string {
	for _, n := range names {
		if v := resp.Header.Get(n); v != "" {
			return v
		}
	}
	return ""
}

// Status reports the most recently observed limit/remaining/reset,
// for callers that want to surface it (e.g. forge.RateLimit).
func (l *Limiter) Status() (remaining, limit int, resetTime time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining, l.limit, l.resetTime
}

// CalculateBackoff returns an exponential backoff with jitter for
// attempt, capped at one minute.
func CalculateBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 60*time.Second {
		backoff = 60 * time.Second
	}
	jitter := time.Duration(rand.Float64() * float64(backoff) * 0.1)
	return backoff + jitter
}

// ShouldRetry reports whether resp indicates the request is worth
// retrying: rate limiting, server errors, or GitHub's secondary abuse
// limit (403 with quota remaining).
func ShouldRetry(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode >= 500 && resp.StatusCode < 600 {
		return true
	}
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") != "0" {
		return true
	}
	return false
}

// RetryableError wraps an error alongside retry bookkeeping.
type RetryableError struct {
	Err           error
	RetryAfter    time.Duration
	AttemptsLeft  int
	NextRetryTime time.Time
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v (retry after %v, %d attempts left)", e.Err, e.RetryAfter, e.AttemptsLeft)
	}
	return fmt.Sprintf("%v (%d attempts left)", e.Err, e.AttemptsLeft)
}

// IsRetryable reports whether another attempt remains.
func (e *RetryableError) IsRetryable() bool { return e.AttemptsLeft > 0 }

// Unwrap returns the underlying error.
func (e *RetryableError) Unwrap() error { return e.Err }
