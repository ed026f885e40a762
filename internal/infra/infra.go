// Package infra provides shared infrastructure components used across
// the application: HTTP utilities, caching, and request pacing.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// --- Shared HTTP client helpers ---

// HTTPClient is a pre-configured HTTP client with a reasonable timeout.
// This implicit timeout is the only cancellation mechanism the batch job
// relies on for individual requests.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}

// ErrHTTP wraps an HTTP error response with its status code. For 429
// responses the server-advised Retry-After delay is carried along when
// the header is present.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
	RetryAfter time.Duration // 0 when the server sent no Retry-After
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// DoGet performs a GET request with the given URL and headers, returning
// the response body. The caller is responsible for closing the returned
// ReadCloser. Status codes >= 400 are returned as *ErrHTTP.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// parseRetryAfter interprets a Retry-After header value. Both the
// delta-seconds and HTTP-date forms are accepted; anything else maps to 0.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// --- Simple in-memory cache ---

// cacheEntry holds a cached value with expiration.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a simple thread-safe in-memory cache with TTL. It keeps
// duplicate tickers in the sheet (and repeated market-feed scans) from
// re-fetching within a single run.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a new cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a value from the cache. Returns nil, false if not found
// or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// --- Request pacing ---

// PaceLimiter enforces a minimum spacing between successive permitted
// calls, derived from a requests-per-minute budget. The job processes
// tickers sequentially, but the last-call timestamp is still guarded by
// a mutex so the limiter stays correct if callers are ever spread across
// goroutines.
type PaceLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time // injectable clock for tests
	sleep func(context.Context, time.Duration) error
}

// NewPaceLimiter creates a limiter for the given requests-per-minute
// budget. A budget <= 0 disables pacing entirely.
func NewPaceLimiter(perMinute int) *PaceLimiter {
	l := &PaceLimiter{now: time.Now, sleep: SleepContext}
	if perMinute > 0 {
		l.interval = time.Minute / time.Duration(perMinute)
	}
	return l
}

// Interval returns the enforced minimum spacing between calls.
func (l *PaceLimiter) Interval() time.Duration { return l.interval }

// Wait blocks until the minimum spacing since the previous permitted
// call has elapsed, then records the new call. It returns early with the
// context's error if ctx is cancelled while waiting.
func (l *PaceLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.interval > 0 && !l.last.IsZero() {
		if wait := l.interval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	l.last = l.now()
	return nil
}

// SleepContext sleeps for d or until ctx is cancelled, whichever comes
// first.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
