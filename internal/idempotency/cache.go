// Package idempotency keeps short-lived idempotency tokens for provisioning
// requests so that a retried logical request reuses the token of the
// attempt it retries.
package idempotency

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joltsms/joltsms-mcp/internal/clock"
)

// DefaultTTL is how long an unreleased token stays reusable.
const DefaultTTL = 5 * time.Minute

// Fingerprint identifies a logical provisioning request by its area code.
// Requests without an area code share the "any" fingerprint.
func Fingerprint(areaCode string) string {
	if areaCode == "" {
		return "provision:any"
	}
	return "provision:" + areaCode
}

type entry struct {
	token    string
	deadline time.Time
	timer    clock.Timer
}

// Cache maps request fingerprints to tokens. Entries expire after the TTL
// or when released after a successful request. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	clock   clock.Clock
	newID   func() string
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the time source used for expiry.
func WithClock(c clock.Clock) Option {
	return func(cache *Cache) {
		cache.clock = c
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(cache *Cache) {
		if ttl > 0 {
			cache.ttl = ttl
		}
	}
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		ttl:     DefaultTTL,
		clock:   clock.NewSystem(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the live token for fingerprint, minting a new one if
// none exists. reused reports whether an existing token was returned.
func (c *Cache) GetOrCreate(fingerprint string) (token string, reused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[fingerprint]; ok {
		if now.Before(e.deadline) {
			return e.token, true
		}
		e.timer.Stop()
		delete(c.entries, fingerprint)
	}

	e := &entry{
		token:    c.newID(),
		deadline: now.Add(c.ttl),
	}
	e.timer = c.clock.AfterFunc(c.ttl, func() { c.expire(fingerprint, e.token) })
	c.entries[fingerprint] = e
	return e.token, false
}

// Release drops the token for fingerprint so the next request mints a fresh one.
func (c *Cache) Release(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[fingerprint]; ok {
		e.timer.Stop()
		delete(c.entries, fingerprint)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// expire removes the entry only if it still holds token, so a late timer
// never evicts a newer entry for the same fingerprint.
func (c *Cache) expire(fingerprint, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[fingerprint]; ok && e.token == token {
		delete(c.entries, fingerprint)
	}
}
