package redreport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jrsteele09/did-storefront/internal/metrics"
)

// Memoizer caches successful fetch results in process memory for a caller supplied TTL.
// Stale entries are dropped on the next lookup of the same key; errors are never cached.
// Concurrent misses for one key each fetch and the last to finish wins.
type Memoizer struct {
	mu      sync.Mutex
	entries map[string]memoEntry
	now     func() time.Time
}

type memoEntry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

type MemoOption func(*Memoizer)

// WithMemoClock sets the clock used for expiry (primarily for testing)
func WithMemoClock(now func() time.Time) MemoOption {
	return func(m *Memoizer) {
		m.now = now
	}
}

func NewMemoizer(options ...MemoOption) *Memoizer {
	m := &Memoizer{
		entries: make(map[string]memoEntry),
		now:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// MemoKey identifies a request by method, URL and body.
func MemoKey(method, url string, body []byte) string {
	return method + " " + url + "\n" + string(body)
}

// Fetch returns the cached payload for method+url+body or calls fetch and stores its result for ttl.
func (m *Memoizer) Fetch(ctx context.Context, method, url string, body []byte, ttl time.Duration,
	fetch func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	key := MemoKey(method, url, body)

	if payload, ok := m.lookup(key); ok {
		metrics.ObserveMemo(true)
		return payload, nil
	}
	metrics.ObserveMemo(false)

	payload, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[key] = memoEntry{payload: payload, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return payload, nil
}

func (m *Memoizer) lookup(key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.payload, true
}

// Len is the number of entries currently held, including stale ones not yet looked up
func (m *Memoizer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
