package identity

import (
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Store is durable client-local key/value storage (browser storage, a cookie jar, a test map).
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store backed by a map. Used by tests and tooling.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

var _ Store = (*CookieStore)(nil)

// CookieStore persists values as long lived cookies on the browser making the request.
// Keys such as "state:persistentId" become cookie "state.persistentId" (':' is not a valid
// cookie name character) and values are base64url encoded so JSON quotes survive.
type CookieStore struct {
	r      *http.Request
	w      http.ResponseWriter
	maxAge time.Duration
	secure bool

	// values written during this request, so a Get after Set sees the new value
	written map[string]string
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, maxAge time.Duration) *CookieStore {
	return &CookieStore{
		r:       r,
		w:       w,
		maxAge:  maxAge,
		secure:  r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		written: make(map[string]string),
	}
}

// CookieName maps a storage key to a cookie name
func CookieName(key string) string {
	return strings.ReplaceAll(key, ":", ".")
}

func (c *CookieStore) Get(key string) (string, bool, error) {
	if v, ok := c.written[key]; ok {
		return v, true, nil
	}
	cookie, err := c.r.Cookie(CookieName(key))
	if err != nil {
		return "", false, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		// Unreadable values are treated as absent so the assigner replaces them
		return "", false, nil
	}
	return string(decoded), true, nil
}

func (c *CookieStore) Set(key, value string) error {
	c.written[key] = value
	http.SetCookie(c.w, &http.Cookie{
		Name:     CookieName(key),
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		HttpOnly: false, // the browser UI reads the id to correlate its cart
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.maxAge.Seconds()),
	})
	return nil
}
