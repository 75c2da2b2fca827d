// Package redisrepo stores sessions in Redis so several gateway instances can share them.
package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// minTTL keeps a just-expiring session readable long enough for the request that wrote it
const minTTL = time.Second

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	client  *redis.Client
	nowTime func() time.Time
}

type Option func(*Repo)

// WithNowTime sets the clock expiries are computed against (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(r *Repo) {
		r.nowTime = nowFunc
	}
}

func New(client *redis.Client, options ...Option) *Repo {
	r := &Repo{client: client, nowTime: time.Now}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// NewClient parses a redis:// URL and pings the server with a short timeout.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func Key(sessionID string) string {
	return keyPrefix + sessionID
}

// TTL is the Redis expiry for a session, derived from its hard lifetime.
// Zero means no expiry.
func TTL(session sessions.Session, now time.Time) time.Duration {
	if session.ExpiresAt.IsZero() {
		return 0
	}
	ttl := session.ExpiresAt.Sub(now)
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}

func (r *Repo) Upsert(ctx context.Context, session sessions.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, Key(session.ID), data, TTL(session, r.nowTime())).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	if sessionID == "" {
		return nil, errors.ErrSessionNotFound
	}
	data, err := r.client.Get(ctx, Key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *Repo) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires keys on its own.
func (r *Repo) DeleteExpired(context.Context, time.Time) error {
	return nil
}
