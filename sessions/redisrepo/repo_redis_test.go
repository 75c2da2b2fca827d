package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/jrsteele09/did-storefront/sessions/redisrepo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	require.Equal(t, "session:abc", redisrepo.Key("abc"))
}

func TestTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no expiry", func(t *testing.T) {
		require.Equal(t, time.Duration(0), redisrepo.TTL(sessions.Session{}, now))
	})

	t.Run("future expiry", func(t *testing.T) {
		s := sessions.Session{ExpiresAt: now.Add(time.Hour)}
		require.Equal(t, time.Hour, redisrepo.TTL(s, now))
	})

	t.Run("past expiry clamps to minimum", func(t *testing.T) {
		s := sessions.Session{ExpiresAt: now.Add(-time.Hour)}
		require.Equal(t, time.Second, redisrepo.TTL(s, now))
	})
}

func newRepo(t *testing.T, now time.Time) (*redisrepo.Repo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisrepo.New(client, redisrepo.WithNowTime(func() time.Time { return now })), mr
}

func TestRepo_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo, mr := newRepo(t, now)
	ctx := context.Background()

	session := sessions.Session{
		ID:     "sess-1",
		Status: sessions.StatusAuthenticated,
		User:   sessions.User{ID: "user-1", Email: "ada@example.com", Name: "Ada"},
		Tokens: sessions.Tokens{
			AccessToken:  "access-1",
			IDToken:      "id-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    now.Add(5 * time.Minute),
		},
		Provider:     sessions.ProviderOAuth,
		ProviderName: "keycloak",
		CreatedAt:    now,
		ExpiresAt:    now.Add(2 * time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, session))
	require.Equal(t, 2*time.Hour, mr.TTL(redisrepo.Key("sess-1")))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(session.CreatedAt))
	require.True(t, got.ExpiresAt.Equal(session.ExpiresAt))
	require.True(t, got.Tokens.ExpiresAt.Equal(session.Tokens.ExpiresAt))
	got.CreatedAt, got.ExpiresAt, got.Tokens.ExpiresAt = session.CreatedAt, session.ExpiresAt, session.Tokens.ExpiresAt
	require.Equal(t, session, *got)
	require.True(t, got.Authenticated())

	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestRepo_Get(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo, mr := newRepo(t, now)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := repo.Get(ctx, "nope")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := repo.Get(ctx, "")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("expired by redis", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, sessions.Session{ID: "short", ExpiresAt: now.Add(time.Minute)}))
		mr.FastForward(2 * time.Minute)
		_, err := repo.Get(ctx, "short")
		require.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("corrupt value", func(t *testing.T) {
		require.NoError(t, mr.Set(redisrepo.Key("bad"), "{"))
		_, err := repo.Get(ctx, "bad")
		require.Error(t, err)
		require.NotErrorIs(t, err, errors.ErrSessionNotFound)
	})
}

func TestRepo_UpsertRequiresID(t *testing.T) {
	repo, _ := newRepo(t, time.Now())
	require.Error(t, repo.Upsert(context.Background(), sessions.Session{}))
}
