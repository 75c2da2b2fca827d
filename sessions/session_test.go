package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func authenticatedSession() sessions.Session {
	return sessions.Session{
		ID:           "sess-1",
		Status:       sessions.StatusAuthenticated,
		User:         sessions.User{ID: "user-1", Email: "jane@example.com"},
		Provider:     sessions.ProviderOAuth,
		ProviderName: "keycloak",
		Tokens: sessions.Tokens{
			AccessToken:  "access-1",
			IDToken:      "id-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    testNow.Add(5 * time.Minute),
		},
		CreatedAt: testNow,
		ExpiresAt: testNow.Add(24 * time.Hour),
	}
}

func TestSession_Authenticated(t *testing.T) {
	s := authenticatedSession()
	require.True(t, s.Authenticated())
	require.Equal(t, "access-1", s.BearerToken())

	var nilSession *sessions.Session
	require.False(t, nilSession.Authenticated())
	require.Equal(t, "", nilSession.BearerToken())

	anon := sessions.Session{Status: sessions.StatusAuthenticated, Provider: sessions.ProviderAnonymous}
	require.False(t, anon.Authenticated())

	s.Tokens.AccessToken = ""
	require.False(t, s.Authenticated())
}

func TestTokens_Expired(t *testing.T) {
	tokens := sessions.Tokens{ExpiresAt: testNow.Add(time.Minute)}
	require.False(t, tokens.Expired(testNow, 30*time.Second))
	require.True(t, tokens.Expired(testNow, time.Minute))
	require.True(t, tokens.Expired(testNow.Add(2*time.Minute), 0))
	require.False(t, sessions.Tokens{}.Expired(testNow, time.Hour))
}

func TestSession_WithTokensKeepsOtherFields(t *testing.T) {
	original := authenticatedSession()
	updated := original.WithTokens(sessions.Tokens{AccessToken: "access-2", IDToken: "id-2", RefreshToken: "refresh-2"})

	require.Equal(t, "access-2", updated.Tokens.AccessToken)
	require.Equal(t, "access-1", original.Tokens.AccessToken)
	require.Equal(t, original.ID, updated.ID)
	require.Equal(t, original.User, updated.User)
	require.Equal(t, original.ExpiresAt, updated.ExpiresAt)
	require.Equal(t, original.ProviderName, updated.ProviderName)
}

func TestInMemoryRepo(t *testing.T) {
	ctx := context.Background()
	repo := sessions.NewInMemoryRepo()

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	require.Error(t, repo.Upsert(ctx, sessions.Session{}))

	s := authenticatedSession()
	require.NoError(t, repo.Upsert(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Tokens.AccessToken = "mutated"

	again, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "access-1", again.Tokens.AccessToken)

	expired := authenticatedSession()
	expired.ID = "sess-old"
	expired.ExpiresAt = testNow.Add(-time.Minute)
	require.NoError(t, repo.Upsert(ctx, expired))
	require.Equal(t, 2, repo.Len())

	require.NoError(t, repo.DeleteExpired(ctx, testNow))
	require.Equal(t, 1, repo.Len())

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestCookieCodec(t *testing.T) {
	now := testNow
	codec, err := sessions.NewCookieCodec("super-secret", func() time.Time { return now })
	require.NoError(t, err)

	raw, err := codec.Encode("sess-1", now.Add(time.Hour))
	require.NoError(t, err)

	id, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "sess-1", id)

	t.Run("other secret rejected", func(t *testing.T) {
		other, err := sessions.NewCookieCodec("another-secret", func() time.Time { return now })
		require.NoError(t, err)
		_, err = other.Decode(raw)
		require.Error(t, err)
	})

	t.Run("expired rejected", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := codec.Decode(raw)
		require.Error(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := sessions.NewCookieCodec("", nil)
		require.Error(t, err)
	})
}
