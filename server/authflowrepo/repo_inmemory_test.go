package authflowrepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/server/authflowrepo"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert("s1", &authflowrepo.AuthFlowState{Provider: "keycloak", Nonce: "n1", CreatedAt: now}))
	require.NoError(t, repo.Upsert("s2", &authflowrepo.AuthFlowState{Provider: "google", CreatedAt: now.Add(-time.Hour)}))
	require.ErrorIs(t, repo.Upsert("", &authflowrepo.AuthFlowState{}), errors.ErrInvalidState)

	got, err := repo.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "n1", got.Nonce)
	require.False(t, got.Expired(now.Add(5*time.Minute), 10*time.Minute))
	require.True(t, got.Expired(now.Add(11*time.Minute), 10*time.Minute))

	got.Nonce = "changed"
	again, _ := repo.Get("s1")
	require.Equal(t, "n1", again.Nonce)

	require.NoError(t, repo.DeleteOlderThan(now.Add(-10*time.Minute)))
	_, err = repo.Get("s2")
	require.ErrorIs(t, err, errors.ErrInvalidState)

	require.NoError(t, repo.Delete("s1"))
	_, err = repo.Get("s1")
	require.ErrorIs(t, err, errors.ErrInvalidState)
}
