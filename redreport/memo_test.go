package redreport_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestMemoizer_Fetch(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	memo := redreport.NewMemoizer(redreport.WithMemoClock(clock.Now))

	calls := 0
	fetch := func(context.Context) (json.RawMessage, error) {
		calls++
		return json.RawMessage(fmt.Sprintf(`{"call":%d}`, calls)), nil
	}

	t.Run("identical requests within ttl hit the network once", func(t *testing.T) {
		first, err := memo.Fetch(ctx, http.MethodGet, "https://api/countries", nil, time.Minute, fetch)
		require.NoError(t, err)
		clock.now = clock.now.Add(30 * time.Second)
		second, err := memo.Fetch(ctx, http.MethodGet, "https://api/countries", nil, time.Minute, fetch)
		require.NoError(t, err)

		require.Equal(t, 1, calls)
		require.JSONEq(t, string(first), string(second))
	})

	t.Run("expired entry is refetched", func(t *testing.T) {
		clock.now = clock.now.Add(31 * time.Second)
		third, err := memo.Fetch(ctx, http.MethodGet, "https://api/countries", nil, time.Minute, fetch)
		require.NoError(t, err)
		require.Equal(t, 2, calls)
		require.JSONEq(t, `{"call":2}`, string(third))
	})

	t.Run("method and body are part of the key", func(t *testing.T) {
		_, err := memo.Fetch(ctx, http.MethodPost, "https://api/countries", []byte(`{"q":"de"}`), time.Minute, fetch)
		require.NoError(t, err)
		_, err = memo.Fetch(ctx, http.MethodPost, "https://api/countries", []byte(`{"q":"fr"}`), time.Minute, fetch)
		require.NoError(t, err)
		require.Equal(t, 4, calls)
	})
}

func TestMemoizer_ErrorsAreNotCached(t *testing.T) {
	memo := redreport.NewMemoizer()
	calls := 0
	failing := func(context.Context) (json.RawMessage, error) {
		calls++
		return nil, fmt.Errorf("boom")
	}

	for i := 0; i < 2; i++ {
		_, err := memo.Fetch(context.Background(), http.MethodGet, "https://api/x", nil, time.Hour, failing)
		require.Error(t, err)
	}
	require.Equal(t, 2, calls)
	require.Equal(t, 0, memo.Len())
}
