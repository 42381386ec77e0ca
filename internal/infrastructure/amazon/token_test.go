package amazon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTokenServer(t *testing.T, calls *int64, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "rt-1", r.FormValue("refresh_token"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
	}))
}

func TestTokenRefreshesOnceAndCaches(t *testing.T) {
	var calls int64
	srv := fakeTokenServer(t, &calls, http.StatusOK)
	defer srv.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := NewTokenSource("cid", "secret", "rt-1", zerolog.Nop()).
		WithTokenURL(srv.URL).
		WithClock(func() time.Time { return now })

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Second call inside the validity window hits the cache.
	now = now.Add(30 * time.Minute)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestTokenRefreshesWithinExpirySkew(t *testing.T) {
	var calls int64
	srv := fakeTokenServer(t, &calls, http.StatusOK)
	defer srv.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := NewTokenSource("cid", "secret", "rt-1", zerolog.Nop()).
		WithTokenURL(srv.URL).
		WithClock(func() time.Time { return now })

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	// expires_in=3600 with a 60s skew: 59m30s in, the token must refresh.
	now = now.Add(59*time.Minute + 30*time.Second)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestTokenNon2xxReturnsAuthError(t *testing.T) {
	var calls int64
	srv := fakeTokenServer(t, &calls, http.StatusBadRequest)
	defer srv.Close()

	ts := NewTokenSource("cid", "secret", "rt-1", zerolog.Nop()).WithTokenURL(srv.URL)

	_, err := ts.Token(context.Background())
	require.Error(t, err)

	authErr, ok := err.(*AuthError)
	require.True(t, ok, "expected *AuthError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Contains(t, authErr.Body, "invalid_grant")
}
