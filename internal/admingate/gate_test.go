package admingate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, ttl time.Duration) (*Gate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	gate, err := New(client, "hunter2", ttl)
	require.NoError(t, err)
	return gate, mr
}

func TestNewRequiresPassword(t *testing.T) {
	_, err := New(nil, "", time.Minute)
	require.Error(t, err)
}

func TestUnlockAndCheck(t *testing.T) {
	gate, _ := newTestGate(t, time.Minute)
	ctx := context.Background()

	_, err := gate.Unlock(ctx, "wrong")
	require.ErrorIs(t, err, ErrAccessDenied)

	token, err := gate.Unlock(ctx, "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, gate.Check(ctx, token))
	require.ErrorIs(t, gate.Check(ctx, "bogus"), ErrTokenInvalid)
	require.ErrorIs(t, gate.Check(ctx, ""), ErrTokenInvalid)
}

func TestTokenExpires(t *testing.T) {
	gate, mr := newTestGate(t, time.Minute)
	ctx := context.Background()

	token, err := gate.Unlock(ctx, "hunter2")
	require.NoError(t, err)
	require.NoError(t, gate.Check(ctx, token))

	mr.FastForward(2 * time.Minute)
	require.ErrorIs(t, gate.Check(ctx, token), ErrTokenInvalid)
}

func TestRequireMiddleware(t *testing.T) {
	gate, _ := newTestGate(t, time.Minute)
	ctx := context.Background()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := gate.Require(next)

	req := httptest.NewRequest(http.MethodDelete, "/accounts/1", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	token, err := gate.Unlock(ctx, "hunter2")
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodDelete, "/accounts/1", nil)
	req.Header.Set(TokenHeader, token)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
