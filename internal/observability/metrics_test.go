package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveOperation(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("deposit", nil)
	m.ObserveOperation("deposit", nil)
	m.ObserveOperation("withdraw", errors.New("boom"))

	body := scrape(t, m)
	require.Contains(t, body, `ledgerd_operations_total{operation="deposit",outcome="ok"} 2`)
	require.Contains(t, body, `ledgerd_operations_total{operation="withdraw",outcome="error"} 1`)
}

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/accounts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/7", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := scrape(t, m)
	require.Contains(t, body, `ledgerd_http_requests_total{code="404",route="/accounts/{id}"} 1`)
	require.True(t, strings.Contains(body, "ledgerd_http_request_duration_seconds"))
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("deposit", nil)

	wrapped := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
