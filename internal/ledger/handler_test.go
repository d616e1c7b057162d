package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, admin func(http.Handler) http.Handler) (*Service, http.Handler) {
	t.Helper()
	service := NewService(newFakeRepo())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, service, nil, admin)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return service, r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, payload)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAccountEndpoint(t *testing.T) {
	_, router := newTestHandler(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/accounts", map[string]any{
		"name":            "Alice",
		"initial_balance": "100",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var account Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	require.Equal(t, "Alice", account.Name)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("100")))
	require.NotZero(t, account.ID)
}

func TestCreateAccountEndpointRejectsBadBody(t *testing.T) {
	_, router := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/accounts", map[string]any{"initial_balance": "0"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositEndpoint(t *testing.T) {
	service, router := newTestHandler(t, nil)
	account, err := service.CreateAccount(context.Background(), "Alice", decimal.Zero)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/accounts/1/deposit", map[string]any{
		"amount": "25.50",
		"note":   "salary",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, account.ID, resp.AccountID)
	require.True(t, resp.Balance.Equal(decimal.RequireFromString("25.50")))
}

func TestErrorStatusMapping(t *testing.T) {
	service, router := newTestHandler(t, nil)
	_, err := service.CreateAccount(context.Background(), "Alice", decimal.RequireFromString("10"))
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown account", http.MethodGet, "/accounts/999", nil, http.StatusNotFound},
		{"non-integer id", http.MethodGet, "/accounts/abc", nil, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/accounts/1/deposit", map[string]any{"amount": "0"}, http.StatusBadRequest},
		{"missing amount", http.MethodPost, "/accounts/1/deposit", map[string]any{"note": "no amount"}, http.StatusBadRequest},
		{"overdraft", http.MethodPost, "/accounts/1/withdraw", map[string]any{"amount": "50"}, http.StatusUnprocessableEntity},
		{"delete with funds", http.MethodDelete, "/accounts/1", nil, http.StatusConflict},
		{"self transfer", http.MethodPost, "/transfers", map[string]any{"from_id": 1, "to_id": 1, "amount": "5"}, http.StatusBadRequest},
		{"transfer to missing", http.MethodPost, "/transfers", map[string]any{"from_id": 1, "to_id": 999, "amount": "5"}, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/accounts/1/transactions?limit=abc", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, "body: %s", rec.Body.String())
			require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestTransferEndpoint(t *testing.T) {
	service, router := newTestHandler(t, nil)
	alice, err := service.CreateAccount(context.Background(), "Alice", decimal.RequireFromString("100"))
	require.NoError(t, err)
	bob, err := service.CreateAccount(context.Background(), "Bob", decimal.Zero)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/transfers", map[string]any{
		"from_id": alice.ID,
		"to_id":   bob.ID,
		"amount":  "60",
		"note":    "loan",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.FromBalance.Equal(decimal.RequireFromString("40")))
	require.True(t, resp.ToBalance.Equal(decimal.RequireFromString("60")))
}

func TestSearchAccountsEndpoint(t *testing.T) {
	service, router := newTestHandler(t, nil)
	_, err := service.CreateAccount(context.Background(), "Alice", decimal.Zero)
	require.NoError(t, err)
	_, err = service.CreateAccount(context.Background(), "Bob", decimal.Zero)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/accounts?q=ali", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	require.Equal(t, "Alice", accounts[0].Name)

	rec = doJSON(t, router, http.MethodGet, "/accounts?q=zzz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String(), "no-match search must return an empty array")
}

func TestListTransactionsEndpoint(t *testing.T) {
	service, router := newTestHandler(t, nil)
	account, err := service.CreateAccount(context.Background(), "Alice", decimal.RequireFromString("100"))
	require.NoError(t, err)
	_, err = service.Deposit(context.Background(), account.ID, decimal.RequireFromString("5"), "salary")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/accounts/1/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []TransactionRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	require.Equal(t, KindDeposit, records[0].Kind)
	require.Equal(t, "salary", records[0].Note)

	rec = doJSON(t, router, http.MethodGet, "/accounts/1/transactions?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	records = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
}

func TestDeleteAccountEndpointIsGuarded(t *testing.T) {
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Admin-Token") == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	service, router := newTestHandler(t, guard)
	account, err := service.CreateAccount(context.Background(), "Alice", decimal.Zero)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodDelete, "/accounts/1", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	_, err = service.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/accounts/1", nil)
	req.Header.Set("X-Admin-Token", "token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	_, err = service.GetAccount(context.Background(), account.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
