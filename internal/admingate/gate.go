// Package admingate guards administrative ledger operations behind a single
// shared password. It is a collaborator of the ledger core, not part of it:
// the engine itself performs no authentication.
package admingate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// TokenHeader carries the unlocked session token on gated requests.
const TokenHeader = "X-Admin-Token"

var (
	// ErrAccessDenied indicates a wrong password.
	ErrAccessDenied = errors.New("admingate: access denied")
	// ErrTokenInvalid indicates a missing, expired, or unknown session token.
	ErrTokenInvalid = errors.New("admingate: token invalid or expired")
)

// Gate issues and checks admin session tokens backed by Redis.
type Gate struct {
	client *redis.Client
	hash   []byte
	ttl    time.Duration
}

// New hashes the shared admin password and constructs the gate.
func New(client *redis.Client, password string, ttl time.Duration) (*Gate, error) {
	if password == "" {
		return nil, errors.New("admingate: password must be provided")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("admingate: hash password: %w", err)
	}
	return &Gate{client: client, hash: hash, ttl: ttl}, nil
}

// Unlock validates the password and returns a fresh session token.
func (g *Gate) Unlock(ctx context.Context, password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return "", ErrAccessDenied
	}
	token := uuid.NewString()
	if err := g.client.Set(ctx, g.key(token), "1", g.ttl).Err(); err != nil {
		return "", fmt.Errorf("admingate: store token: %w", err)
	}
	return token, nil
}

// Check verifies that the token belongs to an unlocked session.
func (g *Gate) Check(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenInvalid
	}
	if err := g.client.Get(ctx, g.key(token)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("admingate: check token: %w", err)
	}
	return nil
}

// Require wraps a handler so only unlocked sessions reach it.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Check(r.Context(), r.Header.Get(TokenHeader)); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) key(token string) string {
	return "admingate:session:" + token
}
