package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup. The CHECK constraints restate the engine's
// invariants at the storage boundary: balances never negative, amounts
// always positive magnitudes, records removed only by account cascade.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name       TEXT NOT NULL,
	balance    NUMERIC(20,2) NOT NULL DEFAULT 0 CONSTRAINT accounts_balance_check CHECK (balance >= 0),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	account_id         BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	kind               TEXT NOT NULL CHECK (kind IN ('DEPOSIT','WITHDRAW','TRANSFER_IN','TRANSFER_OUT')),
	amount             NUMERIC(20,2) NOT NULL CHECK (amount > 0),
	occurred_at        TIMESTAMPTZ NOT NULL,
	note               TEXT,
	related_account_id BIGINT
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id, id DESC);
`

// New creates a PostgreSQL connection pool and ensures the ledger schema.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ensure schema: %w", err)
	}

	return pool, nil
}
