package ledger

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// A FOR UPDATE that blocks on a rival's row lock must re-read the committed
// row once it wakes. Above read committed, Postgres raises a serialization
// error (40001) in that situation, which would make the second of two
// concurrent operations on the same account fail instead of serialize.
func TestTxIsolationLevel(t *testing.T) {
	require.Equal(t, pgx.ReadCommitted, txOptions.IsoLevel)
}
