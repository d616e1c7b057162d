package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists accounts and transaction records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the storage operations available inside one atomic unit.
type TxRepository interface {
	InsertAccount(ctx context.Context, name string, balance decimal.Decimal, createdAt time.Time) (int64, error)
	GetAccountsForUpdate(ctx context.Context, ids ...int64) ([]Account, error)
	UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error
	DeleteAccount(ctx context.Context, accountID int64) error
	InsertTransaction(ctx context.Context, in TransactionInput) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// txOptions keeps transactions at read committed. Serialization comes from
// the row locks taken in ascending id order: a blocked FOR UPDATE then
// re-reads the row version its rival committed instead of aborting the way
// the stricter isolation levels do on a concurrent update.
var txOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx executes fn within one transaction. Either every mutation issued
// through the TxRepository commits or none of them do.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit tx: %w", err)
	}
	return nil
}

const accountColumns = `id, name, balance::text, created_at`

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a       Account
		balance string
	)
	if err := row.Scan(&a.ID, &a.Name, &balance, &a.CreatedAt); err != nil {
		return Account{}, err
	}
	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return Account{}, fmt.Errorf("ledger: parse balance: %w", err)
	}
	a.Balance = parsed
	return a, nil
}

// GetAccount fetches one account outside any transaction scope.
func (r *Repository) GetAccount(ctx context.Context, accountID int64) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

// SearchAccounts matches the query against the name (case-insensitive
// substring) or the stringified id. An empty query matches every account.
func (r *Repository) SearchAccounts(ctx context.Context, query string) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts
WHERE name ILIKE '%'||$1||'%' OR id::text LIKE '%'||$1||'%'
ORDER BY id ASC`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// ListTransactions returns the newest records first, capped at limit.
func (r *Repository) ListTransactions(ctx context.Context, accountID int64, limit int) ([]TransactionRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, account_id, kind, amount::text, occurred_at, note, related_account_id
FROM transactions WHERE account_id=$1 ORDER BY id DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []TransactionRecord
	for rows.Next() {
		var (
			rec    TransactionRecord
			amount string
			note   *string
		)
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Kind, &amount, &rec.OccurredAt, &note, &rec.RelatedAccountID); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("ledger: parse amount: %w", err)
		}
		rec.Amount = parsed
		if note != nil {
			rec.Note = *note
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *txRepository) InsertAccount(ctx context.Context, name string, balance decimal.Decimal, createdAt time.Time) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO accounts (name, balance, created_at) VALUES ($1,$2,$3) RETURNING id`,
		name, balance.String(), createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert account: %w", err)
	}
	return id, nil
}

// GetAccountsForUpdate locks the requested rows in ascending id order so
// overlapping operations always acquire locks in the same sequence.
func (r *txRepository) GetAccountsForUpdate(ctx context.Context, ids ...int64) ([]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *txRepository) UpdateBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET balance=$2 WHERE id=$1`, accountID, newBalance.String())
	if err != nil {
		// The schema-level CHECK backs up the engine's own guard.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "accounts_balance_check" {
			return ErrInsufficientFunds
		}
		return fmt.Errorf("ledger: update balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteAccount(ctx context.Context, accountID int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, accountID)
	if err != nil {
		return fmt.Errorf("ledger: delete account: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, in TransactionInput) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (account_id, kind, amount, occurred_at, note, related_account_id)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		in.AccountID, in.Kind, in.Amount.String(), in.OccurredAt, nullText(in.Note), in.RelatedAccountID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert transaction: %w", err)
	}
	return id, nil
}

func nullText(val string) any {
	if val == "" {
		return nil
	}
	return val
}
