package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates transaction record directions.
type Kind string

const (
	KindDeposit     Kind = "DEPOSIT"
	KindWithdraw    Kind = "WITHDRAW"
	KindTransferIn  Kind = "TRANSFER_IN"
	KindTransferOut Kind = "TRANSFER_OUT"
)

// InitialDepositNote annotates the deposit record created alongside a funded account.
const InitialDepositNote = "Initial deposit"

// DefaultHistoryLimit is applied by outer layers when no limit is supplied.
const DefaultHistoryLimit = 50

// Account holds a balance. The balance column is the single source of truth
// for how much money the account holds; it never goes negative.
type Account struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionRecord is one append-only log line. Amount is always a positive
// magnitude; direction lives in Kind. RelatedAccountID is set only on
// transfer legs and points at the counterparty.
type TransactionRecord struct {
	ID               int64           `json:"id"`
	AccountID        int64           `json:"account_id"`
	Kind             Kind            `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Note             string          `json:"note,omitempty"`
	RelatedAccountID *int64          `json:"related_account_id,omitempty"`
}

// TransactionInput groups fields for appending a record.
type TransactionInput struct {
	AccountID        int64
	Kind             Kind
	Amount           decimal.Decimal
	OccurredAt       time.Time
	Note             string
	RelatedAccountID *int64
}

var (
	// ErrInvalidArgument indicates malformed or out-of-range input.
	ErrInvalidArgument = errors.New("ledger: invalid argument")
	// ErrNotFound indicates the referenced account does not exist.
	ErrNotFound = errors.New("ledger: account not found")
	// ErrInsufficientFunds indicates the amount exceeds the source balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrInvalidState indicates a structural invariant would be violated.
	ErrInvalidState = errors.New("ledger: invalid state")
	// ErrStorageFailure indicates the store could not complete the atomic unit.
	ErrStorageFailure = errors.New("ledger: storage failure")
)

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NormalizeName trims the display name and reports whether anything remains.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalidArgf("account name cannot be empty")
	}
	return trimmed, nil
}

// NormalizeNote trims an optional annotation; empty means absent.
func NormalizeNote(note string) string {
	return strings.TrimSpace(note)
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return invalidArgf("amount must be positive")
	}
	return nil
}
