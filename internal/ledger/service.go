package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RepositoryPort abstracts transactional storage behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetAccount(ctx context.Context, accountID int64) (Account, error)
	SearchAccounts(ctx context.Context, query string) ([]Account, error)
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]TransactionRecord, error)
}

// Service enforces the balance invariants and sequences store calls so each
// operation is a single atomic transition between consistent ledger states.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService constructs the ledger engine.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// classify folds unexpected storage errors into ErrStorageFailure while
// letting the typed domain failures pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrInvalidArgument, ErrNotFound, ErrInsufficientFunds, ErrInvalidState} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}

// CreateAccount opens an account. A positive initial balance is logged as a
// deposit in the same atomic unit as the account row itself.
func (s *Service) CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (Account, error) {
	trimmed, err := NormalizeName(name)
	if err != nil {
		return Account{}, err
	}
	if initialBalance.Sign() < 0 {
		return Account{}, invalidArgf("initial balance cannot be negative")
	}
	account := Account{Name: trimmed, Balance: initialBalance, CreatedAt: s.now()}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertAccount(ctx, account.Name, account.Balance, account.CreatedAt)
		if err != nil {
			return err
		}
		account.ID = id
		if initialBalance.Sign() > 0 {
			_, err = tx.InsertTransaction(ctx, TransactionInput{
				AccountID:  id,
				Kind:       KindDeposit,
				Amount:     initialBalance,
				OccurredAt: account.CreatedAt,
				Note:       InitialDepositNote,
			})
		}
		return err
	})
	if err != nil {
		return Account{}, classify(err)
	}
	return account, nil
}

// GetAccount returns the current snapshot of one account.
func (s *Service) GetAccount(ctx context.Context, accountID int64) (Account, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return Account{}, classify(err)
	}
	return account, nil
}

// SearchAccounts lists accounts matching the query, ascending by id.
func (s *Service) SearchAccounts(ctx context.Context, query string) ([]Account, error) {
	accounts, err := s.repo.SearchAccounts(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	return accounts, nil
}

// DeleteAccount removes an account and its records. Only an account holding
// exactly zero may be deleted.
func (s *Service) DeleteAccount(ctx context.Context, accountID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accounts, err := tx.GetAccountsForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return ErrNotFound
		}
		if !accounts[0].Balance.IsZero() {
			return fmt.Errorf("%w: cannot delete account with non-zero balance", ErrInvalidState)
		}
		return tx.DeleteAccount(ctx, accountID)
	})
	return classify(err)
}

// Deposit credits the account and appends one record.
func (s *Service) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal, note string) (decimal.Decimal, error) {
	return s.adjust(ctx, accountID, amount, note, KindDeposit)
}

// Withdraw debits the account and appends one record. The balance never
// drops below zero.
func (s *Service) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal, note string) (decimal.Decimal, error) {
	return s.adjust(ctx, accountID, amount, note, KindWithdraw)
}

func (s *Service) adjust(ctx context.Context, accountID int64, amount decimal.Decimal, note string, kind Kind) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	var newBalance decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accounts, err := tx.GetAccountsForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return ErrNotFound
		}
		switch kind {
		case KindDeposit:
			newBalance = accounts[0].Balance.Add(amount)
		case KindWithdraw:
			if accounts[0].Balance.LessThan(amount) {
				return ErrInsufficientFunds
			}
			newBalance = accounts[0].Balance.Sub(amount)
		}
		if err := tx.UpdateBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		_, err = tx.InsertTransaction(ctx, TransactionInput{
			AccountID:  accountID,
			Kind:       kind,
			Amount:     amount,
			OccurredAt: s.now(),
			Note:       NormalizeNote(note),
		})
		return err
	})
	if err != nil {
		return decimal.Zero, classify(err)
	}
	return newBalance, nil
}

// Transfer moves amount between two accounts. The two balance updates and
// the two paired legs commit as one unit; a failure partway leaves both
// accounts and both logs untouched.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, note string) (decimal.Decimal, decimal.Decimal, error) {
	if fromID == toID {
		return decimal.Zero, decimal.Zero, invalidArgf("cannot transfer to the same account")
	}
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	var newFrom, newTo decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accounts, err := tx.GetAccountsForUpdate(ctx, fromID, toID)
		if err != nil {
			return err
		}
		if len(accounts) != 2 {
			return ErrNotFound
		}
		var from, to Account
		for _, account := range accounts {
			switch account.ID {
			case fromID:
				from = account
			case toID:
				to = account
			}
		}
		if from.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		newFrom = from.Balance.Sub(amount)
		newTo = to.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, fromID, newFrom); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, toID, newTo); err != nil {
			return err
		}
		occurred := s.now()
		trimmed := NormalizeNote(note)
		if _, err := tx.InsertTransaction(ctx, TransactionInput{
			AccountID:        fromID,
			Kind:             KindTransferOut,
			Amount:           amount,
			OccurredAt:       occurred,
			Note:             trimmed,
			RelatedAccountID: &toID,
		}); err != nil {
			return err
		}
		_, err = tx.InsertTransaction(ctx, TransactionInput{
			AccountID:        toID,
			Kind:             KindTransferIn,
			Amount:           amount,
			OccurredAt:       occurred,
			Note:             trimmed,
			RelatedAccountID: &fromID,
		})
		return err
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, classify(err)
	}
	return newFrom, newTo, nil
}

// ListTransactions returns the newest records for an account, capped at limit.
func (s *Service) ListTransactions(ctx context.Context, accountID int64, limit int) ([]TransactionRecord, error) {
	if limit <= 0 {
		return nil, invalidArgf("limit must be positive")
	}
	records, err := s.repo.ListTransactions(ctx, accountID, limit)
	if err != nil {
		return nil, classify(err)
	}
	return records, nil
}
