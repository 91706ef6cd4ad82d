package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	List(ctx context.Context) ([]domain.Account, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Account, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error)

	// UpdateBalance is a compare-and-set on a single account keyed on the
	// version the caller read. Lost races return ErrConcurrencyConflict.
	UpdateBalance(ctx context.Context, update domain.BalanceUpdate) error

	// MoveFunds applies a debit and credit as one atomic unit: both balances
	// change or neither does, and no concurrent reader observes only one
	// side applied. Either side losing its version check fails the whole
	// move with ErrConcurrencyConflict.
	MoveFunds(ctx context.Context, debit domain.BalanceUpdate, credit domain.BalanceUpdate) error
}
