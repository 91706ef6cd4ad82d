package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

func IsValidAccountStatus(status AccountStatus) bool {
	switch status {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return true
	}
	return false
}

// Account is a customer ledger account. Balance is only ever mutated through
// the versioned balance-move path; Version increments on every balance write
// so concurrent writers lose deterministically instead of clobbering each
// other. CLOSED is terminal but the record is never deleted.
type Account struct {
	ID            string
	AccountNumber string
	OwnerUserID   string
	Balance       decimal.Decimal
	Status        AccountStatus
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BalanceUpdate is one half of an atomic two-account move. ExpectedVersion is
// the version the caller read; the store rejects the whole move with
// ErrConcurrencyConflict when either side's version has moved on.
type BalanceUpdate struct {
	AccountID       string
	ExpectedVersion int64
	NewBalance      decimal.Decimal
}
