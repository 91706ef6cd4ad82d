package repo_interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

// TransactionRepository is the append-only ledger. Rows are never updated or
// deleted after Create.
type TransactionRepository interface {
	Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
	FindAll(ctx context.Context) ([]domain.Transaction, error)
	FindBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error)

	// SumCompletedBySenderBetween totals COMPLETED transfers sent by the
	// given identity inside [start, end]; CountBySenderBetween counts every
	// attempt row in the window regardless of status.
	SumCompletedBySenderBetween(ctx context.Context, senderOwnerID string, start, end time.Time) (decimal.Decimal, error)
	CountBySenderBetween(ctx context.Context, senderOwnerID string, start, end time.Time) (int64, error)
}
