package implementations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

// TransactionRepository appends to and reads the ledger. There is
// deliberately no update or delete path.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, sender_account_number, receiver_account_number, sender_owner_id, amount, status, description, created_at`

func (r *TransactionRepository) Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{
		"senderAccountNumber":   transaction.SenderAccountNumber,
		"receiverAccountNumber": transaction.ReceiverAccountNumber,
		"status":                transaction.Status,
	})

	const query = `
INSERT INTO transactions (
	sender_account_number,
	receiver_account_number,
	sender_owner_id,
	amount,
	status,
	description,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		transaction.SenderAccountNumber,
		transaction.ReceiverAccountNumber,
		transaction.SenderOwnerID,
		transaction.Amount.StringFixed(2),
		transaction.Status,
		transaction.Description,
		transaction.Timestamp,
	).Scan(&transaction.ID); err != nil {
		logger.Error("transaction repository create failed", err, logger.Fields{
			"senderAccountNumber": transaction.SenderAccountNumber,
		})
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	logger.Info("transaction repository create success", logger.Fields{
		"transactionId": transaction.ID,
		"status":        transaction.Status,
	})

	return transaction, nil
}

func (r *TransactionRepository) FindByAccountNumber(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE sender_account_number = $1
   OR receiver_account_number = $1
ORDER BY created_at DESC`

	return r.queryMany(ctx, query, accountNumber)
}

func (r *TransactionRepository) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
ORDER BY created_at DESC`

	return r.queryMany(ctx, query)
}

func (r *TransactionRepository) FindBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	const query = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE created_at >= $1
  AND created_at <= $2
ORDER BY created_at DESC`

	return r.queryMany(ctx, query, start, end)
}

func (r *TransactionRepository) SumCompletedBySenderBetween(ctx context.Context, senderOwnerID string, start, end time.Time) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE sender_owner_id = $1
  AND status = 'COMPLETED'
  AND created_at >= $2
  AND created_at <= $3`

	var total string
	if err := r.db.QueryRowContext(ctx, query, senderOwnerID, start, end).Scan(&total); err != nil {
		logger.Error("transaction repository sum completed by sender failed", err, logger.Fields{
			"senderOwnerId": senderOwnerID,
		})
		return decimal.Zero, fmt.Errorf("sum completed transactions: %w", err)
	}

	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse transaction total %q: %w", total, err)
	}

	return parsed, nil
}

func (r *TransactionRepository) CountBySenderBetween(ctx context.Context, senderOwnerID string, start, end time.Time) (int64, error) {
	const query = `
SELECT COUNT(1)
FROM transactions
WHERE sender_owner_id = $1
  AND created_at >= $2
  AND created_at <= $3`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, senderOwnerID, start, end).Scan(&count); err != nil {
		logger.Error("transaction repository count by sender failed", err, logger.Fields{
			"senderOwnerId": senderOwnerID,
		})
		return 0, fmt.Errorf("count transactions: %w", err)
	}

	return count, nil
}

func (r *TransactionRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("transaction repository query failed", err, nil)
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var transaction domain.Transaction
		var amount string

		if err := rows.Scan(
			&transaction.ID,
			&transaction.SenderAccountNumber,
			&transaction.ReceiverAccountNumber,
			&transaction.SenderOwnerID,
			&amount,
			&transaction.Status,
			&transaction.Description,
			&transaction.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse transaction amount %q: %w", amount, err)
		}
		transaction.Amount = parsed

		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return transactions, nil
}
