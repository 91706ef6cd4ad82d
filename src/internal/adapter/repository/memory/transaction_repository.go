package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type TransactionRepository struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

func (r *TransactionRepository) Create(_ context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transaction.ID = uuid.NewString()
	r.transactions = append(r.transactions, transaction)
	return transaction, nil
}

func (r *TransactionRepository) FindByAccountNumber(_ context.Context, accountNumber string) ([]domain.Transaction, error) {
	return r.filterNewestFirst(func(t domain.Transaction) bool {
		return t.SenderAccountNumber == accountNumber || t.ReceiverAccountNumber == accountNumber
	}), nil
}

func (r *TransactionRepository) FindAll(_ context.Context) ([]domain.Transaction, error) {
	return r.filterNewestFirst(func(domain.Transaction) bool { return true }), nil
}

func (r *TransactionRepository) FindBetween(_ context.Context, start, end time.Time) ([]domain.Transaction, error) {
	return r.filterNewestFirst(func(t domain.Transaction) bool {
		return inWindow(t.Timestamp, start, end)
	}), nil
}

func (r *TransactionRepository) SumCompletedBySenderBetween(_ context.Context, senderOwnerID string, start, end time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, t := range r.transactions {
		if t.SenderOwnerID != senderOwnerID || t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if inWindow(t.Timestamp, start, end) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (r *TransactionRepository) CountBySenderBetween(_ context.Context, senderOwnerID string, start, end time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, t := range r.transactions {
		if t.SenderOwnerID != senderOwnerID {
			continue
		}
		if inWindow(t.Timestamp, start, end) {
			count++
		}
	}
	return count, nil
}

func (r *TransactionRepository) filterNewestFirst(match func(domain.Transaction) bool) []domain.Transaction {
	r.mu.RLock()
	out := make([]domain.Transaction, 0)
	for _, t := range r.transactions {
		if match(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func inWindow(at, start, end time.Time) bool {
	return !at.Before(start) && !at.After(end)
}
