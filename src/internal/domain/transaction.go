package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
)

// Transaction is one row of the append-only ledger. SenderOwnerID is
// denormalized from the sender account at creation time so windowed fraud
// aggregation can attribute rows to an identity without a join per row.
// Rows are immutable once written.
type Transaction struct {
	ID                    string
	SenderAccountNumber   string
	ReceiverAccountNumber string
	SenderOwnerID         string
	Amount                decimal.Decimal
	Timestamp             time.Time
	Status                TransactionStatus
	Description           string
}
