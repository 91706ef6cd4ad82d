package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type TransferService interface {
	TransferFunds(ctx context.Context, actor domain.Actor, req models.TransferRequest) (commons.Response[models.TransactionResponse], error)
	GetTransactionHistory(ctx context.Context, actor domain.Actor, accountID string) (commons.Response[[]models.TransactionResponse], error)
	GetAllTransactions(ctx context.Context, actor domain.Actor) (commons.Response[[]models.TransactionResponse], error)
	GetTransactionsBetween(ctx context.Context, actor domain.Actor, start, end time.Time) (commons.Response[[]models.TransactionResponse], error)
}
