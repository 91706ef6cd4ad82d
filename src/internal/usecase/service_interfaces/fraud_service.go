package service_interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

// FraudService evaluates transfer attempts against configured policy. The
// checks are read-only with respect to accounts; a false result always has a
// persisted FraudEvent behind it.
type FraudService interface {
	CheckRapidTransfers(ctx context.Context, actor domain.Actor) (bool, error)
	CheckDailyLimit(ctx context.Context, actor domain.Actor, amount decimal.Decimal) (bool, error)
	ListFraudEvents(ctx context.Context, actor domain.Actor) (commons.Response[[]models.FraudEventResponse], error)
}
