package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type FraudEventRepository interface {
	Create(ctx context.Context, event domain.FraudEvent) (domain.FraudEvent, error)
	FindAll(ctx context.Context) ([]domain.FraudEvent, error)
}
