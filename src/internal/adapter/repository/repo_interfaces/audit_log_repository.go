package repo_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error)
	FindAll(ctx context.Context) ([]domain.AuditLog, error)
}
