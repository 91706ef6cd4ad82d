package service_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

// AuditService accepts audit entries off the caller's critical path and
// guarantees at-least-once persistence for every accepted entry.
type AuditService interface {
	Record(action domain.AuditAction, userID *string, details string, ipAddress *string)
	ListAuditLogs(ctx context.Context, actor domain.Actor) (commons.Response[[]models.AuditLogResponse], error)
}
