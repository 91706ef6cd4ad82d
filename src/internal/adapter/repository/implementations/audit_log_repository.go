package implementations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

type AuditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	const query = `
INSERT INTO audit_logs (
	id,
	action,
	user_id,
	details,
	ip_address,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`

	// Entry ids are assigned by the audit service before dispatch; ON
	// CONFLICT makes redelivery after a partial failure idempotent.
	if _, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Action,
		entry.UserID,
		entry.Details,
		entry.IPAddress,
		entry.Timestamp,
	); err != nil {
		logger.Error("audit log repository create failed", err, logger.Fields{
			"action": entry.Action,
		})
		return domain.AuditLog{}, fmt.Errorf("create audit log: %w", err)
	}

	return entry, nil
}

func (r *AuditLogRepository) FindAll(ctx context.Context) ([]domain.AuditLog, error) {
	const query = `
SELECT id, action, user_id, details, ip_address, created_at
FROM audit_logs
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("audit log repository find all failed", err, nil)
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditLog, 0)
	for rows.Next() {
		var entry domain.AuditLog
		var userID sql.NullString
		var ipAddress sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&userID,
			&entry.Details,
			&ipAddress,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit log row: %w", err)
		}

		if userID.Valid {
			value := userID.String
			entry.UserID = &value
		}
		if ipAddress.Valid {
			value := ipAddress.String
			entry.IPAddress = &value
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log rows: %w", err)
	}

	return entries, nil
}
