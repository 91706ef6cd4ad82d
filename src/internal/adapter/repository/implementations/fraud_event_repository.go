package implementations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

type FraudEventRepository struct {
	db *sql.DB
}

func NewFraudEventRepository(db *sql.DB) *FraudEventRepository {
	return &FraudEventRepository{db: db}
}

func (r *FraudEventRepository) Create(ctx context.Context, event domain.FraudEvent) (domain.FraudEvent, error) {
	logger.Info("fraud event repository create", logger.Fields{
		"userId":   event.UserID,
		"type":     event.Type,
		"severity": event.Severity,
	})

	const query = `
INSERT INTO fraud_events (
	user_id,
	type,
	severity,
	amount,
	description,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var amount any
	if event.Amount != nil {
		amount = event.Amount.StringFixed(2)
	}

	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.UserID,
		event.Type,
		event.Severity,
		amount,
		event.Description,
		event.Timestamp,
	).Scan(&event.ID); err != nil {
		logger.Error("fraud event repository create failed", err, logger.Fields{
			"userId": event.UserID,
			"type":   event.Type,
		})
		return domain.FraudEvent{}, fmt.Errorf("create fraud event: %w", err)
	}

	return event, nil
}

func (r *FraudEventRepository) FindAll(ctx context.Context) ([]domain.FraudEvent, error) {
	const query = `
SELECT id, user_id, type, severity, amount, description, created_at
FROM fraud_events
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("fraud event repository find all failed", err, nil)
		return nil, fmt.Errorf("list fraud events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.FraudEvent, 0)
	for rows.Next() {
		var event domain.FraudEvent
		var amount sql.NullString

		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Type,
			&event.Severity,
			&amount,
			&event.Description,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan fraud event row: %w", err)
		}

		if amount.Valid {
			parsed, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("parse fraud event amount %q: %w", amount.String, err)
			}
			event.Amount = &parsed
		}

		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud event rows: %w", err)
	}

	return events, nil
}
