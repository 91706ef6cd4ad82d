package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

// FraudService runs the pre-transfer policy checks. Both checks read the
// ledger only; the account store is never touched. A failed check persists
// exactly one FraudEvent before reporting the rejection.
type FraudService struct {
	fraudEventRepo  repo_interfaces.FraudEventRepository
	transactionRepo repo_interfaces.TransactionRepository

	dailyTransferLimit     decimal.Decimal
	rapidTransferThreshold int
	rapidTransferWindow    time.Duration
}

func NewFraudService(
	fraudEventRepo repo_interfaces.FraudEventRepository,
	transactionRepo repo_interfaces.TransactionRepository,
	dailyTransferLimit decimal.Decimal,
	rapidTransferThreshold int,
	rapidTransferWindowMinutes int,
) *FraudService {
	return &FraudService{
		fraudEventRepo:         fraudEventRepo,
		transactionRepo:        transactionRepo,
		dailyTransferLimit:     dailyTransferLimit,
		rapidTransferThreshold: rapidTransferThreshold,
		rapidTransferWindow:    time.Duration(rapidTransferWindowMinutes) * time.Minute,
	}
}

// CheckDailyLimit sums the actor's COMPLETED transfers since UTC midnight
// and rejects when that total plus the requested amount would exceed the
// configured daily limit.
func (s *FraudService) CheckDailyLimit(ctx context.Context, actor domain.Actor, amount decimal.Decimal) (bool, error) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dailyTotal, err := s.transactionRepo.SumCompletedBySenderBetween(ctx, actor.UserID, startOfDay, now)
	if err != nil {
		logger.Error("fraud service daily limit aggregation failed", err, logger.Fields{
			"userId": actor.UserID,
		})
		return false, fmt.Errorf("daily limit aggregation: %w", err)
	}

	projectedTotal := dailyTotal.Add(amount)
	if projectedTotal.GreaterThan(s.dailyTransferLimit) {
		description := fmt.Sprintf("Daily limit exceeded. Daily total: %s, Attempted: %s",
			dailyTotal.StringFixed(2), amount.StringFixed(2))

		if err := s.logFraudEvent(ctx, actor, domain.FraudTypeDailyLimitExceeded, domain.FraudSeverityHigh, &amount, description); err != nil {
			return false, err
		}

		logger.Info("fraud service daily limit exceeded", logger.Fields{
			"userId":     actor.UserID,
			"dailyTotal": dailyTotal.StringFixed(2),
			"attempted":  amount.StringFixed(2),
		})
		return false, nil
	}

	return true, nil
}

// CheckRapidTransfers counts every transfer attempt by the actor inside the
// trailing window, regardless of outcome, and rejects once the configured
// threshold is reached.
func (s *FraudService) CheckRapidTransfers(ctx context.Context, actor domain.Actor) (bool, error) {
	now := time.Now().UTC()
	windowStart := now.Add(-s.rapidTransferWindow)

	transferCount, err := s.transactionRepo.CountBySenderBetween(ctx, actor.UserID, windowStart, now)
	if err != nil {
		logger.Error("fraud service rapid transfer count failed", err, logger.Fields{
			"userId": actor.UserID,
		})
		return false, fmt.Errorf("rapid transfer count: %w", err)
	}

	if transferCount >= int64(s.rapidTransferThreshold) {
		description := fmt.Sprintf("Rapid transfer detected. Count: %d in last %d minutes",
			transferCount, int(s.rapidTransferWindow.Minutes()))

		if err := s.logFraudEvent(ctx, actor, domain.FraudTypeRapidTransfers, domain.FraudSeverityMedium, nil, description); err != nil {
			return false, err
		}

		logger.Info("fraud service rapid transfers detected", logger.Fields{
			"userId":        actor.UserID,
			"transferCount": transferCount,
		})
		return false, nil
	}

	return true, nil
}

func (s *FraudService) ListFraudEvents(ctx context.Context, actor domain.Actor) (commons.Response[[]models.FraudEventResponse], error) {
	if !actor.IsAdmin() {
		err := fmt.Errorf("%w: only admins can view fraud events", domain.ErrAccessDenied)
		return commons.ErrorResponse[[]models.FraudEventResponse]("access denied", err.Error()), err
	}

	events, err := s.fraudEventRepo.FindAll(ctx)
	if err != nil {
		logger.Error("fraud service list fraud events failed", err, nil)
		return commons.ErrorResponse[[]models.FraudEventResponse]("failed to list fraud events", "Unable to list fraud events right now"), err
	}

	out := make([]models.FraudEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, models.FraudEventResponse{
			ID:          event.ID,
			UserID:      event.UserID,
			Type:        string(event.Type),
			Severity:    string(event.Severity),
			Amount:      event.Amount,
			Description: event.Description,
			Timestamp:   event.Timestamp.Format(time.RFC3339),
		})
	}

	return commons.SuccessResponse("fraud events retrieved", out), nil
}

// logFraudEvent persists the event synchronously: a rejection without its
// FraudEvent on record is not allowed to happen, so persistence failure
// fails the whole check.
func (s *FraudService) logFraudEvent(
	ctx context.Context,
	actor domain.Actor,
	fraudType domain.FraudType,
	severity domain.FraudSeverity,
	amount *decimal.Decimal,
	description string,
) error {
	event := domain.FraudEvent{
		UserID:      actor.UserID,
		Type:        fraudType,
		Severity:    severity,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}

	if _, err := s.fraudEventRepo.Create(ctx, event); err != nil {
		logger.Error("fraud service persist fraud event failed", err, logger.Fields{
			"userId": actor.UserID,
			"type":   fraudType,
		})
		return fmt.Errorf("persist fraud event: %w", err)
	}

	return nil
}
