package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/service_interfaces"
)

// Balance moves are versioned compare-and-sets; a lost race re-reads both
// accounts, re-validates and tries again this many times before the attempt
// surfaces as a transient failure.
const maxMoveFundsAttempts = 3

type TransferService struct {
	accountRepo     repo_interfaces.AccountRepository
	transactionRepo repo_interfaces.TransactionRepository
	fraudService    service_interfaces.FraudService
	auditService    service_interfaces.AuditService
}

func NewTransferService(
	accountRepo repo_interfaces.AccountRepository,
	transactionRepo repo_interfaces.TransactionRepository,
	fraudService service_interfaces.FraudService,
	auditService service_interfaces.AuditService,
) *TransferService {
	return &TransferService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		fraudService:    fraudService,
		auditService:    auditService,
	}
}

// TransferFunds moves money between two accounts. Order of operations:
// rapid-transfer check, daily-limit check, account resolution,
// authorization, validation, atomic balance move, ledger record, audit.
// Nothing before the balance move mutates any state except the FraudEvent
// and REJECTED ledger row written on a fraud rejection.
func (s *TransferService) TransferFunds(ctx context.Context, actor domain.Actor, req models.TransferRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transfer service transfer request", logger.Fields{
		"actorUserId": actor.UserID,
		"payload":     logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		wrapped := fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), wrapped
	}

	fromNumber := strings.TrimSpace(req.FromAccountNumber)
	toNumber := strings.TrimSpace(req.ToAccountNumber)
	amount := req.Amount
	description := strings.TrimSpace(req.Description)

	rapidOK, err := s.fraudService.CheckRapidTransfers(ctx, actor)
	if err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}
	if !rapidOK {
		s.recordRejected(ctx, actor, fromNumber, toNumber, amount, "Rejected: rapid transfer pattern")
		err := fmt.Errorf("%w: rapid transfer detected", domain.ErrFraudRejected)
		return commons.ErrorResponse[models.TransactionResponse]("transfer rejected", err.Error()), err
	}

	dailyOK, err := s.fraudService.CheckDailyLimit(ctx, actor, amount)
	if err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}
	if !dailyOK {
		s.recordRejected(ctx, actor, fromNumber, toNumber, amount, "Rejected: daily limit exceeded")
		err := fmt.Errorf("%w: daily limit exceeded", domain.ErrFraudRejected)
		return commons.ErrorResponse[models.TransactionResponse]("transfer rejected", err.Error()), err
	}

	sender, err := s.accountRepo.GetByAccountNumber(ctx, fromNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse]("Sender account not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}
	receiver, err := s.accountRepo.GetByAccountNumber(ctx, toNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse]("Receiver account not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transfer", "Unable to process transfer right now"), err
	}

	if sender.OwnerUserID != actor.UserID && !actor.IsAdmin() {
		err := fmt.Errorf("%w: you can only transfer from your own accounts", domain.ErrAccessDenied)
		return commons.ErrorResponse[models.TransactionResponse]("access denied", err.Error()), err
	}

	if err := validateTransfer(sender, receiver, amount); err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("transfer validation failed", err.Error()), err
	}

	if err := s.applyTransfer(ctx, &sender, &receiver, amount); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			return commons.ErrorResponse[models.TransactionResponse]("transfer conflicted", "Account was modified concurrently, please retry"), err
		}
		logger.Error("transfer service apply failed", err, logger.Fields{
			"fromAccountNumber": fromNumber,
			"toAccountNumber":   toNumber,
		})
		return commons.ErrorResponse[models.TransactionResponse]("transfer failed", err.Error()), err
	}

	transaction := domain.Transaction{
		SenderAccountNumber:   sender.AccountNumber,
		ReceiverAccountNumber: receiver.AccountNumber,
		SenderOwnerID:         sender.OwnerUserID,
		Amount:                amount,
		Timestamp:             time.Now().UTC(),
		Status:                domain.TransactionStatusCompleted,
		Description:           description,
	}

	recorded, err := s.transactionRepo.Create(ctx, transaction)
	if err != nil {
		// The balances moved but the ledger write failed; undo the move so
		// the applied/recorded pair stays all-or-nothing.
		s.compensate(ctx, sender.ID, receiver.ID, amount)
		logger.Error("transfer service ledger record failed, move reverted", err, logger.Fields{
			"fromAccountNumber": fromNumber,
			"toAccountNumber":   toNumber,
		})
		return commons.ErrorResponse[models.TransactionResponse]("transfer failed", "Unable to record transfer"), err
	}

	actorID := actor.UserID
	s.auditService.Record(domain.AuditActionTransfer, &actorID,
		fmt.Sprintf("Transfer: %s from %s to %s", amount.StringFixed(2), fromNumber, toNumber), nil)

	logger.Info("transfer service transfer success", logger.Fields{
		"transactionId":     recorded.ID,
		"fromAccountNumber": fromNumber,
		"toAccountNumber":   toNumber,
		"amount":            amount.StringFixed(2),
	})

	return commons.SuccessResponse("Transaction successful", toTransactionResponse(recorded)), nil
}

func (s *TransferService) GetTransactionHistory(ctx context.Context, actor domain.Actor, accountID string) (commons.Response[[]models.TransactionResponse], error) {
	account, err := s.accountRepo.Get(ctx, strings.TrimSpace(accountID))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[[]models.TransactionResponse]("Account not found"), err
		}
		return commons.ErrorResponse[[]models.TransactionResponse]("failed to get history", "Unable to get history right now"), err
	}

	if account.OwnerUserID != actor.UserID && !actor.IsAdmin() {
		err := fmt.Errorf("%w: account belongs to another user", domain.ErrAccessDenied)
		return commons.ErrorResponse[[]models.TransactionResponse]("access denied", err.Error()), err
	}

	transactions, err := s.transactionRepo.FindByAccountNumber(ctx, account.AccountNumber)
	if err != nil {
		logger.Error("transfer service history query failed", err, logger.Fields{
			"accountId": accountID,
		})
		return commons.ErrorResponse[[]models.TransactionResponse]("failed to get history", "Unable to get history right now"), err
	}

	return commons.SuccessResponse("transaction history retrieved", toTransactionResponses(transactions)), nil
}

func (s *TransferService) GetAllTransactions(ctx context.Context, actor domain.Actor) (commons.Response[[]models.TransactionResponse], error) {
	if !actor.IsAdmin() {
		err := fmt.Errorf("%w: only admins can view all transactions", domain.ErrAccessDenied)
		return commons.ErrorResponse[[]models.TransactionResponse]("access denied", err.Error()), err
	}

	transactions, err := s.transactionRepo.FindAll(ctx)
	if err != nil {
		logger.Error("transfer service list all transactions failed", err, nil)
		return commons.ErrorResponse[[]models.TransactionResponse]("failed to list transactions", "Unable to list transactions right now"), err
	}

	return commons.SuccessResponse("transactions retrieved", toTransactionResponses(transactions)), nil
}

// GetTransactionsBetween is the windowed variant of GetAllTransactions, for
// reporting over a bounded period.
func (s *TransferService) GetTransactionsBetween(ctx context.Context, actor domain.Actor, start, end time.Time) (commons.Response[[]models.TransactionResponse], error) {
	if !actor.IsAdmin() {
		err := fmt.Errorf("%w: only admins can view all transactions", domain.ErrAccessDenied)
		return commons.ErrorResponse[[]models.TransactionResponse]("access denied", err.Error()), err
	}
	if end.Before(start) {
		err := fmt.Errorf("%w: window end precedes start", domain.ErrValidation)
		return commons.ErrorResponse[[]models.TransactionResponse]("validation failed", err.Error()), err
	}

	transactions, err := s.transactionRepo.FindBetween(ctx, start, end)
	if err != nil {
		logger.Error("transfer service windowed transaction query failed", err, logger.Fields{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		})
		return commons.ErrorResponse[[]models.TransactionResponse]("failed to list transactions", "Unable to list transactions right now"), err
	}

	return commons.SuccessResponse("transactions retrieved", toTransactionResponses(transactions)), nil
}

// applyTransfer debits sender and credits receiver as one atomic unit,
// retrying lost compare-and-set races with fresh reads. The passed accounts
// are updated in place so the caller sees the state that was applied.
func (s *TransferService) applyTransfer(ctx context.Context, sender, receiver *domain.Account, amount decimal.Decimal) error {
	for attempt := 1; attempt <= maxMoveFundsAttempts; attempt++ {
		debit := domain.BalanceUpdate{
			AccountID:       sender.ID,
			ExpectedVersion: sender.Version,
			NewBalance:      sender.Balance.Sub(amount),
		}
		credit := domain.BalanceUpdate{
			AccountID:       receiver.ID,
			ExpectedVersion: receiver.Version,
			NewBalance:      receiver.Balance.Add(amount),
		}

		err := s.accountRepo.MoveFunds(ctx, debit, credit)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}

		logger.Info("transfer service move funds conflicted, retrying", logger.Fields{
			"senderAccountId":   sender.ID,
			"receiverAccountId": receiver.ID,
			"attempt":           attempt,
		})

		fresh, err := s.accountRepo.Get(ctx, sender.ID)
		if err != nil {
			return err
		}
		*sender = fresh

		fresh, err = s.accountRepo.Get(ctx, receiver.ID)
		if err != nil {
			return err
		}
		*receiver = fresh

		// Concurrent transfers may have invalidated the earlier checks.
		if err := validateTransfer(*sender, *receiver, amount); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: exhausted %d balance move attempts", domain.ErrConcurrencyConflict, maxMoveFundsAttempts)
}

// compensate reverses an applied balance move after a ledger write failure.
// Best effort with fresh versions; giving up is logged loudly because it
// means manual reconciliation.
func (s *TransferService) compensate(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) {
	for attempt := 1; attempt <= maxMoveFundsAttempts; attempt++ {
		sender, err := s.accountRepo.Get(ctx, senderID)
		if err != nil {
			break
		}
		receiver, err := s.accountRepo.Get(ctx, receiverID)
		if err != nil {
			break
		}

		err = s.accountRepo.MoveFunds(ctx,
			domain.BalanceUpdate{
				AccountID:       receiver.ID,
				ExpectedVersion: receiver.Version,
				NewBalance:      receiver.Balance.Sub(amount),
			},
			domain.BalanceUpdate{
				AccountID:       sender.ID,
				ExpectedVersion: sender.Version,
				NewBalance:      sender.Balance.Add(amount),
			},
		)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			break
		}
	}

	logger.Error("transfer service compensation failed", nil, logger.Fields{
		"senderAccountId":   senderID,
		"receiverAccountId": receiverID,
		"amount":            amount.StringFixed(2),
	})
}

// recordRejected leaves a REJECTED ledger row for a fraud-refused attempt so
// rejected traffic stays visible to reporting. The FraudEvent is the
// authoritative record; a failure here is logged but does not mask the
// rejection.
func (s *TransferService) recordRejected(ctx context.Context, actor domain.Actor, fromNumber, toNumber string, amount decimal.Decimal, reason string) {
	_, err := s.transactionRepo.Create(ctx, domain.Transaction{
		SenderAccountNumber:   fromNumber,
		ReceiverAccountNumber: toNumber,
		SenderOwnerID:         actor.UserID,
		Amount:                amount,
		Timestamp:             time.Now().UTC(),
		Status:                domain.TransactionStatusRejected,
		Description:           reason,
	})
	if err != nil {
		logger.Error("transfer service record rejected attempt failed", err, logger.Fields{
			"actorUserId":       actor.UserID,
			"fromAccountNumber": fromNumber,
		})
	}
}

func validateTransfer(sender, receiver domain.Account, amount decimal.Decimal) error {
	if sender.ID == receiver.ID {
		return fmt.Errorf("%w: cannot transfer to the same account", domain.ErrValidation)
	}
	if sender.Status != domain.AccountStatusActive {
		return fmt.Errorf("%w: sender account is not active", domain.ErrAccountNotActive)
	}
	if receiver.Status != domain.AccountStatusActive {
		return fmt.Errorf("%w: receiver account is not active", domain.ErrAccountNotActive)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: transfer amount must be positive", domain.ErrValidation)
	}
	if sender.Balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	return nil
}

func toTransactionResponse(transaction domain.Transaction) models.TransactionResponse {
	return models.TransactionResponse{
		ID:                    transaction.ID,
		SenderAccountNumber:   transaction.SenderAccountNumber,
		ReceiverAccountNumber: transaction.ReceiverAccountNumber,
		Amount:                transaction.Amount,
		Timestamp:             transaction.Timestamp.Format(time.RFC3339),
		Status:                string(transaction.Status),
		Description:           transaction.Description,
	}
}

func toTransactionResponses(transactions []domain.Transaction) []models.TransactionResponse {
	out := make([]models.TransactionResponse, 0, len(transactions))
	for _, transaction := range transactions {
		out = append(out, toTransactionResponse(transaction))
	}
	return out
}
