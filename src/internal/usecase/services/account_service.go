package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
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

const accountNumberCountryCode = "SE"

// Number generation is rejection sampling over an 18 digit space. Collisions
// are astronomically unlikely at any realistic account count, so the cap
// exists only to turn a broken randomness source into a loud failure instead
// of a spin.
const maxAccountNumberAttempts = 10

type AccountService struct {
	accountRepo  repo_interfaces.AccountRepository
	auditService service_interfaces.AuditService
}

func NewAccountService(
	accountRepo repo_interfaces.AccountRepository,
	auditService service_interfaces.AuditService,
) *AccountService {
	return &AccountService{
		accountRepo:  accountRepo,
		auditService: auditService,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, actor domain.Actor, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"actorUserId": actor.UserID,
		"payload":     logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		wrapped := fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), wrapped
	}

	ownerUserID := strings.TrimSpace(req.OwnerUserID)
	if ownerUserID == "" {
		ownerUserID = actor.UserID
	}
	if ownerUserID != actor.UserID && !actor.IsAdmin() {
		err := fmt.Errorf("%w: only admins can create accounts for other users", domain.ErrAccessDenied)
		return commons.ErrorResponse[models.AccountResponse]("access denied", err.Error()), err
	}

	openingBalance := decimal.Zero
	if req.OpeningBalance != nil {
		openingBalance = *req.OpeningBalance
	}

	created, err := s.provision(ctx, ownerUserID, openingBalance)
	if err != nil {
		logger.Error("account service create account failed", err, logger.Fields{
			"actorUserId": actor.UserID,
			"ownerUserId": ownerUserID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	actorID := actor.UserID
	s.auditService.Record(domain.AuditActionAccountCreated, &actorID,
		"Account created: "+created.AccountNumber, nil)

	logger.Info("account service create account success", logger.Fields{
		"accountId":     created.ID,
		"accountNumber": created.AccountNumber,
		"ownerUserId":   created.OwnerUserID,
	})

	return commons.SuccessResponse("account created successfully", toAccountResponse(created)), nil
}

func (s *AccountService) ListAccounts(ctx context.Context, actor domain.Actor) (commons.Response[[]models.AccountResponse], error) {
	var accounts []domain.Account
	var err error

	if actor.IsAdmin() {
		accounts, err = s.accountRepo.List(ctx)
	} else {
		accounts, err = s.accountRepo.ListByOwner(ctx, actor.UserID)
	}
	if err != nil {
		logger.Error("account service list accounts failed", err, logger.Fields{
			"actorUserId": actor.UserID,
		})
		return commons.ErrorResponse[[]models.AccountResponse]("failed to list accounts", "Unable to list accounts right now"), err
	}

	out := make([]models.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, toAccountResponse(account))
	}

	return commons.SuccessResponse("accounts retrieved", out), nil
}

func (s *AccountService) GetAccount(ctx context.Context, actor domain.Actor, accountNumber string) (commons.Response[models.AccountResponse], error) {
	account, err := s.accountRepo.GetByAccountNumber(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		logger.Error("account service get account failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to get account right now"), err
	}

	if account.OwnerUserID != actor.UserID && !actor.IsAdmin() {
		err := fmt.Errorf("%w: account belongs to another user", domain.ErrAccessDenied)
		return commons.ErrorResponse[models.AccountResponse]("access denied", err.Error()), err
	}

	return commons.SuccessResponse("account retrieved", toAccountResponse(account)), nil
}

func (s *AccountService) UpdateAccountStatus(ctx context.Context, actor domain.Actor, accountID string, status domain.AccountStatus) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service update account status request", logger.Fields{
		"actorUserId": actor.UserID,
		"accountId":   accountID,
		"status":      status,
	})

	if !actor.IsAdmin() {
		err := fmt.Errorf("%w: only admins can update account status", domain.ErrAccessDenied)
		return commons.ErrorResponse[models.AccountResponse]("access denied", err.Error()), err
	}
	if !domain.IsValidAccountStatus(status) {
		err := fmt.Errorf("%w: unknown account status %q", domain.ErrValidation, status)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	current, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.AccountResponse]("failed to update account status", "Unable to update account status right now"), err
	}

	// CLOSED is terminal; the record stays for audit continuity but its
	// status never changes again.
	if current.Status == domain.AccountStatusClosed {
		err := fmt.Errorf("%w: closed accounts cannot change status", domain.ErrValidation)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	updated, err := s.accountRepo.UpdateStatus(ctx, accountID, status)
	if err != nil {
		logger.Error("account service update account status failed", err, logger.Fields{
			"accountId": accountID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to update account status", "Unable to update account status right now"), err
	}

	actorID := actor.UserID
	s.auditService.Record(statusAuditAction(status), &actorID,
		fmt.Sprintf("Account %s status changed from %s to %s", updated.AccountNumber, current.Status, status), nil)

	return commons.SuccessResponse("account status updated", toAccountResponse(updated)), nil
}

func (s *AccountService) provision(ctx context.Context, ownerUserID string, openingBalance decimal.Decimal) (domain.Account, error) {
	for attempt := 1; attempt <= maxAccountNumberAttempts; attempt++ {
		accountNumber, err := generateAccountNumber()
		if err != nil {
			return domain.Account{}, err
		}

		exists, err := s.accountRepo.ExistsByAccountNumber(ctx, accountNumber)
		if err != nil {
			return domain.Account{}, err
		}
		if exists {
			continue
		}

		created, err := s.accountRepo.Create(ctx, domain.Account{
			AccountNumber: accountNumber,
			OwnerUserID:   ownerUserID,
			Balance:       openingBalance,
			Status:        domain.AccountStatusActive,
		})
		if err == nil {
			return created, nil
		}
		// Another request won the race for this number between the
		// existence check and the insert; sample again.
		if errors.Is(err, domain.ErrDuplicateAccountNumber) {
			continue
		}
		return domain.Account{}, err
	}

	return domain.Account{}, fmt.Errorf("exhausted %d account number generation attempts", maxAccountNumberAttempts)
}

func statusAuditAction(status domain.AccountStatus) domain.AuditAction {
	switch status {
	case domain.AccountStatusFrozen:
		return domain.AuditActionAccountFrozen
	case domain.AccountStatusClosed:
		return domain.AuditActionAccountClosed
	default:
		return domain.AuditActionAccountUnfrozen
	}
}

func toAccountResponse(account domain.Account) models.AccountResponse {
	return models.AccountResponse{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		OwnerUserID:   account.OwnerUserID,
		Balance:       account.Balance,
		Status:        string(account.Status),
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     account.UpdatedAt.Format(time.RFC3339),
	}
}

var accountNumberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func generateAccountNumber() (string, error) {
	payload, err := rand.Int(rand.Reader, accountNumberSpace)
	if err != nil {
		return "", fmt.Errorf("generate account number payload: %w", err)
	}
	return fmt.Sprintf("%s%018d", accountNumberCountryCode, payload), nil
}
