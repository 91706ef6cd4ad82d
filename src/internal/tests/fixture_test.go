package services_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/usecase/services"
)

type fixture struct {
	accountRepo     *memory.AccountRepository
	transactionRepo *memory.TransactionRepository
	fraudEventRepo  *memory.FraudEventRepository
	auditLogRepo    *memory.AuditLogRepository

	auditService    *services.AuditService
	fraudService    *services.FraudService
	accountService  *services.AccountService
	transferService *services.TransferService
}

type fixtureConfig struct {
	dailyTransferLimit         string
	rapidTransferThreshold     int
	rapidTransferWindowMinutes int
}

func defaultFixtureConfig() fixtureConfig {
	return fixtureConfig{
		dailyTransferLimit:         "10000.00",
		rapidTransferThreshold:     5,
		rapidTransferWindowMinutes: 60,
	}
}

func newFixture(t *testing.T, cfg fixtureConfig) *fixture {
	t.Helper()

	accountRepo := memory.NewAccountRepository()
	transactionRepo := memory.NewTransactionRepository()
	fraudEventRepo := memory.NewFraudEventRepository()
	auditLogRepo := memory.NewAuditLogRepository()

	auditService := services.NewAuditService(auditLogRepo)
	auditService.Start()
	t.Cleanup(auditService.Stop)

	limit, err := decimal.NewFromString(cfg.dailyTransferLimit)
	if err != nil {
		t.Fatalf("parse daily transfer limit: %v", err)
	}

	fraudService := services.NewFraudService(
		fraudEventRepo,
		transactionRepo,
		limit,
		cfg.rapidTransferThreshold,
		cfg.rapidTransferWindowMinutes,
	)

	return &fixture{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		fraudEventRepo:  fraudEventRepo,
		auditLogRepo:    auditLogRepo,
		auditService:    auditService,
		fraudService:    fraudService,
		accountService:  services.NewAccountService(accountRepo, auditService),
		transferService: services.NewTransferService(accountRepo, transactionRepo, fraudService, auditService),
	}
}

func (f *fixture) mustCreateAccount(t *testing.T, ownerUserID, balance string) domain.Account {
	t.Helper()

	amount, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance %q: %v", balance, err)
	}

	account, err := f.accountRepo.Create(context.Background(), domain.Account{
		AccountNumber: nextTestAccountNumber(),
		OwnerUserID:   ownerUserID,
		Balance:       amount,
		Status:        domain.AccountStatusActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	return account
}

func (f *fixture) balanceOf(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	account, err := f.accountRepo.Get(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account %s: %v", accountID, err)
	}
	return account.Balance
}

func (f *fixture) totalBalance(t *testing.T) decimal.Decimal {
	t.Helper()

	accounts, err := f.accountRepo.List(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}

	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}
	return total
}

var testAccountNumberSeq atomic.Int64

// nextTestAccountNumber hands out well-formed, never-colliding account
// numbers so fixtures can seed accounts without going through provisioning.
func nextTestAccountNumber() string {
	return fmt.Sprintf("SE%018d", testAccountNumberSeq.Add(1))
}

func customer(userID string) domain.Actor {
	return domain.Actor{UserID: userID, Role: domain.RoleCustomer}
}

func admin(userID string) domain.Actor {
	return domain.Actor{UserID: userID, Role: domain.RoleAdmin}
}
