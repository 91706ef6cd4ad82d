package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

func TestTransferFundsSuccess(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "500.00")
	receiver := f.mustCreateAccount(t, "user-2", "100.00")
	totalBefore := f.totalBalance(t)

	resp, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("150.00"),
		Description:       "rent",
	})
	if err != nil {
		t.Fatalf("TransferFunds returned error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got message %q", resp.Message)
	}
	if resp.Data == nil {
		t.Fatal("expected transaction data in response")
	}
	if resp.Data.Status != string(domain.TransactionStatusCompleted) {
		t.Errorf("expected COMPLETED status, got %s", resp.Data.Status)
	}

	if got := f.balanceOf(t, sender.ID); !got.Equal(decimal.RequireFromString("350.00")) {
		t.Errorf("sender balance = %s, want 350.00", got)
	}
	if got := f.balanceOf(t, receiver.ID); !got.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("receiver balance = %s, want 250.00", got)
	}
	if totalAfter := f.totalBalance(t); !totalAfter.Equal(totalBefore) {
		t.Errorf("total balance changed from %s to %s", totalBefore, totalAfter)
	}

	transactions, err := f.transactionRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", len(transactions))
	}
	if transactions[0].Status != domain.TransactionStatusCompleted {
		t.Errorf("ledger row status = %s, want COMPLETED", transactions[0].Status)
	}
	if transactions[0].SenderOwnerID != "user-1" {
		t.Errorf("ledger row sender owner = %s, want user-1", transactions[0].SenderOwnerID)
	}

	f.auditService.Stop()
	entries, err := f.auditLogRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("audit FindAll: %v", err)
	}
	transferEntries := 0
	for _, entry := range entries {
		if entry.Action == domain.AuditActionTransfer {
			transferEntries++
		}
	}
	if transferEntries != 1 {
		t.Errorf("expected exactly one TRANSFER audit entry, got %d", transferEntries)
	}
}

func TestTransferFundsInsufficientBalance(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "50.00")
	receiver := f.mustCreateAccount(t, "user-2", "0.00")

	_, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("50.01"),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if got := f.balanceOf(t, sender.ID); !got.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("sender balance = %s, want unchanged 50.00", got)
	}
	if got := f.balanceOf(t, receiver.ID); !got.IsZero() {
		t.Errorf("receiver balance = %s, want unchanged 0.00", got)
	}

	transactions, err := f.transactionRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	for _, transaction := range transactions {
		if transaction.Status == domain.TransactionStatusCompleted {
			t.Errorf("unexpected COMPLETED ledger row %s", transaction.ID)
		}
	}
}

func TestTransferFundsSameAccountRejected(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())

	account := f.mustCreateAccount(t, "user-1", "100.00")

	_, err := f.transferService.TransferFunds(context.Background(), customer("user-1"), models.TransferRequest{
		FromAccountNumber: account.AccountNumber,
		ToAccountNumber:   account.AccountNumber,
		Amount:            decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransferFundsNonPositiveAmountRejected(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())

	sender := f.mustCreateAccount(t, "user-1", "100.00")
	receiver := f.mustCreateAccount(t, "user-2", "100.00")

	for _, amount := range []string{"0.00", "-5.00"} {
		_, err := f.transferService.TransferFunds(context.Background(), customer("user-1"), models.TransferRequest{
			FromAccountNumber: sender.AccountNumber,
			ToAccountNumber:   receiver.AccountNumber,
			Amount:            decimal.RequireFromString(amount),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("amount %s: expected ErrValidation, got %v", amount, err)
		}
	}
}

func TestTransferFundsInactiveAccounts(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "100.00")
	receiver := f.mustCreateAccount(t, "user-2", "100.00")

	if _, err := f.accountRepo.UpdateStatus(ctx, sender.ID, domain.AccountStatusFrozen); err != nil {
		t.Fatalf("freeze sender: %v", err)
	}
	_, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Fatalf("frozen sender: expected ErrAccountNotActive, got %v", err)
	}

	if _, err := f.accountRepo.UpdateStatus(ctx, sender.ID, domain.AccountStatusActive); err != nil {
		t.Fatalf("reactivate sender: %v", err)
	}
	if _, err := f.accountRepo.UpdateStatus(ctx, receiver.ID, domain.AccountStatusClosed); err != nil {
		t.Fatalf("close receiver: %v", err)
	}
	_, err = f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Fatalf("closed receiver: expected ErrAccountNotActive, got %v", err)
	}
}

func TestTransferFundsUnknownAccount(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())

	sender := f.mustCreateAccount(t, "user-1", "100.00")

	_, err := f.transferService.TransferFunds(context.Background(), customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   "SE000000000000009999",
		Amount:            decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestTransferFundsOwnership(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "100.00")
	receiver := f.mustCreateAccount(t, "user-2", "100.00")

	req := models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("10.00"),
	}

	_, err := f.transferService.TransferFunds(ctx, customer("user-2"), req)
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for non-owner, got %v", err)
	}

	resp, err := f.transferService.TransferFunds(ctx, admin("admin-1"), req)
	if err != nil {
		t.Fatalf("admin transfer returned error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected admin transfer to succeed, got message %q", resp.Message)
	}
}

func TestTransferFundsDailyLimit(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "20000.00")
	receiver := f.mustCreateAccount(t, "user-2", "0.00")

	_, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("15000.00"),
	})
	if !errors.Is(err, domain.ErrFraudRejected) {
		t.Fatalf("expected ErrFraudRejected, got %v", err)
	}

	if got := f.balanceOf(t, sender.ID); !got.Equal(decimal.RequireFromString("20000.00")) {
		t.Errorf("sender balance = %s, want unchanged 20000.00", got)
	}

	events, err := f.fraudEventRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("fraud FindAll: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one fraud event, got %d", len(events))
	}
	event := events[0]
	if event.Type != domain.FraudTypeDailyLimitExceeded {
		t.Errorf("fraud type = %s, want DAILY_LIMIT_EXCEEDED", event.Type)
	}
	if event.Severity != domain.FraudSeverityHigh {
		t.Errorf("fraud severity = %s, want HIGH", event.Severity)
	}
	if event.UserID != "user-1" {
		t.Errorf("fraud user = %s, want user-1", event.UserID)
	}
	if event.Amount == nil || !event.Amount.Equal(decimal.RequireFromString("15000.00")) {
		t.Errorf("fraud amount = %v, want 15000.00", event.Amount)
	}

	transactions, err := f.transactionRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	rejected := 0
	for _, transaction := range transactions {
		if transaction.Status == domain.TransactionStatusRejected {
			rejected++
		}
	}
	if rejected != 1 {
		t.Errorf("expected one REJECTED ledger row, got %d", rejected)
	}

	// A rejected attempt counts nothing toward the daily total, so a
	// within-limit transfer still goes through afterwards.
	resp, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("follow-up transfer returned error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected follow-up transfer to succeed, got message %q", resp.Message)
	}
}

func TestTransferFundsRapidTransfers(t *testing.T) {
	cfg := defaultFixtureConfig()
	cfg.dailyTransferLimit = "1000000.00"
	cfg.rapidTransferThreshold = 3
	f := newFixture(t, cfg)
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "1000.00")
	receiver := f.mustCreateAccount(t, "user-2", "0.00")

	req := models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("1.00"),
	}

	for i := 0; i < 3; i++ {
		if _, err := f.transferService.TransferFunds(ctx, customer("user-1"), req); err != nil {
			t.Fatalf("transfer %d returned error: %v", i+1, err)
		}
	}

	_, err := f.transferService.TransferFunds(ctx, customer("user-1"), req)
	if !errors.Is(err, domain.ErrFraudRejected) {
		t.Fatalf("expected ErrFraudRejected on transfer past threshold, got %v", err)
	}

	events, err := f.fraudEventRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("fraud FindAll: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one fraud event, got %d", len(events))
	}
	if events[0].Type != domain.FraudTypeRapidTransfers {
		t.Errorf("fraud type = %s, want RAPID_TRANSFERS", events[0].Type)
	}
	if events[0].Severity != domain.FraudSeverityMedium {
		t.Errorf("fraud severity = %s, want MEDIUM", events[0].Severity)
	}
	if events[0].Amount != nil {
		t.Errorf("fraud amount = %s, want nil", events[0].Amount)
	}

	// Other users are unaffected by this user's velocity.
	other := f.mustCreateAccount(t, "user-3", "100.00")
	resp, err := f.transferService.TransferFunds(ctx, customer("user-3"), models.TransferRequest{
		FromAccountNumber: other.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("5.00"),
	})
	if err != nil {
		t.Fatalf("other user's transfer returned error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected other user's transfer to succeed, got message %q", resp.Message)
	}
}

func TestConcurrentTransfersConserveFunds(t *testing.T) {
	cfg := defaultFixtureConfig()
	cfg.dailyTransferLimit = "1000000.00"
	cfg.rapidTransferThreshold = 1000
	f := newFixture(t, cfg)
	ctx := context.Background()

	first := f.mustCreateAccount(t, "user-1", "1000.00")
	second := f.mustCreateAccount(t, "user-2", "1000.00")
	totalBefore := f.totalBalance(t)

	amount := decimal.RequireFromString("10.00")
	const transfersPerDirection = 20

	var group errgroup.Group
	for i := 0; i < transfersPerDirection; i++ {
		group.Go(func() error {
			_, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
				FromAccountNumber: first.AccountNumber,
				ToAccountNumber:   second.AccountNumber,
				Amount:            amount,
			})
			if err != nil && !errors.Is(err, domain.ErrConcurrencyConflict) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			_, err := f.transferService.TransferFunds(ctx, customer("user-2"), models.TransferRequest{
				FromAccountNumber: second.AccountNumber,
				ToAccountNumber:   first.AccountNumber,
				Amount:            amount,
			})
			if err != nil && !errors.Is(err, domain.ErrConcurrencyConflict) {
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent transfer failed: %v", err)
	}

	if totalAfter := f.totalBalance(t); !totalAfter.Equal(totalBefore) {
		t.Fatalf("total balance changed from %s to %s", totalBefore, totalAfter)
	}

	firstBalance := f.balanceOf(t, first.ID)
	secondBalance := f.balanceOf(t, second.ID)
	if firstBalance.IsNegative() || secondBalance.IsNegative() {
		t.Fatalf("balance went negative: %s / %s", firstBalance, secondBalance)
	}

	// The ledger's COMPLETED rows must explain the final balances exactly.
	transactions, err := f.transactionRepo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	expectedFirst := decimal.RequireFromString("1000.00")
	for _, transaction := range transactions {
		if transaction.Status != domain.TransactionStatusCompleted {
			continue
		}
		switch transaction.SenderAccountNumber {
		case first.AccountNumber:
			expectedFirst = expectedFirst.Sub(transaction.Amount)
		case second.AccountNumber:
			expectedFirst = expectedFirst.Add(transaction.Amount)
		}
	}
	if !firstBalance.Equal(expectedFirst) {
		t.Errorf("first account balance = %s, ledger implies %s", firstBalance, expectedFirst)
	}
}

func TestGetTransactionHistory(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "500.00")
	receiver := f.mustCreateAccount(t, "user-2", "0.00")

	for _, amount := range []string{"10.00", "20.00"} {
		if _, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
			FromAccountNumber: sender.AccountNumber,
			ToAccountNumber:   receiver.AccountNumber,
			Amount:            decimal.RequireFromString(amount),
		}); err != nil {
			t.Fatalf("seed transfer of %s: %v", amount, err)
		}
	}

	resp, err := f.transferService.GetTransactionHistory(ctx, customer("user-1"), sender.ID)
	if err != nil {
		t.Fatalf("GetTransactionHistory returned error: %v", err)
	}
	history := *resp.Data
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	if !history[0].Amount.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("newest row amount = %s, want 20.00 first", history[0].Amount)
	}

	// The receiver's owner sees the same rows through their own account.
	resp, err = f.transferService.GetTransactionHistory(ctx, customer("user-2"), receiver.ID)
	if err != nil {
		t.Fatalf("receiver history returned error: %v", err)
	}
	if len(*resp.Data) != 2 {
		t.Errorf("expected 2 rows for receiver, got %d", len(*resp.Data))
	}

	if _, err := f.transferService.GetTransactionHistory(ctx, customer("user-2"), sender.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for foreign account, got %v", err)
	}
	if _, err := f.transferService.GetTransactionHistory(ctx, admin("admin-1"), sender.ID); err != nil {
		t.Fatalf("admin history returned error: %v", err)
	}
	if _, err := f.transferService.GetTransactionHistory(ctx, customer("user-1"), "missing-id"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for unknown account, got %v", err)
	}
}

func TestGetTransactionsBetween(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "100.00")
	receiver := f.mustCreateAccount(t, "user-2", "0.00")
	if _, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("25.00"),
	}); err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	now := time.Now().UTC()

	if _, err := f.transferService.GetTransactionsBetween(ctx, customer("user-1"), now.Add(-time.Hour), now); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for customer, got %v", err)
	}
	if _, err := f.transferService.GetTransactionsBetween(ctx, admin("admin-1"), now, now.Add(-time.Hour)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for inverted window, got %v", err)
	}

	resp, err := f.transferService.GetTransactionsBetween(ctx, admin("admin-1"), now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("GetTransactionsBetween returned error: %v", err)
	}
	if len(*resp.Data) != 1 {
		t.Errorf("expected 1 transaction inside window, got %d", len(*resp.Data))
	}

	resp, err = f.transferService.GetTransactionsBetween(ctx, admin("admin-1"), now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetTransactionsBetween returned error: %v", err)
	}
	if len(*resp.Data) != 0 {
		t.Errorf("expected no transactions outside window, got %d", len(*resp.Data))
	}
}

func TestGetAllTransactionsAdminOnly(t *testing.T) {
	f := newFixture(t, defaultFixtureConfig())
	ctx := context.Background()

	sender := f.mustCreateAccount(t, "user-1", "100.00")
	receiver := f.mustCreateAccount(t, "user-2", "0.00")
	if _, err := f.transferService.TransferFunds(ctx, customer("user-1"), models.TransferRequest{
		FromAccountNumber: sender.AccountNumber,
		ToAccountNumber:   receiver.AccountNumber,
		Amount:            decimal.RequireFromString("25.00"),
	}); err != nil {
		t.Fatalf("seed transfer: %v", err)
	}

	if _, err := f.transferService.GetAllTransactions(ctx, customer("user-1")); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for customer, got %v", err)
	}

	resp, err := f.transferService.GetAllTransactions(ctx, admin("admin-1"))
	if err != nil {
		t.Fatalf("GetAllTransactions returned error: %v", err)
	}
	if len(*resp.Data) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(*resp.Data))
	}
}
