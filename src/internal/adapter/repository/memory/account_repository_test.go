package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

func seedAccount(t *testing.T, repo *AccountRepository, number, balance string) domain.Account {
	t.Helper()

	account, err := repo.Create(context.Background(), domain.Account{
		AccountNumber: number,
		OwnerUserID:   "user-1",
		Balance:       decimal.RequireFromString(balance),
		Status:        domain.AccountStatusActive,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func TestCreateRejectsDuplicateAccountNumber(t *testing.T) {
	repo := NewAccountRepository()
	seedAccount(t, repo, "SE000000000000000001", "0.00")

	_, err := repo.Create(context.Background(), domain.Account{
		AccountNumber: "SE000000000000000001",
		OwnerUserID:   "user-2",
	})
	if !errors.Is(err, domain.ErrDuplicateAccountNumber) {
		t.Fatalf("expected ErrDuplicateAccountNumber, got %v", err)
	}
}

func TestUpdateBalanceVersionConflict(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	account := seedAccount(t, repo, "SE000000000000000001", "100.00")

	err := repo.UpdateBalance(ctx, domain.BalanceUpdate{
		AccountID:       account.ID,
		ExpectedVersion: account.Version + 1,
		NewBalance:      decimal.RequireFromString("50.00"),
	})
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	current, err := repo.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !current.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("balance = %s, want unchanged 100.00", current.Balance)
	}
	if current.Version != account.Version {
		t.Errorf("version = %d, want unchanged %d", current.Version, account.Version)
	}
}

func TestMoveFundsAppliesBothSidesOrNeither(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	sender := seedAccount(t, repo, "SE000000000000000001", "100.00")
	receiver := seedAccount(t, repo, "SE000000000000000002", "10.00")

	err := repo.MoveFunds(ctx,
		domain.BalanceUpdate{AccountID: sender.ID, ExpectedVersion: sender.Version, NewBalance: decimal.RequireFromString("70.00")},
		domain.BalanceUpdate{AccountID: receiver.ID, ExpectedVersion: receiver.Version, NewBalance: decimal.RequireFromString("40.00")},
	)
	if err != nil {
		t.Fatalf("MoveFunds returned error: %v", err)
	}

	updatedSender, _ := repo.Get(ctx, sender.ID)
	updatedReceiver, _ := repo.Get(ctx, receiver.ID)
	if !updatedSender.Balance.Equal(decimal.RequireFromString("70.00")) {
		t.Errorf("sender balance = %s, want 70.00", updatedSender.Balance)
	}
	if !updatedReceiver.Balance.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("receiver balance = %s, want 40.00", updatedReceiver.Balance)
	}
	if updatedSender.Version != sender.Version+1 || updatedReceiver.Version != receiver.Version+1 {
		t.Errorf("versions = %d/%d, want both incremented", updatedSender.Version, updatedReceiver.Version)
	}

	// A stale version on either side leaves both untouched.
	err = repo.MoveFunds(ctx,
		domain.BalanceUpdate{AccountID: sender.ID, ExpectedVersion: sender.Version, NewBalance: decimal.RequireFromString("0.00")},
		domain.BalanceUpdate{AccountID: receiver.ID, ExpectedVersion: updatedReceiver.Version, NewBalance: decimal.RequireFromString("110.00")},
	)
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	afterSender, _ := repo.Get(ctx, sender.ID)
	afterReceiver, _ := repo.Get(ctx, receiver.ID)
	if !afterSender.Balance.Equal(decimal.RequireFromString("70.00")) {
		t.Errorf("sender balance = %s after failed move, want 70.00", afterSender.Balance)
	}
	if !afterReceiver.Balance.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("receiver balance = %s after failed move, want 40.00", afterReceiver.Balance)
	}
}

func TestMoveFundsOppositeDirectionsNoDeadlock(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	first := seedAccount(t, repo, "SE000000000000000001", "1000.00")
	second := seedAccount(t, repo, "SE000000000000000002", "1000.00")

	amount := decimal.RequireFromString("1.00")
	move := func(fromID, toID string) error {
		for {
			from, err := repo.Get(ctx, fromID)
			if err != nil {
				return err
			}
			to, err := repo.Get(ctx, toID)
			if err != nil {
				return err
			}

			err = repo.MoveFunds(ctx,
				domain.BalanceUpdate{AccountID: from.ID, ExpectedVersion: from.Version, NewBalance: from.Balance.Sub(amount)},
				domain.BalanceUpdate{AccountID: to.ID, ExpectedVersion: to.Version, NewBalance: to.Balance.Add(amount)},
			)
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				continue
			}
			return err
		}
	}

	var group errgroup.Group
	for i := 0; i < 50; i++ {
		group.Go(func() error { return move(first.ID, second.ID) })
		group.Go(func() error { return move(second.ID, first.ID) })
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent MoveFunds failed: %v", err)
	}

	updatedFirst, _ := repo.Get(ctx, first.ID)
	updatedSecond, _ := repo.Get(ctx, second.ID)
	total := updatedFirst.Balance.Add(updatedSecond.Balance)
	if !total.Equal(decimal.RequireFromString("2000.00")) {
		t.Fatalf("total balance = %s, want 2000.00", total)
	}
	if !updatedFirst.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("first balance = %s, want 1000.00 after symmetric traffic", updatedFirst.Balance)
	}
}
