package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

// AccountRepository is the in-memory account store. Each account carries its
// own mutex; two-account moves lock both in ascending id order so transfers
// over the same pair in opposite directions cannot deadlock.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry
	byNumber map[string]string
}

type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*accountEntry),
		byNumber: make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNumber[account.AccountNumber]; exists {
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	}

	now := time.Now().UTC()
	account.ID = uuid.NewString()
	account.Version = 1
	account.CreatedAt = now
	account.UpdatedAt = now

	r.accounts[account.ID] = &accountEntry{account: account}
	r.byNumber[account.AccountNumber] = account.ID

	return account, nil
}

func (r *AccountRepository) Get(_ context.Context, id string) (domain.Account, error) {
	entry, err := r.entryByID(id)
	if err != nil {
		return domain.Account{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

func (r *AccountRepository) GetByAccountNumber(_ context.Context, accountNumber string) (domain.Account, error) {
	r.mu.RLock()
	id, ok := r.byNumber[accountNumber]
	r.mu.RUnlock()
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}

	entry, err := r.entryByID(id)
	if err != nil {
		return domain.Account{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

func (r *AccountRepository) ExistsByAccountNumber(_ context.Context, accountNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byNumber[accountNumber]
	return ok, nil
}

func (r *AccountRepository) List(_ context.Context) ([]domain.Account, error) {
	return r.collect(func(domain.Account) bool { return true }), nil
}

func (r *AccountRepository) ListByOwner(_ context.Context, ownerUserID string) ([]domain.Account, error) {
	return r.collect(func(account domain.Account) bool {
		return account.OwnerUserID == ownerUserID
	}), nil
}

func (r *AccountRepository) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	entry, err := r.entryByID(id)
	if err != nil {
		return domain.Account{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.account.Status = status
	entry.account.UpdatedAt = time.Now().UTC()
	return entry.account, nil
}

func (r *AccountRepository) UpdateBalance(_ context.Context, update domain.BalanceUpdate) error {
	entry, err := r.entryByID(update.AccountID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.account.Version != update.ExpectedVersion {
		return domain.ErrConcurrencyConflict
	}

	applyBalance(entry, update.NewBalance)
	return nil
}

func (r *AccountRepository) MoveFunds(_ context.Context, debit domain.BalanceUpdate, credit domain.BalanceUpdate) error {
	debitEntry, err := r.entryByID(debit.AccountID)
	if err != nil {
		return err
	}
	creditEntry, err := r.entryByID(credit.AccountID)
	if err != nil {
		return err
	}

	first, second := debitEntry, creditEntry
	if creditEntry.account.ID < debitEntry.account.ID {
		first, second = creditEntry, debitEntry
	}

	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	// Validate both versions before touching either balance so a lost race
	// on one side never leaves the other side applied.
	if debitEntry.account.Version != debit.ExpectedVersion ||
		creditEntry.account.Version != credit.ExpectedVersion {
		return domain.ErrConcurrencyConflict
	}

	applyBalance(debitEntry, debit.NewBalance)
	applyBalance(creditEntry, credit.NewBalance)
	return nil
}

func (r *AccountRepository) entryByID(id string) (*accountEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return entry, nil
}

func (r *AccountRepository) collect(match func(domain.Account) bool) []domain.Account {
	r.mu.RLock()
	entries := make([]*accountEntry, 0, len(r.accounts))
	for _, entry := range r.accounts {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		account := entry.account
		entry.mu.Unlock()
		if match(account) {
			accounts = append(accounts, account)
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})

	return accounts
}

func applyBalance(entry *accountEntry, newBalance decimal.Decimal) {
	entry.account.Balance = newBalance
	entry.account.Version++
	entry.account.UpdatedAt = time.Now().UTC()
}
