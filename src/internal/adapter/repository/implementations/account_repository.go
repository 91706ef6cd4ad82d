package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, account_number, owner_user_id, balance, status, version, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"ownerUserId":   account.OwnerUserID,
		"accountNumber": account.AccountNumber,
	})

	const query = `
INSERT INTO accounts (
	account_number,
	owner_user_id,
	balance,
	status
) VALUES ($1, $2, $3, $4)
RETURNING id, version, created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.AccountNumber,
		account.OwnerUserID,
		account.Balance.StringFixed(2),
		account.Status,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			logger.Info("account repository duplicate account number", logger.Fields{
				"accountNumber": account.AccountNumber,
			})
			return domain.Account{}, domain.ErrDuplicateAccountNumber
		}
		logger.Error("account repository create failed", err, logger.Fields{
			"ownerUserId":   account.OwnerUserID,
			"accountNumber": account.AccountNumber,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	logger.Info("account repository create success", logger.Fields{
		"accountId":     account.ID,
		"accountNumber": account.AccountNumber,
	})

	return account, nil
}

func (r *AccountRepository) Get(ctx context.Context, id string) (domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1`

	return r.queryOne(ctx, query, id)
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE account_number = $1`

	return r.queryOne(ctx, query, accountNumber)
}

func (r *AccountRepository) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM accounts
	WHERE account_number = $1
)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&exists); err != nil {
		logger.Error("account repository exists by account number failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return false, fmt.Errorf("check account number exists: %w", err)
	}

	return exists, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
ORDER BY created_at DESC`

	return r.queryMany(ctx, query)
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]domain.Account, error) {
	const query = `
SELECT ` + accountColumns + `
FROM accounts
WHERE owner_user_id = $1
ORDER BY created_at DESC`

	return r.queryMany(ctx, query, ownerUserID)
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) (domain.Account, error) {
	logger.Info("account repository update status", logger.Fields{
		"accountId": id,
		"status":    status,
	})

	const query = `
UPDATE accounts
SET status = $2,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + accountColumns

	account, err := r.queryOne(ctx, query, id, status)
	if err != nil {
		return domain.Account{}, err
	}

	logger.Info("account repository update status success", logger.Fields{
		"accountId": account.ID,
		"status":    account.Status,
	})

	return account, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, update domain.BalanceUpdate) error {
	const query = `
UPDATE accounts
SET balance = $3,
    version = version + 1,
    updated_at = NOW()
WHERE id = $1
  AND version = $2`

	result, err := r.db.ExecContext(ctx, query, update.AccountID, update.ExpectedVersion, update.NewBalance.StringFixed(2))
	if err != nil {
		logger.Error("account repository update balance failed", err, logger.Fields{
			"accountId": update.AccountID,
		})
		return fmt.Errorf("update balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance rows affected: %w", err)
	}
	if affected == 0 {
		return r.versionConflictOrNotFound(ctx, update.AccountID)
	}

	return nil
}

// MoveFunds runs both conditional updates inside one transaction so the
// debit and credit become visible together or not at all. Updates are
// ordered by ascending account id to keep lock acquisition consistent
// across concurrent transfers touching the same account pair.
func (r *AccountRepository) MoveFunds(ctx context.Context, debit domain.BalanceUpdate, credit domain.BalanceUpdate) error {
	logger.Info("account repository move funds", logger.Fields{
		"debitAccountId":  debit.AccountID,
		"creditAccountId": credit.AccountID,
	})

	first, second := debit, credit
	if second.AccountID < first.AccountID {
		first, second = second, first
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move funds tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, update := range []domain.BalanceUpdate{first, second} {
		const query = `
UPDATE accounts
SET balance = $3,
    version = version + 1,
    updated_at = NOW()
WHERE id = $1
  AND version = $2`

		result, err := tx.ExecContext(ctx, query, update.AccountID, update.ExpectedVersion, update.NewBalance.StringFixed(2))
		if err != nil {
			logger.Error("account repository move funds update failed", err, logger.Fields{
				"accountId": update.AccountID,
			})
			return fmt.Errorf("move funds update: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("move funds rows affected: %w", err)
		}
		if affected == 0 {
			return r.versionConflictOrNotFound(ctx, update.AccountID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit move funds tx: %w", err)
	}

	logger.Info("account repository move funds success", logger.Fields{
		"debitAccountId":  debit.AccountID,
		"creditAccountId": credit.AccountID,
	})

	return nil
}

func (r *AccountRepository) versionConflictOrNotFound(ctx context.Context, accountID string) error {
	if _, err := r.Get(ctx, accountID); err != nil {
		return err
	}
	return domain.ErrConcurrencyConflict
}

func (r *AccountRepository) queryOne(ctx context.Context, query string, args ...any) (domain.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository query failed", err, nil)
		return domain.Account{}, fmt.Errorf("query account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) queryMany(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("account repository list failed", err, nil)
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var account domain.Account
	var balance string

	if err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.OwnerUserID,
		&balance,
		&account.Status,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return domain.Account{}, err
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	account.Balance = parsed

	return account, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
