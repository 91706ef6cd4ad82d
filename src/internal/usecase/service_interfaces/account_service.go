package service_interfaces

import (
	"context"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type AccountService interface {
	CreateAccount(ctx context.Context, actor domain.Actor, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error)
	ListAccounts(ctx context.Context, actor domain.Actor) (commons.Response[[]models.AccountResponse], error)
	GetAccount(ctx context.Context, actor domain.Actor, accountNumber string) (commons.Response[models.AccountResponse], error)
	UpdateAccountStatus(ctx context.Context, actor domain.Actor, accountID string, status domain.AccountStatus) (commons.Response[models.AccountResponse], error)
}
