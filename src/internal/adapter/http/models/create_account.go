package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	// OwnerUserID provisions the account for another identity; only an
	// administrator actor may set it. Empty means the actor themselves.
	OwnerUserID    string           `json:"ownerUserId,omitempty"`
	OpeningBalance *decimal.Decimal `json:"openingBalance,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	if r.OpeningBalance != nil && r.OpeningBalance.IsNegative() {
		errs = append(errs, "openingBalance cannot be negative")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	OwnerUserID   string          `json:"ownerUserId"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}
