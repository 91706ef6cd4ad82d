package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 255

type TransferRequest struct {
	FromAccountNumber string          `json:"fromAccountNumber"`
	ToAccountNumber   string          `json:"toAccountNumber"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description,omitempty"`
}

func (r TransferRequest) Validate() error {
	var errs []string

	if !isAccountNumber(r.FromAccountNumber) {
		errs = append(errs, "fromAccountNumber must be a valid account number")
	}
	if !isAccountNumber(r.ToAccountNumber) {
		errs = append(errs, "toAccountNumber must be a valid account number")
	}
	if strings.TrimSpace(r.FromAccountNumber) == strings.TrimSpace(r.ToAccountNumber) {
		errs = append(errs, "fromAccountNumber and toAccountNumber cannot be the same")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if len(r.Description) > maxDescriptionLength {
		errs = append(errs, "description is too long")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type TransactionResponse struct {
	ID                    string          `json:"id"`
	SenderAccountNumber   string          `json:"senderAccountNumber"`
	ReceiverAccountNumber string          `json:"receiverAccountNumber"`
	Amount                decimal.Decimal `json:"amount"`
	Timestamp             string          `json:"timestamp"`
	Status                string          `json:"status"`
	Description           string          `json:"description"`
}

// Account numbers are IBAN-style: two uppercase letters followed by 2 check
// digits and a 16 digit payload.
func isAccountNumber(value string) bool {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 20 {
		return false
	}
	for i, ch := range trimmed {
		if i < 2 {
			if ch < 'A' || ch > 'Z' {
				return false
			}
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
