package models

import (
	"errors"
	"strings"
)

type UpdateAccountStatusRequest struct {
	Status string `json:"status"`
}

func (r UpdateAccountStatusRequest) Validate() error {
	switch strings.ToUpper(strings.TrimSpace(r.Status)) {
	case "ACTIVE", "FROZEN", "CLOSED":
		return nil
	}
	return errors.New("status must be one of ACTIVE, FROZEN, CLOSED")
}
