package models

import "github.com/shopspring/decimal"

type FraudEventResponse struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Type        string           `json:"type"`
	Severity    string           `json:"severity"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description"`
	Timestamp   string           `json:"timestamp"`
}

type AuditLogResponse struct {
	ID        string  `json:"id"`
	Action    string  `json:"action"`
	UserID    *string `json:"userId,omitempty"`
	Details   string  `json:"details"`
	IPAddress *string `json:"ipAddress,omitempty"`
	Timestamp string  `json:"timestamp"`
}
