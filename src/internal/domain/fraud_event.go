package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FraudType string

const (
	FraudTypeDailyLimitExceeded FraudType = "DAILY_LIMIT_EXCEEDED"
	FraudTypeRapidTransfers     FraudType = "RAPID_TRANSFERS"
	FraudTypeSuspiciousAmount   FraudType = "SUSPICIOUS_AMOUNT"
	FraudTypeAccountAnomaly     FraudType = "ACCOUNT_ANOMALY"
)

type FraudSeverity string

const (
	FraudSeverityLow      FraudSeverity = "LOW"
	FraudSeverityMedium   FraudSeverity = "MEDIUM"
	FraudSeverityHigh     FraudSeverity = "HIGH"
	FraudSeverityCritical FraudSeverity = "CRITICAL"
)

// FraudEvent is written only as the side effect of a rejected or flagged
// transfer, never updated. Amount is nil for events where the attempted
// amount is not meaningful (rapid-transfer rejections).
type FraudEvent struct {
	ID          string
	UserID      string
	Type        FraudType
	Severity    FraudSeverity
	Amount      *decimal.Decimal
	Description string
	Timestamp   time.Time
}
