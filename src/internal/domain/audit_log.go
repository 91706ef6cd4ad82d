package domain

import "time"

type AuditAction string

const (
	AuditActionLogin           AuditAction = "LOGIN"
	AuditActionLogout          AuditAction = "LOGOUT"
	AuditActionTransfer        AuditAction = "TRANSFER"
	AuditActionAccountCreated  AuditAction = "ACCOUNT_CREATED"
	AuditActionAccountFrozen   AuditAction = "ACCOUNT_FROZEN"
	AuditActionAccountUnfrozen AuditAction = "ACCOUNT_UNFROZEN"
	AuditActionAccountClosed   AuditAction = "ACCOUNT_CLOSED"
	AuditActionAdminAction     AuditAction = "ADMIN_ACTION"
)

// AuditLog is an append-only record of a security-relevant action, kept
// outside the transfer's own atomic unit. UserID and IPAddress are optional:
// some actions are not attributable to an identity or a network origin.
type AuditLog struct {
	ID        string
	Action    AuditAction
	UserID    *string
	Details   string
	IPAddress *string
	Timestamp time.Time
}
