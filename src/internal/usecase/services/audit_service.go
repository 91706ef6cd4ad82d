package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/api-sage/core-banking-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/core-banking-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/core-banking-ledger/src/internal/commons"
	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

const auditQueueCapacity = 256
const auditMaxAttempts = 5

// AuditService takes audit writes off the caller's critical path. Record
// assigns the entry its id and enqueues it; a single dispatcher goroutine
// persists entries with bounded retry. Stop closes intake and drains the
// queue, so an accepted entry is never dropped by shutdown. Ids are assigned
// before dispatch and the stores insert idempotently, so redelivery cannot
// duplicate an entry.
type AuditService struct {
	auditLogRepo repo_interfaces.AuditLogRepository

	mu      sync.RWMutex
	queue   chan domain.AuditLog
	stopped bool
	done    chan struct{}
}

func NewAuditService(auditLogRepo repo_interfaces.AuditLogRepository) *AuditService {
	return &AuditService{
		auditLogRepo: auditLogRepo,
		queue:        make(chan domain.AuditLog, auditQueueCapacity),
		done:         make(chan struct{}),
	}
}

// Start launches the dispatcher. Call once, before any Record.
func (s *AuditService) Start() {
	go s.dispatch()
}

func (s *AuditService) Record(action domain.AuditAction, userID *string, details string, ipAddress *string) {
	entry := domain.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		UserID:    userID,
		Details:   details,
		IPAddress: ipAddress,
		Timestamp: time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		// Shutdown already began; persist inline rather than lose the entry.
		s.persist(entry)
		return
	}

	s.queue <- entry
}

// Stop closes intake and blocks until every queued entry has been handed to
// the repository.
func (s *AuditService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
}

func (s *AuditService) ListAuditLogs(ctx context.Context, actor domain.Actor) (commons.Response[[]models.AuditLogResponse], error) {
	if !actor.IsAdmin() {
		err := fmt.Errorf("%w: only admins can view audit logs", domain.ErrAccessDenied)
		return commons.ErrorResponse[[]models.AuditLogResponse]("access denied", err.Error()), err
	}

	entries, err := s.auditLogRepo.FindAll(ctx)
	if err != nil {
		logger.Error("audit service list audit logs failed", err, nil)
		return commons.ErrorResponse[[]models.AuditLogResponse]("failed to list audit logs", "Unable to list audit logs right now"), err
	}

	out := make([]models.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, models.AuditLogResponse{
			ID:        entry.ID,
			Action:    string(entry.Action),
			UserID:    entry.UserID,
			Details:   entry.Details,
			IPAddress: entry.IPAddress,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
		})
	}

	return commons.SuccessResponse("audit logs retrieved", out), nil
}

func (s *AuditService) dispatch() {
	defer close(s.done)

	for entry := range s.queue {
		s.persist(entry)
	}
}

func (s *AuditService) persist(entry domain.AuditLog) {
	ctx := context.Background()

	for attempt := 1; attempt <= auditMaxAttempts; attempt++ {
		if _, err := s.auditLogRepo.Create(ctx, entry); err == nil {
			return
		} else if attempt < auditMaxAttempts {
			logger.Error("audit service persist attempt failed", err, logger.Fields{
				"auditId": entry.ID,
				"action":  entry.Action,
				"attempt": attempt,
			})
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		} else {
			logger.Error("audit service dropped entry after max attempts", err, logger.Fields{
				"auditId": entry.ID,
				"action":  entry.Action,
			})
		}
	}
}
