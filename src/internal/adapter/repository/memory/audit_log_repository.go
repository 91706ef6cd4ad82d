package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

// AuditLogRepository mirrors the postgres store's idempotent insert: entry
// ids are assigned by the audit service before dispatch, and redelivering an
// already-stored id is a no-op.
type AuditLogRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
	seen    map[string]struct{}
}

func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{seen: make(map[string]struct{})}
}

func (r *AuditLogRepository) Create(_ context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.seen[entry.ID]; dup {
		return entry, nil
	}

	r.seen[entry.ID] = struct{}{}
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *AuditLogRepository) FindAll(_ context.Context) ([]domain.AuditLog, error) {
	r.mu.RLock()
	out := make([]domain.AuditLog, len(r.entries))
	copy(out, r.entries)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
