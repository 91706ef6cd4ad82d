package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
)

type FraudEventRepository struct {
	mu     sync.RWMutex
	events []domain.FraudEvent
}

func NewFraudEventRepository() *FraudEventRepository {
	return &FraudEventRepository{}
}

func (r *FraudEventRepository) Create(_ context.Context, event domain.FraudEvent) (domain.FraudEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = uuid.NewString()
	r.events = append(r.events, event)
	return event, nil
}

func (r *FraudEventRepository) FindAll(_ context.Context) ([]domain.FraudEvent, error) {
	r.mu.RLock()
	out := make([]domain.FraudEvent, len(r.events))
	copy(out, r.events)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
