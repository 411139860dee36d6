package planner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory PlanRepository with the same contract as
// the sqlite store. It backs deployments without a durable database and the
// test suite; it is explicitly constructed and passed, never a process
// global.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]*MealPlanRecord
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]*MealPlanRecord),
	}
}

// CreateRequest stores an immutable request with an absent plan.
func (r *MemoryRepository) CreateRequest(ctx context.Context, ingredients []string, peopleCount int, sourceType SourceType) (string, error) {
	if err := validateRequestInput(peopleCount, sourceType); err != nil {
		return "", err
	}

	id := uuid.NewString()
	copied := make([]string, len(ingredients))
	copy(copied, ingredients)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[id] = &MealPlanRecord{
		Request: MealPlanRequest{
			ID:          id,
			Ingredients: copied,
			PeopleCount: peopleCount,
			SourceType:  sourceType,
		},
		CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

// Lookup returns a copy of the record for id, or ErrNotFound.
func (r *MemoryRepository) Lookup(ctx context.Context, id string) (*MealPlanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := *rec
	return &out, nil
}

// SavePlan attaches the generated document to the stored record.
func (r *MemoryRepository) SavePlan(ctx context.Context, id string, doc *MealPlanDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Plan = doc
	return nil
}
