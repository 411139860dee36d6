package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"receipt-meal-planner/internal/shared"

	"go.uber.org/zap"
)

// DemoIngredients is the built-in demonstration pantry used when no record
// store is reachable, so the pipeline stays exercisable without external
// state. Plans generated from it are never cached.
var DemoIngredients = []string{
	"Chicken breast 1lb",
	"Brown rice 2lb bag",
	"Broccoli 1 bunch",
	"Bell peppers 3ct",
	"Onions 3ct",
	"Eggs 12ct",
	"Milk 1 gallon",
	"Bread whole wheat",
	"Spinach 10oz bag",
	"Tomatoes 4ct",
	"Avocados 2ct",
	"Olive oil 16oz",
	"Garlic 1 bulb",
	"Lemons 2ct",
	"Greek yogurt 32oz",
	"Cheddar cheese 8oz",
	"Pasta 16oz",
	"Ground turkey 1lb",
}

const demoPeopleCount = 2

// UsageRecorder receives per-generation model usage. A nil recorder is valid;
// recording failures are warnings, never generation failures.
type UsageRecorder interface {
	RecordMeta(meta shared.CallMeta) error
}

// Planner is the single entry point for meal plan generation. It owns the
// read-check-generate-write discipline that guarantees at most one external
// generation per request id.
type Planner struct {
	repo    PlanRepository
	synth   *Synthesizer
	usage   UsageRecorder
	logger  *zap.Logger
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPlanner creates a new Planner instance. usage may be nil.
func NewPlanner(repo PlanRepository, synth *Synthesizer, usage UsageRecorder, logger *zap.Logger, timeout time.Duration) *Planner {
	return &Planner{
		repo:    repo,
		synth:   synth,
		usage:   usage,
		logger:  logger,
		timeout: timeout,
		locks:   make(map[string]*sync.Mutex),
	}
}

// CreateRequest persists a new immutable planning request and returns its id.
func (p *Planner) CreateRequest(ctx context.Context, ingredients []string, peopleCount int, sourceType SourceType) (string, error) {
	return p.repo.CreateRequest(ctx, ingredients, peopleCount, sourceType)
}

// Generate returns the meal plan for id, computing and caching it on first
// use. A cached plan is returned without touching any external collaborator.
// On any failure the store is left unmodified, so a retried call is safe.
func (p *Planner) Generate(ctx context.Context, id string) (*MealPlanDocument, error) {
	record, err := p.repo.Lookup(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		// Store transport failure, not a missing id: fall back to the
		// demonstration pantry so the pipeline stays usable. The result is
		// not cached.
		p.logger.Warn("plan store unreachable, generating from demonstration pantry",
			zap.String("id", id),
			zap.Error(err),
		)
		return p.generateUncached(ctx, DemoIngredients, demoPeopleCount)
	}

	if record.Plan != nil {
		return record.Plan, nil
	}

	lock := p.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock: a concurrent call may have generated and
	// cached the plan while this one waited.
	record, err = p.repo.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Plan != nil {
		return record.Plan, nil
	}

	doc, err := p.synthesize(ctx, record.Request.Ingredients, record.Request.PeopleCount)
	if err != nil {
		return nil, err
	}

	if err := p.repo.SavePlan(ctx, id, doc); err != nil {
		return nil, fmt.Errorf("failed to persist generated plan for %s: %w", id, err)
	}

	return doc, nil
}

func (p *Planner) generateUncached(ctx context.Context, ingredients []string, peopleCount int) (*MealPlanDocument, error) {
	return p.synthesize(ctx, ingredients, peopleCount)
}

func (p *Planner) synthesize(ctx context.Context, ingredients []string, peopleCount int) (*MealPlanDocument, error) {
	prompt, err := BuildPlanPrompt(ingredients, peopleCount, time.Now().Hour())
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	doc, meta, err := p.synth.Synthesize(genCtx, prompt)
	p.recordUsage(meta)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Planner) recordUsage(meta shared.CallMeta) {
	if p.usage == nil {
		return
	}
	if err := p.usage.RecordMeta(meta); err != nil {
		p.logger.Warn("failed to record generation usage", zap.Error(err))
	}
}

func (p *Planner) lockFor(id string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}
