package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanRepository is the durable store for meal plan requests and their
// generated plans. It is the single writer of the plan field: callers go
// through SavePlan and never mutate a record directly.
type PlanRepository interface {
	// CreateRequest persists an immutable request with an absent plan and
	// returns its fresh identifier.
	CreateRequest(ctx context.Context, ingredients []string, peopleCount int, sourceType SourceType) (string, error)
	// Lookup returns the record for id, or ErrNotFound if the id was never
	// created. A record with a nil Plan exists but has not been generated yet.
	Lookup(ctx context.Context, id string) (*MealPlanRecord, error)
	// SavePlan writes the generated document for id. Writing over an existing
	// plan is an idempotent overwrite, benign under the per-id serialization
	// guarantee.
	SavePlan(ctx context.Context, id string, doc *MealPlanDocument) error
}

// SQLiteRepository is a database-backed PlanRepository.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLiteRepository.
func NewSQLiteRepository(d *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: d}
}

// CreateRequest inserts a new request row with a NULL plan.
func (r *SQLiteRepository) CreateRequest(ctx context.Context, ingredients []string, peopleCount int, sourceType SourceType) (string, error) {
	if err := validateRequestInput(peopleCount, sourceType); err != nil {
		return "", err
	}

	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plan_requests (id, ingredients, source_type, people_count, plan, created_at)
		 VALUES (?, ?, ?, ?, NULL, ?)`,
		id, string(ingredientsJSON), string(sourceType), peopleCount, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert meal plan request: %w", err)
	}

	return id, nil
}

// Lookup reads one record by id.
func (r *SQLiteRepository) Lookup(ctx context.Context, id string) (*MealPlanRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT ingredients, source_type, people_count, plan, created_at
		 FROM meal_plan_requests WHERE id = ?`,
		id,
	)

	var (
		ingredientsJSON string
		sourceType      string
		peopleCount     int
		planJSON        sql.NullString
		createdAt       time.Time
	)
	err := row.Scan(&ingredientsJSON, &sourceType, &peopleCount, &planJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meal plan request %s: %w", id, err)
	}

	var ingredients []string
	if err := json.Unmarshal([]byte(ingredientsJSON), &ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients for %s: %w", id, err)
	}

	record := &MealPlanRecord{
		Request: MealPlanRequest{
			ID:          id,
			Ingredients: ingredients,
			PeopleCount: peopleCount,
			SourceType:  SourceType(sourceType),
		},
		CreatedAt: createdAt,
	}

	if planJSON.Valid {
		var doc MealPlanDocument
		if err := json.Unmarshal([]byte(planJSON.String), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored plan for %s: %w", id, err)
		}
		record.Plan = &doc
	}

	return record, nil
}

// SavePlan stores the generated document on the request row.
func (r *SQLiteRepository) SavePlan(ctx context.Context, id string, doc *MealPlanDocument) error {
	planJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan document: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE meal_plan_requests SET plan = ? WHERE id = ?`,
		string(planJSON), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan for %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result for %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
