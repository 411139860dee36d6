package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"receipt-meal-planner/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "planner_test.db")
	db, err := database.NewDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(newTestDB(t).SQL)

	ingredients := []string{"Chicken breast 1lb", "Brown rice 2lb bag"}
	id, err := repo.CreateRequest(ctx, ingredients, 3, SourceScan)
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a non-empty id")
	}

	record, err := repo.Lookup(ctx, id)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if record.Plan != nil {
		t.Error("Expected plan to be absent right after intake")
	}
	if record.Request.PeopleCount != 3 {
		t.Errorf("Expected people count 3, got %d", record.Request.PeopleCount)
	}
	if record.Request.SourceType != SourceScan {
		t.Errorf("Expected source type scan, got %s", record.Request.SourceType)
	}
	if len(record.Request.Ingredients) != 2 || record.Request.Ingredients[0] != "Chicken breast 1lb" {
		t.Errorf("Ingredients not preserved in order: %v", record.Request.Ingredients)
	}

	doc := &MealPlanDocument{
		Days: []DayPlan{
			{
				Day: "Day 1",
				Meals: []Meal{
					{
						Type:         "Dinner",
						Name:         "Chicken and Rice",
						Ingredients:  []MealIngredient{{Name: "Chicken breast", Amount: "1lb"}},
						Instructions: "Sear then simmer.",
					},
				},
			},
		},
	}
	if err := repo.SavePlan(ctx, id, doc); err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}

	record, err = repo.Lookup(ctx, id)
	if err != nil {
		t.Fatalf("Lookup after save failed: %v", err)
	}
	if record.Plan == nil {
		t.Fatal("Expected plan to be present after save")
	}
	if record.Plan.Days[0].Meals[0].Name != "Chicken and Rice" {
		t.Errorf("Stored plan does not match saved document")
	}
}

func TestSQLiteRepositoryUnknownID(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(newTestDB(t).SQL)

	_, err := repo.Lookup(ctx, "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	err = repo.SavePlan(ctx, "does-not-exist", &MealPlanDocument{Days: []DayPlan{{Day: "Day 1", Meals: []Meal{{Type: "Lunch", Name: "X", Ingredients: []MealIngredient{{Name: "Y", Amount: "1"}}, Instructions: "Z"}}}}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on save for unknown id, got %v", err)
	}
}

func TestSQLiteRepositoryInvalidIntake(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(newTestDB(t).SQL)

	if _, err := repo.CreateRequest(ctx, []string{"Eggs 12ct"}, 0, SourceManual); err == nil {
		t.Error("Expected an error for people count below 1")
	}
	if _, err := repo.CreateRequest(ctx, []string{"Eggs 12ct"}, 2, SourceType("email")); err == nil {
		t.Error("Expected an error for an unknown source type")
	}
}

func TestSQLiteRepositorySaveIsIdempotentOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(newTestDB(t).SQL)

	id, err := repo.CreateRequest(ctx, []string{"Pasta 16oz"}, 2, SourceManual)
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	doc := &MealPlanDocument{Days: []DayPlan{{Day: "Day 1", Meals: []Meal{{Type: "Dinner", Name: "Pasta", Ingredients: []MealIngredient{{Name: "Pasta", Amount: "16oz"}}, Instructions: "Boil."}}}}}
	if err := repo.SavePlan(ctx, id, doc); err != nil {
		t.Fatalf("First SavePlan failed: %v", err)
	}
	// Writing again is a logic error upstream but benign here.
	if err := repo.SavePlan(ctx, id, doc); err != nil {
		t.Fatalf("Second SavePlan should be an idempotent overwrite, got %v", err)
	}
}
