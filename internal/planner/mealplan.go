package planner

import (
	"fmt"
	"time"
)

// SourceType records how the ingredients of a request were captured.
type SourceType string

const (
	SourceManual SourceType = "manual"
	SourceScan   SourceType = "scan"
)

// MealPlanRequest is the immutable input for one planning request. It is
// created once at intake time and acts as the cache key for generation.
type MealPlanRequest struct {
	ID          string     `json:"id"`
	Ingredients []string   `json:"ingredients"`
	PeopleCount int        `json:"people_count"`
	SourceType  SourceType `json:"source_type"`
}

// MealPlanRecord pairs a request with its generated plan. Plan is nil until
// the first successful generation for the id, and transitions exactly once
// from absent to one complete document.
type MealPlanRecord struct {
	Request   MealPlanRequest
	Plan      *MealPlanDocument
	CreatedAt time.Time
}

// MealPlanDocument is the validated plan returned by the generator.
type MealPlanDocument struct {
	Days              []DayPlan `json:"days"`
	UnusedIngredients []string  `json:"unusedIngredients,omitempty"`
}

// DayPlan represents the plan for a single day.
type DayPlan struct {
	Day   string `json:"day"`
	Meals []Meal `json:"meals"`
}

// Meal is a single meal slot. Type is nominally Breakfast/Lunch/Dinner but
// free-text values from the generator are tolerated.
type Meal struct {
	Type         string           `json:"type"`
	Name         string           `json:"name"`
	Ingredients  []MealIngredient `json:"ingredients"`
	Instructions string           `json:"instructions"`
}

// MealIngredient is one quantified ingredient of a meal.
type MealIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// validateRequestInput checks the intake invariants shared by every store
// implementation.
func validateRequestInput(peopleCount int, sourceType SourceType) error {
	if peopleCount < 1 {
		return fmt.Errorf("people count must be at least 1, got %d", peopleCount)
	}
	if sourceType != SourceManual && sourceType != SourceScan {
		return fmt.Errorf("unknown source type %q", sourceType)
	}
	return nil
}
