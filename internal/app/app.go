package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"receipt-meal-planner/internal/config"
	"receipt-meal-planner/internal/metrics"
	"receipt-meal-planner/internal/planner"
	"receipt-meal-planner/internal/receipt"

	"go.uber.org/zap"
)

// App holds the application's dependencies and drives the CLI workflows.
type App struct {
	mealPlanner  *planner.Planner
	extractor    *receipt.Extractor
	metricsStore *metrics.Store
	cfg          *config.Config
	logger       *zap.Logger
}

// NewApp creates and initializes a new App instance. metricsStore may be nil
// when the in-memory store backend is selected.
func NewApp(
	mealPlanner *planner.Planner,
	extractor *receipt.Extractor,
	metricsStore *metrics.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *App {
	return &App{
		mealPlanner:  mealPlanner,
		extractor:    extractor,
		metricsStore: metricsStore,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreateRequest registers a manually entered ingredient list and prints the
// identifier to use with the generate command.
func (a *App) CreateRequest(ctx context.Context, ingredients []string, peopleCount int) error {
	id, err := a.mealPlanner.CreateRequest(ctx, ingredients, peopleCount, planner.SourceManual)
	if err != nil {
		return fmt.Errorf("failed to register request: %w", err)
	}

	fmt.Printf("Registered %d ingredients for %d people.\n", len(ingredients), peopleCount)
	fmt.Printf("Request id: %s\n", id)
	return nil
}

// ScanReceipt reads a receipt image from disk, extracts its ingredient list
// and registers a scan-sourced request.
func (a *App) ScanReceipt(ctx context.Context, path string, peopleCount int) error {
	document, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read receipt %s: %w", path, err)
	}

	fmt.Println("Extracting ingredients from receipt...")
	ingredients, err := a.extractor.Extract(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to extract ingredients: %w", err)
	}

	fmt.Printf("Found %d ingredients:\n", len(ingredients))
	for _, item := range ingredients {
		fmt.Printf("- %s\n", item)
	}

	id, err := a.mealPlanner.CreateRequest(ctx, ingredients, peopleCount, planner.SourceScan)
	if err != nil {
		return fmt.Errorf("failed to register request: %w", err)
	}

	fmt.Printf("Request id: %s\n", id)
	return nil
}

// GenerateMealPlan generates (or fetches the cached) plan for a request id
// and prints it.
func (a *App) GenerateMealPlan(ctx context.Context, id string) error {
	fmt.Printf("Generating meal plan for request %s...\n", id)

	doc, err := a.mealPlanner.Generate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	for _, day := range doc.Days {
		fmt.Printf("\n=== %s ===\n", strings.ToUpper(day.Day))
		for _, meal := range day.Meals {
			fmt.Printf("%s: %s\n", meal.Type, meal.Name)
			for _, ing := range meal.Ingredients {
				fmt.Printf("  - %s (%s)\n", ing.Name, ing.Amount)
			}
			fmt.Printf("  %s\n", meal.Instructions)
		}
	}

	if len(doc.UnusedIngredients) > 0 {
		fmt.Println("\n=== UNUSED INGREDIENTS ===")
		for _, item := range doc.UnusedIngredients {
			fmt.Printf("- %s\n", item)
		}
	}

	return nil
}

// ShowMetrics prints aggregated model usage for the last N days.
func (a *App) ShowMetrics(days int) error {
	if a.metricsStore == nil {
		return fmt.Errorf("metrics require the sqlite store backend")
	}

	usage, err := a.metricsStore.GetDailyUsage(days)
	if err != nil {
		return fmt.Errorf("failed to load usage metrics: %w", err)
	}

	if len(usage) == 0 {
		fmt.Println("No usage recorded in the selected window.")
		return nil
	}

	fmt.Printf("%-12s %8s %14s %18s\n", "DATE", "CALLS", "PROMPT TOKENS", "COMPLETION TOKENS")
	for _, row := range usage {
		fmt.Printf("%-12s %8d %14d %18d\n", row.Date, row.TotalExecution, row.TotalPrompt, row.TotalCompletion)
	}
	return nil
}

// CleanupMetrics removes metric records older than the retention window.
func (a *App) CleanupMetrics(olderThanDays int) error {
	if a.metricsStore == nil {
		return fmt.Errorf("metrics require the sqlite store backend")
	}

	affected, err := a.metricsStore.Cleanup(olderThanDays)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Removed %d old metric records.\n", affected)
	return nil
}
