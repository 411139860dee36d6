package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"receipt-meal-planner/internal/app"
	"receipt-meal-planner/internal/config"
	"receipt-meal-planner/internal/database"
	"receipt-meal-planner/internal/llm"
	"receipt-meal-planner/internal/logging"
	"receipt-meal-planner/internal/metrics"
	"receipt-meal-planner/internal/ocr"
	"receipt-meal-planner/internal/planner"
	"receipt-meal-planner/internal/receipt"

	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	var textGen llm.TextGenerator
	switch cfg.Provider {
	case config.ProviderGemini:
		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		if closer, ok := geminiClient.(llm.Closer); ok {
			defer closer.Close()
		}
		textGen = geminiClient
	case config.ProviderPerplexity:
		textGen = llm.NewPerplexityClient(cfg)
	}

	var repo planner.PlanRepository
	var metricsStore *metrics.Store
	if cfg.StoreBackend == config.StoreSQLite {
		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = planner.NewSQLiteRepository(db.SQL)
		metricsStore = metrics.NewStore(db.SQL)
	} else {
		repo = planner.NewMemoryRepository()
	}

	synth := planner.NewSynthesizer(textGen, logger)
	var usage planner.UsageRecorder
	if metricsStore != nil {
		usage = metricsStore
	}
	mealPlanner := planner.NewPlanner(repo, synth, usage, logger, cfg.ExternalTimeout)
	extractor := receipt.NewExtractor(ocr.NewVisionClient(cfg), textGen, cfg.ExternalTimeout)

	application := app.NewApp(mealPlanner, extractor, metricsStore, cfg, logger)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		createCmd := flag.NewFlagSet("create", flag.ExitOnError)
		items := createCmd.String("items", "", "Comma-separated ingredient list")
		people := createCmd.Int("people", 2, "Number of people to plan for")
		createCmd.Parse(os.Args[2:])

		if *items == "" {
			log.Fatal("create requires -items")
		}
		ingredients := splitItems(*items)
		if err := application.CreateRequest(ctx, ingredients, *people); err != nil {
			log.Fatalf("Create failed: %v", err)
		}
	case "scan":
		scanCmd := flag.NewFlagSet("scan", flag.ExitOnError)
		file := scanCmd.String("file", "", "Path to a receipt image")
		people := scanCmd.Int("people", 2, "Number of people to plan for")
		scanCmd.Parse(os.Args[2:])

		if *file == "" {
			log.Fatal("scan requires -file")
		}
		if err := application.ScanReceipt(ctx, *file, *people); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
	case "generate":
		if len(os.Args) < 3 {
			log.Fatal("generate requires a request id")
		}
		if err := application.GenerateMealPlan(ctx, os.Args[2]); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
	case "metrics":
		metricsCmd := flag.NewFlagSet("metrics", flag.ExitOnError)
		days := metricsCmd.Int("days", 7, "Show usage for the last N days")
		metricsCmd.Parse(os.Args[2:])

		if err := application.ShowMetrics(*days); err != nil {
			log.Fatalf("Metrics failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		if err := application.CleanupMetrics(*days); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func splitItems(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  create             Register a manually entered ingredient list (-items, -people)")
	fmt.Println("  scan               Extract ingredients from a receipt image (-file, -people)")
	fmt.Println("  generate <id>      Generate (or fetch the cached) meal plan for a request")
	fmt.Println("  metrics            Show daily model usage (-days)")
	fmt.Println("  metrics-cleanup    Remove old metric records (-days)")
}
