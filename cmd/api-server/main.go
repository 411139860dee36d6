package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"receipt-meal-planner/internal/api"
	"receipt-meal-planner/internal/config"
	"receipt-meal-planner/internal/database"
	"receipt-meal-planner/internal/llm"
	"receipt-meal-planner/internal/logging"
	"receipt-meal-planner/internal/metrics"
	"receipt-meal-planner/internal/ocr"
	"receipt-meal-planner/internal/planner"
	"receipt-meal-planner/internal/receipt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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
			log.Fatalf("Failed to create Gemini client: %v", err)
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

	server := api.NewServer(mealPlanner, extractor, logger)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info("API server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
}
