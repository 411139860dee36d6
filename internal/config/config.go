package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backend identifiers.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Generation provider identifiers.
const (
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
)

// Config holds the configuration for the application.
type Config struct {
	Provider         string
	GeminiAPIKey     string
	PerplexityAPIKey string
	OCREndpoint      string
	OCRAPIKey        string
	StoreBackend     string
	DatabasePath     string
	ExternalTimeout  time.Duration
	LogLevel         string
	HTTPAddr         string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = ProviderGemini
	}
	if provider != ProviderGemini && provider != ProviderPerplexity {
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	perplexityAPIKey := os.Getenv("PERPLEXITY_API_TOKEN")
	switch provider {
	case ProviderGemini:
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderPerplexity:
		if perplexityAPIKey == "" {
			return nil, fmt.Errorf("PERPLEXITY_API_TOKEN environment variable not set")
		}
	}

	ocrAPIKey := os.Getenv("OCR_API_KEY")
	if ocrAPIKey == "" {
		return nil, fmt.Errorf("OCR_API_KEY environment variable not set")
	}

	ocrEndpoint := os.Getenv("OCR_ENDPOINT")
	if ocrEndpoint == "" {
		ocrEndpoint = "https://vision.googleapis.com/v1/images:annotate"
	}

	storeBackend := os.Getenv("PLANNER_STORE")
	if storeBackend == "" {
		storeBackend = StoreSQLite
	}
	if storeBackend != StoreSQLite && storeBackend != StoreMemory {
		return nil, fmt.Errorf("unsupported PLANNER_STORE %q", storeBackend)
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/planner.db"
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("EXTERNAL_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid EXTERNAL_TIMEOUT_SECONDS %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return &Config{
		Provider:         provider,
		GeminiAPIKey:     geminiAPIKey,
		PerplexityAPIKey: perplexityAPIKey,
		OCREndpoint:      ocrEndpoint,
		OCRAPIKey:        ocrAPIKey,
		StoreBackend:     storeBackend,
		DatabasePath:     databasePath,
		ExternalTimeout:  timeout,
		LogLevel:         logLevel,
		HTTPAddr:         httpAddr,
	}, nil
}
