package receipt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"receipt-meal-planner/internal/llm"
	"receipt-meal-planner/internal/planner"
)

type mockDetector struct {
	lines []string
	err   error
	calls int
}

func (m *mockDetector) DetectLines(ctx context.Context, document []byte) ([]string, error) {
	m.calls++
	return m.lines, m.err
}

type mockTextGenerator struct {
	reply string
	err   error
	calls int
	// lastPrompt lets tests assert what the refine step was asked
	lastPrompt string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.reply}, nil
}

func TestExtractFiltersBlankLines(t *testing.T) {
	detector := &mockDetector{lines: []string{"Milk 1L", "", "  ", "Eggs 12ct"}}
	// The refine step echoes the raw blob back, blanks included.
	gen := &mockTextGenerator{reply: "Milk 1L\n\n  \nEggs 12ct"}

	extractor := NewExtractor(detector, gen, time.Second)
	items, err := extractor.Extract(context.Background(), []byte("receipt"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d: %v", len(items), items)
	}
	if items[0] != "Milk 1L" || items[1] != "Eggs 12ct" {
		t.Errorf("Expected [Milk 1L, Eggs 12ct], got %v", items)
	}
	if !strings.Contains(gen.lastPrompt, "Milk 1L\n") {
		t.Errorf("Expected refine prompt to contain the OCR blob, got: %s", gen.lastPrompt)
	}
}

func TestExtractOCRFailure(t *testing.T) {
	detector := &mockDetector{err: errors.New("service unreachable")}
	gen := &mockTextGenerator{reply: "unused"}

	extractor := NewExtractor(detector, gen, time.Second)
	_, err := extractor.Extract(context.Background(), []byte("receipt"))
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}

	var svcErr *planner.ExternalServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected ExternalServiceError, got %T: %v", err, err)
	}
	if svcErr.Service != "ocr" {
		t.Errorf("Expected failing service 'ocr', got '%s'", svcErr.Service)
	}
	if gen.calls != 0 {
		t.Errorf("Expected no refine call after OCR failure, got %d", gen.calls)
	}
}

func TestExtractNoLinesDetected(t *testing.T) {
	detector := &mockDetector{lines: nil}
	gen := &mockTextGenerator{reply: "unused"}

	extractor := NewExtractor(detector, gen, time.Second)
	_, err := extractor.Extract(context.Background(), []byte("receipt"))

	var svcErr *planner.ExternalServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected ExternalServiceError, got %T: %v", err, err)
	}
	if svcErr.Service != "ocr" {
		t.Errorf("Expected failing service 'ocr', got '%s'", svcErr.Service)
	}
}

func TestExtractEmptyRefinement(t *testing.T) {
	detector := &mockDetector{lines: []string{"STORE #42", "TOTAL 12.87"}}
	gen := &mockTextGenerator{reply: "\n   \n"}

	extractor := NewExtractor(detector, gen, time.Second)
	_, err := extractor.Extract(context.Background(), []byte("receipt"))

	var svcErr *planner.ExternalServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected ExternalServiceError, got %T: %v", err, err)
	}
	if svcErr.Service != "refine" {
		t.Errorf("Expected failing service 'refine', got '%s'", svcErr.Service)
	}
}
