package receipt

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"
	"time"

	"receipt-meal-planner/internal/llm"
	"receipt-meal-planner/internal/ocr"
	"receipt-meal-planner/internal/planner"
)

//go:embed refine_prompt.md
var refinePrompt string

// Extractor turns raw receipt bytes into an ordered ingredient list. It is
// stateless: two external calls (text detection, then an LLM refinement pass)
// and nothing else.
type Extractor struct {
	detector ocr.LineDetector
	textGen  llm.TextGenerator
	timeout  time.Duration
}

// NewExtractor creates a new Extractor.
func NewExtractor(detector ocr.LineDetector, textGen llm.TextGenerator, timeout time.Duration) *Extractor {
	return &Extractor{
		detector: detector,
		textGen:  textGen,
		timeout:  timeout,
	}
}

// Extract runs OCR over the document, refines the raw text into clean English
// ingredient names with quantities, and returns them in detection order with
// blank lines removed. Failures surface as ExternalServiceError naming the
// collaborator; there is no local retry.
func (e *Extractor) Extract(ctx context.Context, document []byte) ([]string, error) {
	ocrCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	lines, err := e.detector.DetectLines(ocrCtx, document)
	if err != nil {
		return nil, &planner.ExternalServiceError{Service: "ocr", Err: err}
	}
	if len(lines) == 0 {
		return nil, &planner.ExternalServiceError{Service: "ocr", Err: errors.New("no text lines detected")}
	}

	prompt, err := buildRefinePrompt(strings.Join(lines, "\n"))
	if err != nil {
		return nil, err
	}

	refineCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.textGen.GenerateContent(refineCtx, prompt)
	if err != nil {
		return nil, &planner.ExternalServiceError{Service: "refine", Err: err}
	}

	items := splitLines(resp.Content)
	if len(items) == 0 {
		return nil, &planner.ExternalServiceError{Service: "refine", Err: errors.New("refinement produced no items")}
	}
	return items, nil
}

func buildRefinePrompt(text string) (string, error) {
	tmpl, err := template.New("refine").Parse(refinePrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// splitLines splits the reply on newlines and drops empty or whitespace-only
// entries, preserving order.
func splitLines(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}
