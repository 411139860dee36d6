package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"receipt-meal-planner/internal/llm"
	"receipt-meal-planner/internal/shared"

	"go.uber.org/zap"
)

// Synthesizer turns a rendered prompt into a validated MealPlanDocument.
type Synthesizer struct {
	textGen llm.TextGenerator
	logger  *zap.Logger
}

// NewSynthesizer creates a Synthesizer on top of a text generator.
func NewSynthesizer(textGen llm.TextGenerator, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		textGen: textGen,
		logger:  logger,
	}
}

// Synthesize sends the prompt to the generator, strips an optional markdown
// fence, parses the reply as JSON and validates its shape. It performs no
// retry; every failure is terminal for this attempt and leaves no state
// behind, so a caller-initiated resubmit is always safe.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string) (*MealPlanDocument, shared.CallMeta, error) {
	start := time.Now()

	resp, err := s.textGen.GenerateContent(ctx, prompt)
	meta := shared.CallMeta{
		Caller:  "Synthesizer",
		Usage:   resp.Usage,
		Latency: time.Since(start),
	}
	if err != nil {
		return nil, meta, &ExternalServiceError{Service: "generation", Err: err}
	}

	if strings.TrimSpace(resp.Content) == "" {
		return nil, meta, ErrEmptyGeneration
	}

	cleaned := stripFence(resp.Content)

	var doc MealPlanDocument
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		s.logger.Error("meal plan response is not valid JSON",
			zap.Error(err),
			zap.String("raw_response", cleaned),
		)
		return nil, meta, &PlanFormatError{RawText: cleaned, Err: err}
	}

	if err := validateDocument(&doc); err != nil {
		s.logger.Error("meal plan response failed shape validation",
			zap.Error(err),
			zap.String("raw_response", cleaned),
		)
		return nil, meta, &PlanFormatError{RawText: cleaned, Err: err}
	}

	return &doc, meta, nil
}

// stripFence removes at most one markdown fence pair around the text. It is a
// best-effort normalization, not a markdown parser: a single leading
// ```json or ``` fence and a single trailing ``` fence are cut independently.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)

	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}

	text = strings.TrimSpace(text)
	if before, ok := strings.CutSuffix(text, "```"); ok {
		text = before
	}

	return strings.TrimSpace(text)
}

// validateDocument enforces the structural contract of a plan document. A
// partially-shaped plan is not safely usable, so missing required fields are
// treated the same as a parse failure. Advisory prompt rules (all ingredients
// used, no recipe on three consecutive days) are deliberately not checked:
// the generator is probabilistic and those are data-quality concerns.
func validateDocument(doc *MealPlanDocument) error {
	if len(doc.Days) == 0 {
		return fmt.Errorf("document has no days")
	}
	for i, day := range doc.Days {
		if len(day.Meals) == 0 {
			return fmt.Errorf("day %d has no meals", i+1)
		}
		for j, meal := range day.Meals {
			switch {
			case meal.Type == "":
				return fmt.Errorf("day %d meal %d is missing a type", i+1, j+1)
			case meal.Name == "":
				return fmt.Errorf("day %d meal %d is missing a name", i+1, j+1)
			case len(meal.Ingredients) == 0:
				return fmt.Errorf("day %d meal %d has no ingredients", i+1, j+1)
			case meal.Instructions == "":
				return fmt.Errorf("day %d meal %d has no instructions", i+1, j+1)
			}
			for _, ing := range meal.Ingredients {
				if ing.Name == "" {
					return fmt.Errorf("day %d meal %d has an unnamed ingredient", i+1, j+1)
				}
			}
		}
	}
	return nil
}
