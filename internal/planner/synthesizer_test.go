package planner

import (
	"context"
	"errors"
	"testing"

	"receipt-meal-planner/internal/llm"

	"go.uber.org/zap"
)

const validPlanJSON = `{
	"days": [
		{
			"day": "Day 1",
			"meals": [
				{
					"type": "Dinner",
					"name": "Chicken and Rice",
					"ingredients": [
						{"name": "Chicken breast", "amount": "1lb"},
						{"name": "Brown rice", "amount": "2 cups"}
					],
					"instructions": "Sear the chicken, then simmer with the rice."
				}
			]
		}
	],
	"unusedIngredients": ["Lemons 2ct"]
}`

type stubTextGenerator struct {
	reply string
	err   error
	calls int
}

func (s *stubTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	s.calls++
	if s.err != nil {
		return llm.ContentResponse{}, s.err
	}
	return llm.ContentResponse{Content: s.reply}, nil
}

func newTestSynthesizer(gen llm.TextGenerator) *Synthesizer {
	return NewSynthesizer(gen, zap.NewNop())
}

func TestSynthesizeValidPlan(t *testing.T) {
	synth := newTestSynthesizer(&stubTextGenerator{reply: validPlanJSON})

	doc, _, err := synth.Synthesize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(doc.Days) != 1 {
		t.Fatalf("Expected 1 day, got %d", len(doc.Days))
	}
	if doc.Days[0].Meals[0].Name != "Chicken and Rice" {
		t.Errorf("Expected meal name 'Chicken and Rice', got '%s'", doc.Days[0].Meals[0].Name)
	}
	if len(doc.UnusedIngredients) != 1 {
		t.Errorf("Expected 1 unused ingredient, got %d", len(doc.UnusedIngredients))
	}
}

func TestSynthesizeFencedEqualsUnfenced(t *testing.T) {
	plain := newTestSynthesizer(&stubTextGenerator{reply: validPlanJSON})
	fenced := newTestSynthesizer(&stubTextGenerator{reply: "```json\n" + validPlanJSON + "\n```"})

	plainDoc, _, err := plain.Synthesize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Synthesize of plain JSON failed: %v", err)
	}
	fencedDoc, _, err := fenced.Synthesize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Synthesize of fenced JSON failed: %v", err)
	}

	if len(plainDoc.Days) != len(fencedDoc.Days) {
		t.Fatalf("Fenced and unfenced plans differ: %d vs %d days", len(plainDoc.Days), len(fencedDoc.Days))
	}
	if plainDoc.Days[0].Meals[0].Name != fencedDoc.Days[0].Meals[0].Name {
		t.Errorf("Fenced and unfenced plans differ in meal name")
	}
}

func TestSynthesizeBareFence(t *testing.T) {
	synth := newTestSynthesizer(&stubTextGenerator{reply: "```\n" + validPlanJSON + "\n```"})

	doc, _, err := synth.Synthesize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(doc.Days) != 1 {
		t.Errorf("Expected 1 day, got %d", len(doc.Days))
	}
}

func TestSynthesizeEmptyReply(t *testing.T) {
	synth := newTestSynthesizer(&stubTextGenerator{reply: "   \n"})

	_, _, err := synth.Synthesize(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyGeneration) {
		t.Fatalf("Expected ErrEmptyGeneration, got %v", err)
	}
}

func TestSynthesizeMalformedJSON(t *testing.T) {
	synth := newTestSynthesizer(&stubTextGenerator{reply: "not json at all"})

	_, _, err := synth.Synthesize(context.Background(), "prompt")

	var formatErr *PlanFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected PlanFormatError, got %T: %v", err, err)
	}
	if formatErr.RawText != "not json at all" {
		t.Errorf("Expected the offending text to be carried, got '%s'", formatErr.RawText)
	}
}

func TestSynthesizeMissingDays(t *testing.T) {
	synth := newTestSynthesizer(&stubTextGenerator{reply: `{"unusedIngredients": []}`})

	_, _, err := synth.Synthesize(context.Background(), "prompt")

	var formatErr *PlanFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected PlanFormatError for missing days, got %T: %v", err, err)
	}
}

func TestSynthesizeMealMissingFields(t *testing.T) {
	// A meal without instructions is not safely usable.
	reply := `{"days": [{"day": "Day 1", "meals": [{"type": "Lunch", "name": "Salad", "ingredients": [{"name": "Spinach", "amount": "2 cups"}]}]}]}`
	synth := newTestSynthesizer(&stubTextGenerator{reply: reply})

	_, _, err := synth.Synthesize(context.Background(), "prompt")

	var formatErr *PlanFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected PlanFormatError for missing instructions, got %T: %v", err, err)
	}
}

func TestSynthesizeTransportFailure(t *testing.T) {
	synth := newTestSynthesizer(&stubTextGenerator{err: errors.New("connection refused")})

	_, _, err := synth.Synthesize(context.Background(), "prompt")

	var svcErr *ExternalServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected ExternalServiceError, got %T: %v", err, err)
	}
	if svcErr.Service != "generation" {
		t.Errorf("Expected failing service 'generation', got '%s'", svcErr.Service)
	}
}

func TestStripFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"NoFence", `{"a": 1}`, `{"a": 1}`},
		{"JSONFence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"BareFence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"LeadingWhitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
		{"OnlyTrailingFence", "{\"a\": 1}\n```", `{"a": 1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripFence(tc.in)
			if got != tc.want {
				t.Errorf("stripFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
