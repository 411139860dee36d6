package planner

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed plan_prompt.md
var planPrompt string

type promptData struct {
	Ingredients string
	PeopleCount int
	NowHour     int
}

// BuildPlanPrompt renders the generation prompt for the given pantry. It is a
// pure function: the ingredient sequence is serialized comma-joined in order,
// and an empty list is a legal degenerate input left for the generator to
// handle. The hour is context for the generator to pick the first meal slot.
func BuildPlanPrompt(ingredients []string, peopleCount, nowHour int) (string, error) {
	if peopleCount < 1 {
		return "", fmt.Errorf("people count must be at least 1, got %d", peopleCount)
	}
	if nowHour < 0 || nowHour > 23 {
		return "", fmt.Errorf("hour of day out of range: %d", nowHour)
	}

	tmpl, err := template.New("plan").Parse(planPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, promptData{
		Ingredients: strings.Join(ingredients, ", "),
		PeopleCount: peopleCount,
		NowHour:     nowHour,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
