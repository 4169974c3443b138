package ai

import (
	"strings"
	"testing"

	"github.com/garnizeh/positionfaq/internal/models"
)

func TestBuildAnswerPrompt(t *testing.T) {
	resp := "Yes, fully remote."
	pos := &models.PositionDocument{
		Position: models.Position{ID: 1001, PositionDescription: "Senior Gopher"},
		PositionFAQs: []models.FAQ{
			{ID: 50001, Question: "Is it remote?", Response: &resp},
		},
	}
	com := &models.CompanyDocument{
		Company:     models.Company{ID: 2001, Name: "Acme"},
		CompanyInfo: []models.InfoItem{{ID: 1, Subject: "Benefits", Answer: "Full package"}},
	}

	prompt, err := BuildAnswerPrompt("Can I work from home?", pos, com)
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}

	for _, want := range []string{
		"Can I work from home?",
		"Senior Gopher",
		"Is it remote?",
		"Benefits",
		ResponseForwarded,
		ResponseAddedToList,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestBuildAnswerPromptDefaults(t *testing.T) {
	pos := &models.PositionDocument{Position: models.Position{ID: 1001}}

	prompt, err := BuildAnswerPrompt("Anything?", pos, nil)
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	if !strings.Contains(prompt, "No description available") {
		t.Fatal("prompt missing description fallback")
	}
	// nil lists render as empty arrays
	if !strings.Contains(prompt, "POSITION FAQs:\n[]") {
		t.Fatal("nil FAQ list did not render as an empty array")
	}
}

func TestBuildAnswerPromptRequiresPosition(t *testing.T) {
	if _, err := BuildAnswerPrompt("Anything?", nil, nil); err == nil {
		t.Fatal("expected error for nil position")
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt, err := BuildSummaryPrompt("I earn 50k today, what would I earn at Acme?")
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	if !strings.Contains(prompt, "I earn 50k today, what would I earn at Acme?") {
		t.Fatal("prompt missing original question")
	}
}
