package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/positionfaq/internal/config"
	"github.com/qri-io/jsonschema"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(answerSchema), rs); err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	return &Engine{
		cfg:    config.EngineConfig{Model: "test-model", SummaryModel: "test-model", Timeout: time.Second},
		schema: rs,
		logger: slog.Default(),
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"wrapped in prose", `Sure! Here you go: {"a":1} Hope that helps.`, `{"a":1}`},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no object", "no braces here", ""},
		{"reversed braces", "} {", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAnswer(t *testing.T) {
	ans, err := ParseAnswer(`{"outcome": "direct_answer", "similarQuestionId": null, "response": "Yes."}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ans.Outcome != OutcomeDirectAnswer || ans.Response != "Yes." || ans.SimilarQuestionID != nil {
		t.Fatalf("got %+v", ans)
	}

	ans, err = ParseAnswer(`The model says: {"similarQuestionId": 50002, "response": "` + ResponseForwarded + `"} done`)
	if err != nil {
		t.Fatalf("parse wrapped: %v", err)
	}
	if ans.SimilarQuestionID == nil || *ans.SimilarQuestionID != 50002 {
		t.Fatalf("similarQuestionId = %v", ans.SimilarQuestionID)
	}

	for name, in := range map[string]string{
		"empty":            "   ",
		"no json":          "I cannot answer that.",
		"missing response": `{"outcome": "direct_answer"}`,
		"blank response":   `{"response": "  "}`,
	} {
		if _, err := ParseAnswer(in); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDeriveOutcome(t *testing.T) {
	id := int64(50001)
	tests := []struct {
		name string
		in   Answer
		want Outcome
	}{
		{"explicit tag kept", Answer{Outcome: OutcomeNewFAQNeeded, Response: "x"}, OutcomeNewFAQNeeded},
		{"id implies forward", Answer{SimilarQuestionID: &id, Response: "x"}, OutcomeForwardToHuman},
		{"sentinel implies new faq", Answer{Response: ResponseAddedToList}, OutcomeNewFAQNeeded},
		{"plain text is direct", Answer{Response: "The role is remote."}, OutcomeDirectAnswer},
		{"unknown tag rederived", Answer{Outcome: "banana", SimilarQuestionID: &id, Response: "x"}, OutcomeForwardToHuman},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveOutcome(&tt.in); got != tt.want {
				t.Fatalf("deriveOutcome = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAnswerFallsBackToRawText(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	raw := "  The position is fully remote.  "
	ans := e.parseAnswer(ctx, raw)
	if ans.Outcome != OutcomeDirectAnswer {
		t.Fatalf("outcome = %q, want direct_answer", ans.Outcome)
	}
	if ans.Response != strings.TrimSpace(raw) {
		t.Fatalf("response = %q", ans.Response)
	}
	if ans.Raw != raw {
		t.Fatalf("raw = %q", ans.Raw)
	}
}

func TestParseAnswerSchemaViolationFallsBack(t *testing.T) {
	e := testEngine(t)

	// outcome is present but not one of the allowed tags
	raw := `{"outcome": "shrug", "similarQuestionId": null, "response": "maybe"}`
	ans := e.parseAnswer(context.Background(), raw)
	if ans.Outcome != OutcomeDirectAnswer {
		t.Fatalf("outcome = %q, want direct_answer fallback", ans.Outcome)
	}
	if ans.Response != raw {
		t.Fatalf("response = %q, want raw text", ans.Response)
	}
}

func TestParseAnswerStructured(t *testing.T) {
	e := testEngine(t)

	raw := `{"outcome": "forward_to_human", "similarQuestionId": 50002, "response": "` + ResponseForwarded + `"}`
	ans := e.parseAnswer(context.Background(), raw)
	if ans.Outcome != OutcomeForwardToHuman {
		t.Fatalf("outcome = %q", ans.Outcome)
	}
	if ans.SimilarQuestionID == nil || *ans.SimilarQuestionID != 50002 {
		t.Fatalf("similarQuestionId = %v", ans.SimilarQuestionID)
	}
	if ans.Response != ResponseForwarded {
		t.Fatalf("response = %q", ans.Response)
	}
}
