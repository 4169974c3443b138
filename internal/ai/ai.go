package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/garnizeh/positionfaq/internal/config"
	"github.com/garnizeh/positionfaq/internal/models"
	"github.com/garnizeh/positionfaq/pkg/ollama"
	"github.com/qri-io/jsonschema"
)

// Outcome tags the oracle's judgement about a question. It replaces prose
// matching as the primary signal; the sentinel strings below remain the wire
// fallback for models that answer without the tag.
type Outcome string

const (
	OutcomeDirectAnswer   Outcome = "direct_answer"
	OutcomeForwardToHuman Outcome = "forward_to_human"
	OutcomeNewFAQNeeded   Outcome = "new_faq_needed"
)

// Fixed response strings recognized across the system.
const (
	ResponseForwarded   = "This question has been passed to the hiring manager."
	ResponseAddedToList = "This question has been added to the question list for the Hiring Manager."
	ResponseApology     = "I'm sorry, I couldn't process your question at the moment. Please try again later."
)

// Answer is the structured result we expect from the model.
type Answer struct {
	Outcome           Outcome `json:"outcome,omitempty"`
	SimilarQuestionID *int64  `json:"similarQuestionId"`
	Response          string  `json:"response"`

	// Raw captures the original model output for auditing/logging.
	Raw string `json:"-"`
}

// answerSchema validates the structured payload before the workflow acts on it.
const answerSchema = `{
	"type": "object",
	"required": ["response"],
	"properties": {
		"outcome": {"type": "string", "enum": ["direct_answer", "forward_to_human", "new_faq_needed"]},
		"similarQuestionId": {"type": ["integer", "null"]},
		"response": {"type": "string"}
	}
}`

// Engine wraps an Ollama client and provides the two oracle operations the
// workflow needs: answering a question in context and summarizing one for
// FAQ storage.
type Engine struct {
	client *ollama.Client
	cfg    config.EngineConfig
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewEngine(client *ollama.Client, cfg config.EngineConfig, logger *slog.Logger) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("ollama client is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("engine model is required")
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = cfg.Model
	}
	if logger == nil {
		logger = slog.Default()
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(answerSchema), rs); err != nil {
		return nil, fmt.Errorf("compile answer schema: %w", err)
	}

	return &Engine{client: client, cfg: cfg, schema: rs, logger: logger}, nil
}

// AnswerQuestion renders the position/company context into a prompt, sends it
// to the model, and interprets the structured response. The returned Answer
// is always usable: unparseable output degrades to the raw model text with a
// direct_answer outcome. An error is returned only when the model call itself
// fails.
func (e *Engine) AnswerQuestion(ctx context.Context, question string, pos *models.PositionDocument, com *models.CompanyDocument) (*Answer, error) {
	prompt, err := BuildAnswerPrompt(question, pos, com)
	if err != nil {
		return nil, fmt.Errorf("render answer prompt: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := e.client.Generate(ctxReq, e.cfg.Model, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return e.parseAnswer(ctx, out.Text), nil
}

// SummarizeQuestion asks the model to generalize a question for FAQ storage:
// strip personal specifics, keep it concise, phrase it as a question.
func (e *Engine) SummarizeQuestion(ctx context.Context, question string) (string, error) {
	prompt, err := BuildSummaryPrompt(question)
	if err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := e.client.Generate(ctxReq, e.cfg.SummaryModel, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	summary := strings.TrimSpace(out.Text)
	if summary == "" {
		return "", errors.New("empty summary")
	}
	return summary, nil
}

func (e *Engine) parseAnswer(ctx context.Context, raw string) *Answer {
	ans, err := ParseAnswer(raw)
	if err != nil {
		e.logger.Warn("falling back to raw oracle text", slog.Any("err", err))
		return rawAnswer(raw)
	}

	if verrs, err := e.schema.ValidateBytes(ctx, []byte(extractJSON(raw))); err != nil || len(verrs) > 0 {
		e.logger.Warn("oracle payload failed schema validation", slog.Any("err", err), slog.Int("violations", len(verrs)))
		return rawAnswer(raw)
	}

	ans.Raw = raw
	ans.Outcome = deriveOutcome(ans)
	return ans
}

// ParseAnswer extracts a JSON object from arbitrary model output and
// unmarshals it into an Answer.
func ParseAnswer(s string) (*Answer, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty response")
	}

	j := extractJSON(s)
	if j == "" {
		return nil, errors.New("no JSON object found in response")
	}

	var a Answer
	if err := json.Unmarshal([]byte(j), &a); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if strings.TrimSpace(a.Response) == "" {
		return nil, errors.New("missing response field")
	}
	return &a, nil
}

// deriveOutcome fills in the outcome tag when a model answered without one,
// using the structured id first and the fixed sentinel second.
func deriveOutcome(a *Answer) Outcome {
	switch a.Outcome {
	case OutcomeDirectAnswer, OutcomeForwardToHuman, OutcomeNewFAQNeeded:
		return a.Outcome
	}
	if a.SimilarQuestionID != nil {
		return OutcomeForwardToHuman
	}
	if strings.TrimSpace(a.Response) == ResponseAddedToList {
		return OutcomeNewFAQNeeded
	}
	return OutcomeDirectAnswer
}

func rawAnswer(raw string) *Answer {
	return &Answer{Outcome: OutcomeDirectAnswer, Response: strings.TrimSpace(raw), Raw: raw}
}

// extractJSON returns the substring from the first '{' to the last '}' in the
// input. This is a pragmatic approach to handle model outputs that wrap JSON
// in text or markdown.
func extractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}
