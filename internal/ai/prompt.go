package ai

import (
	"encoding/json"
	"fmt"

	"github.com/garnizeh/positionfaq/internal/models"
	"github.com/garnizeh/positionfaq/pkg/ollama"
)

const answerPromptTemplate = `You are an AI assistant that helps candidates with questions about job positions.
You have been provided with the following information about a position and its company:

POSITION DESCRIPTION:
{{.PositionDescription}}

POSITION FAQs:
{{.PositionFAQs}}

POSITION INFO:
{{.PositionInfo}}

COMPANY FAQs:
{{.CompanyFAQs}}

COMPANY INFO:
{{.CompanyInfo}}

A user has asked the following question: "{{.Question}}"

Follow these steps:

1. If the user's input is not a question, politely ask them to rephrase it as a question.

2. If the information above answers the question, answer it concisely and set "outcome" to "direct_answer".

3. If the information above does not answer the question but it is very similar to one of the FAQ questions whose "response" is null, set "outcome" to "forward_to_human", set "similarQuestionId" to that FAQ's id, and set "response" to exactly: "` + ResponseForwarded + `"

4. If the information above does not answer the question and it is not similar to any existing FAQ question, set "outcome" to "new_faq_needed", set "similarQuestionId" to null, and set "response" to exactly: "` + ResponseAddedToList + `"

Respond with ONLY a JSON object of this shape, without explaining your reasoning:
{"outcome": "direct_answer" | "forward_to_human" | "new_faq_needed", "similarQuestionId": <faq id or null>, "response": "<the text to show the user>"}`

const summaryPromptTemplate = `Summarize the following question to make it more general and suitable for an FAQ:

Original question: "{{.Question}}"

Your summary should:
1. Maintain the core intent of the question
2. Remove any personal details or specifics that wouldn't apply to other users
3. Be concise and clear
4. End with a question mark
5. Be in the form of a question someone might ask about a job position

Return ONLY the summarized question, without any explanation or additional text.`

// BuildAnswerPrompt renders the joint answer-and-match prompt from a position
// snapshot, its company context, and the incoming question.
func BuildAnswerPrompt(question string, pos *models.PositionDocument, com *models.CompanyDocument) (string, error) {
	if pos == nil {
		return "", fmt.Errorf("position document is required")
	}
	if com == nil {
		com = models.EmptyCompanyDocument()
	}

	desc := pos.Position.PositionDescription
	if desc == "" {
		desc = "No description available"
	}

	data := map[string]any{
		"Question":            question,
		"PositionDescription": desc,
		"PositionFAQs":        marshalList(pos.PositionFAQs),
		"PositionInfo":        marshalList(pos.PositionInfo),
		"CompanyFAQs":         marshalList(com.CompanyFAQs),
		"CompanyInfo":         marshalList(com.CompanyInfo),
	}

	return ollama.RenderTemplate(answerPromptTemplate, data)
}

// BuildSummaryPrompt renders the question-generalization prompt.
func BuildSummaryPrompt(question string) (string, error) {
	return ollama.RenderTemplate(summaryPromptTemplate, map[string]any{"Question": question})
}

// marshalList renders a FAQ or info list as indented JSON for the prompt.
// A nil list renders as an empty array, matching the empty-company fallback.
func marshalList[T any](items []T) string {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
