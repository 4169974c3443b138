package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/garnizeh/positionfaq/internal/workflow"
)

// Resolver runs the question resolution workflow.
type Resolver interface {
	Resolve(ctx context.Context, question string, positionID int64) workflow.Result
}

type WorkflowHandler struct {
	resolver Resolver
}

func NewWorkflowHandler(r Resolver) *WorkflowHandler {
	return &WorkflowHandler{resolver: r}
}

type workflowRequest struct {
	Question   string `json:"question"`
	PositionID int64  `json:"positionId"`
}

type workflowResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *WorkflowHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errorResponse{Error: "Invalid request body"}, http.StatusBadRequest)
		return
	}

	result := h.resolver.Resolve(r.Context(), req.Question, req.PositionID)
	if !result.Success {
		writeJSON(w, errorResponse{Error: result.Error}, statusForError(result.Error))
		return
	}

	writeJSON(w, workflowResponse{Response: result.Response}, http.StatusOK)
}

func statusForError(msg string) int {
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case msg == workflow.MsgUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
