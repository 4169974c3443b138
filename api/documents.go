package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/garnizeh/positionfaq/internal/models"
	"github.com/garnizeh/positionfaq/internal/store"
	"github.com/gorilla/mux"
)

// maxDocumentSize bounds the accepted body of a document write.
const maxDocumentSize = 1 << 20

// DocumentStore is the slice of the store the document handlers depend on.
type DocumentStore interface {
	GetLatest(ctx context.Context, docType string, id int64) (*store.Document, error)
	ListVersions(ctx context.Context, docType string, id int64) ([]store.Document, error)
	Save(ctx context.Context, docType string, body []byte, id int64) (int64, int64, error)
	ListPositionsByCompany(ctx context.Context, companyID int64) ([]models.PositionDocument, error)
}

// DocumentsHandler serves the position/company management endpoints.
type DocumentsHandler struct {
	store DocumentStore
}

func NewDocumentsHandler(s DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{store: s}
}

type saveResponse struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

func (h *DocumentsHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, models.TypePosition, 0)
}

func (h *DocumentsHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.save(w, r, models.TypePosition, id)
}

func (h *DocumentsHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, models.TypeCompany, 0)
}

func (h *DocumentsHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.save(w, r, models.TypeCompany, id)
}

// save persists a new snapshot. The store rewrites embedded ownership ids and
// allocates the id/version, so the raw body is passed through as-is.
func (h *DocumentsHandler) save(w http.ResponseWriter, r *http.Request, docType string, id int64) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize+1))
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}
	if len(body) > maxDocumentSize {
		http.Error(w, "document too large", http.StatusBadRequest)
		return
	}

	newID, version, err := h.store.Save(r.Context(), docType, body, id)
	if err != nil {
		if errors.Is(err, store.ErrMalformed) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		logger.Error("save document", "type", docType, "id", id, "err", err)
		http.Error(w, "failed to store document", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, saveResponse{ID: newID, Version: version}, status)
}

func (h *DocumentsHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	h.getLatest(w, r, models.TypePosition)
}

func (h *DocumentsHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	h.getLatest(w, r, models.TypeCompany)
}

func (h *DocumentsHandler) getLatest(w http.ResponseWriter, r *http.Request, docType string) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.store.GetLatest(r.Context(), docType, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		logger.Error("get document", "type", docType, "id", id, "err", err)
		http.Error(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Body)
}

func (h *DocumentsHandler) ListPositionVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.store.ListVersions(r.Context(), models.TypePosition, id)
	if err != nil {
		logger.Error("list versions", "id", id, "err", err)
		http.Error(w, "failed to list versions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"total": len(versions), "items": versions}, http.StatusOK)
}

func (h *DocumentsHandler) ListCompanyPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	positions, err := h.store.ListPositionsByCompany(r.Context(), id)
	if err != nil {
		logger.Error("list company positions", "company_id", id, "err", err)
		http.Error(w, "failed to list positions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"total": len(positions), "items": positions}, http.StatusOK)
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	idStr := mux.Vars(r)[key]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
