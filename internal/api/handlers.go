package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	eng   *engine.Engine
	db    index.DocIndex
	store storage.Provider
}

// NewHandler creates a Handler. db may be nil; document listing then
// returns 503.
func NewHandler(eng *engine.Engine, db index.DocIndex, store storage.Provider) *Handler {
	return &Handler{eng: eng, db: db, store: store}
}

// docPath extracts the document path from the URL (everything after
// /api/documents/). Encoded slashes are supported.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Search handles GET /api/search?q=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing query parameter q"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, intentName, err := h.eng.Search(r.Context(), q, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrEncoderUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("semantic encoder unavailable"))
			return
		}
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Intent: intentName, Results: results})
}

// Report handles GET /api/report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.eng.Report()
	if err != nil {
		if errors.Is(err, apperr.ErrCorpusEmpty) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("no completed scan yet"))
			return
		}
		slog.Error("report failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Graph handles GET /api/graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Graph())
}

// Neighbors handles GET /api/graph/neighbors?id=....
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing query parameter id"))
		return
	}
	if !h.eng.Corpus().Has(id) {
		writeJSON(w, http.StatusNotFound, errorBody("document not found"))
		return
	}
	resp := NeighborsResponse{ID: id, Neighbors: []NeighborEntry{}}
	for _, n := range h.eng.Graph().Neighbors(id) {
		resp.Neighbors = append(resp.Neighbors, NeighborEntry{ID: n.ID, Weight: n.Weight})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("document index unavailable"))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.db.ListDocuments(limit, offset)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	resp := DocumentListResponse{Documents: []DocumentSummary{}, Total: total}
	for _, row := range rows {
		resp.Documents = append(resp.Documents, DocumentSummary{
			Path:      row.Path,
			Title:     row.Title,
			Keywords:  row.Keywords,
			Phase:     row.Phase,
			System:    row.System,
			UpdatedAt: row.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing document path"))
		return
	}
	data, err := h.store.Read(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("document not found"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentDetail{Path: path, Content: string(data)})
}
