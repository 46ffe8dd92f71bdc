package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth
// group.
func NewRouter(eng *engine.Engine, db index.DocIndex, store storage.Provider,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng, db, store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/search", h.Search)
	r.Get("/report", h.Report)
	r.Get("/graph", h.Graph)
	r.Get("/graph/neighbors", h.Neighbors)
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
