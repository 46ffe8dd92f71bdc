package api

import (
	"time"

	"github.com/starford/ansuz/internal/models"
)

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query   string                `json:"query"`
	Intent  string                `json:"intent"`
	Results []models.SearchResult `json:"results"`
}

// DocumentSummary is one entry of GET /api/documents.
type DocumentSummary struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Keywords  []string  `json:"keywords,omitempty"`
	Phase     int       `json:"phase"`
	System    string    `json:"system,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DocumentListResponse is the body of GET /api/documents.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Total     int               `json:"total"`
}

// DocumentDetail is the body of GET /api/documents/*.
type DocumentDetail struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NeighborsResponse is the body of GET /api/graph/neighbors.
type NeighborsResponse struct {
	ID        string          `json:"id"`
	Neighbors []NeighborEntry `json:"neighbors"`
}

// NeighborEntry is one weighted adjacency of a document.
type NeighborEntry struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}
