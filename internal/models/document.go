// Package models defines the domain types for Ansuz.
package models

import "time"

// PhaseUnknown is the Phase value for documents whose evolutionary_phase
// field is absent or not prefixed with an integer.
const PhaseUnknown = -1

// Document is the atomic corpus entity built from one Markdown file.
type Document struct {
	// ID is the path of the file relative to the docs root.
	ID string `json:"doc_id"`

	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
	Summary  string   `json:"summary,omitempty"`

	// BodyPrefix holds the first section of the body used for embedding.
	BodyPrefix string `json:"-"`

	// Phase is the integer major phase of the evolutionary_phase field,
	// or PhaseUnknown.
	Phase int `json:"phase"`

	// BiologicalSystem is a free-text categorical label.
	BiologicalSystem string `json:"biological_system,omitempty"`

	// CrossReferences may contain dangling entries; resolution happens in
	// the health scorer and healer.
	CrossReferences []string `json:"cross_references,omitempty"`

	// LastUpdated is zero when the front-matter carries no usable
	// last_updated value.
	LastUpdated time.Time `json:"last_updated,omitzero"`

	// RequiredPresent and OptionalPresent record which of the fixed
	// required/optional front-matter keys carry a non-empty value.
	RequiredPresent []string `json:"-"`
	OptionalPresent []string `json:"-"`

	// ConsciousnessScore is an opaque numeric tag; only positivity is
	// ever tested.
	ConsciousnessScore float64 `json:"-"`

	Checksum string `json:"-"`
}

// HasPhase reports whether the document carries a parseable major phase.
func (d *Document) HasPhase() bool { return d.Phase != PhaseUnknown }

// SearchResult is one ranked query hit.
type SearchResult struct {
	DocID            string   `json:"doc_id"`
	Score            float64  `json:"score"`
	Title            string   `json:"title"`
	Phase            int      `json:"phase"`
	BiologicalSystem string   `json:"biological_system"`
	MatchingKeywords []string `json:"matching_keywords"`
	Summary          string   `json:"summary"`
}

// Violation records a per-file or per-reference problem found during a
// scan. Violations never abort a scan.
type Violation struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}
