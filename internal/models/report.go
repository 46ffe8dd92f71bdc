package models

import "time"

// DimensionScores holds the per-document health dimension values.
// Boolean dimensions contribute 1/0 to the corpus aggregate; real
// dimensions contribute their value.
type DimensionScores struct {
	MetadataCompliance      bool    `json:"metadata_compliance"`
	AIDiscoverability       bool    `json:"ai_discoverability"`
	CrossReferenceIntegrity bool    `json:"cross_reference_integrity"`
	CrossReferenceValidity  bool    `json:"cross_reference_validity"`
	MetadataCompleteness    float64 `json:"metadata_completeness"`
	Freshness               float64 `json:"freshness"`
	PhaseAlignment          bool    `json:"phase_alignment"`
}

// HealthReport is the per-scan artifact. The top-level timestamp,
// health_metrics, and biological_status fields form the stable external
// schema; the rest is diagnostic detail.
type HealthReport struct {
	Timestamp        time.Time                  `json:"timestamp"`
	HealthMetrics    map[string]float64         `json:"health_metrics"`
	BiologicalStatus string                     `json:"biological_status"`
	Violations       []string                   `json:"violations,omitempty"`
	Recommendations  []string                   `json:"recommendations,omitempty"`
	PerDocument      map[string]DimensionScores `json:"per_document,omitempty"`
}
