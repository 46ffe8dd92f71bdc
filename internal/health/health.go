// Package health scores the corpus along seven quality dimensions and
// assembles the aggregate report.
package health

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
)

// Keyword count bounds for the discoverability dimension.
const (
	minKeywords = 8
	maxKeywords = 12
)

// Cross-reference count bounds for the integrity dimension.
const (
	minXrefs = 1
	maxXrefs = 6
)

// fuzzyMinLen is the shortest reference stem eligible for substring
// resolution against corpus IDs.
const fuzzyMinLen = 10

// completeness weighting between required and optional field coverage.
const (
	requiredWeight   = 0.6
	optionalWeight   = 0.4
	completenessPass = 0.8
)

// complianceRatio is the required-field coverage below which a document
// fails metadata compliance.
const complianceRatio = 0.6

// defaultMaxViolations bounds the violation list carried in a report.
const defaultMaxViolations = 5

// Scorer evaluates documents against the quality dimensions. The clock
// is injectable so freshness tests are stable.
type Scorer struct {
	now           func() time.Time
	maxViolations int
}

// NewScorer creates a Scorer using the wall clock.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now, maxViolations: defaultMaxViolations}
}

// WithClock overrides the time source.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// WithMaxViolations overrides how many violations a report lists. The
// total count is always carried in the metrics.
func (s *Scorer) WithMaxViolations(k int) *Scorer {
	if k >= 0 {
		s.maxViolations = k
	}
	return s
}

// ScoreDocument evaluates a single document. Resolution of references
// needs the whole corpus, so it is passed in.
func (s *Scorer) ScoreDocument(doc *models.Document, c *corpus.Corpus) models.DimensionScores {
	var d models.DimensionScores

	req := float64(len(doc.RequiredPresent)) / float64(len(frontmatter.RequiredFields))
	d.MetadataCompliance = req >= complianceRatio || doc.ConsciousnessScore > 0
	d.AIDiscoverability = len(doc.Keywords) >= minKeywords && len(doc.Keywords) <= maxKeywords
	d.CrossReferenceIntegrity = len(doc.CrossReferences) >= minXrefs && len(doc.CrossReferences) <= maxXrefs
	d.CrossReferenceValidity = d.CrossReferenceIntegrity && allResolve(doc.CrossReferences, c)

	opt := float64(len(doc.OptionalPresent)) / float64(len(frontmatter.OptionalFields))
	d.MetadataCompleteness = requiredWeight*req + optionalWeight*opt

	d.Freshness = s.FreshnessScore(doc)
	d.PhaseAlignment = phaseAligned(doc)
	return d
}

// FreshnessScore maps document age to a 0..1 band, scaled by how fast
// the document's subject area moves. Future timestamps score 1.0 and a
// missing timestamp scores 0. The ranker reuses this for its temporal
// signal.
func (s *Scorer) FreshnessScore(doc *models.Document) float64 {
	if doc.LastUpdated.IsZero() {
		return 0
	}
	age := s.now().Sub(doc.LastUpdated)
	if age < 0 {
		return 1.0
	}
	var base float64
	switch days := age.Hours() / 24; {
	case days <= 7:
		base = 1.0
	case days <= 30:
		base = 0.75
	case days <= 90:
		base = 0.5
	case days <= 180:
		base = 0.25
	default:
		base = 0
	}
	score := base * velocityMultiplier(doc)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// fastDomains and mediumDomains scale freshness by how quickly their
// subject matter goes stale.
var (
	fastDomains = []string{
		"consciousness", "ai", "intelligence", "evolution", "godhood", "transcendence",
	}
	mediumDomains = []string{
		"development", "implementation", "architecture", "framework",
	}
)

func velocityMultiplier(doc *models.Document) float64 {
	haystack := strings.ToLower(doc.Summary + " " + strings.Join(doc.Keywords, " "))
	for _, term := range fastDomains {
		if strings.Contains(haystack, term) {
			return 1.3
		}
	}
	for _, term := range mediumDomains {
		if strings.Contains(haystack, term) {
			return 1.1
		}
	}
	return 1.0
}

// allResolve reports whether every reference maps to a corpus document,
// either exactly, by shared base filename, or by long-stem substring.
func allResolve(refs []string, c *corpus.Corpus) bool {
	names := c.FilenameMap()
	for _, ref := range refs {
		if c.Has(ref) {
			continue
		}
		base := ref
		if i := strings.LastIndex(ref, "/"); i >= 0 {
			base = ref[i+1:]
		}
		if _, ok := names[base]; ok {
			continue
		}
		if !fuzzyResolves(base, c) {
			return false
		}
	}
	return true
}

func fuzzyResolves(base string, c *corpus.Corpus) bool {
	stem := strings.TrimSuffix(base, ".md")
	if len(stem) < fuzzyMinLen {
		return false
	}
	for _, id := range c.IDs() {
		if strings.Contains(id, stem) {
			return true
		}
	}
	return false
}

// phaseAligned reports whether the document lives under a directory
// matching its declared phase, like "4.x-transport" for phase 4.
func phaseAligned(doc *models.Document) bool {
	if !doc.HasPhase() {
		return false
	}
	prefix := fmt.Sprintf("%d.x-", doc.Phase)
	for _, seg := range strings.Split(doc.ID, "/") {
		if strings.HasPrefix(seg, prefix) {
			return true
		}
	}
	return false
}

// Report scores every document and aggregates the results into a
// HealthReport. An empty corpus yields a well-formed report with zeroed
// metrics.
func (s *Scorer) Report(c *corpus.Corpus, violations []models.Violation) *models.HealthReport {
	r := &models.HealthReport{
		Timestamp:     s.now().UTC(),
		HealthMetrics: make(map[string]float64),
		PerDocument:   make(map[string]models.DimensionScores),
	}
	for _, v := range violations {
		r.Violations = append(r.Violations, v.Path+": "+v.Kind)
	}

	var compliance, discoverability, integrity, validity, completeness, freshness, alignment float64
	for _, doc := range c.Docs() {
		d := s.ScoreDocument(doc, c)
		r.PerDocument[doc.ID] = d
		compliance += boolScore(d.MetadataCompliance)
		discoverability += boolScore(d.AIDiscoverability)
		integrity += boolScore(d.CrossReferenceIntegrity)
		validity += boolScore(d.CrossReferenceValidity)
		if d.MetadataCompleteness >= completenessPass {
			completeness++
		}
		freshness += d.Freshness
		alignment += boolScore(d.PhaseAlignment)
	}

	total := float64(c.Len())
	r.HealthMetrics["total_documents"] = total
	r.HealthMetrics["total_violations"] = float64(len(r.Violations))
	r.HealthMetrics["metadata_compliance"] = compliance
	r.HealthMetrics["ai_discoverability"] = discoverability
	r.HealthMetrics["cross_reference_integrity"] = integrity
	r.HealthMetrics["cross_reference_validity"] = validity
	r.HealthMetrics["metadata_completeness"] = completeness
	r.HealthMetrics["freshness"] = freshness
	r.HealthMetrics["phase_alignment"] = alignment

	r.BiologicalStatus = statusLine(compliance, total)
	r.Recommendations = recommendations(compliance, discoverability, validity, total)
	sort.Strings(r.Violations)
	if len(r.Violations) > s.maxViolations {
		r.Violations = r.Violations[:s.maxViolations]
	}
	return r
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func statusLine(compliance, total float64) string {
	if total == 0 {
		return "no documents scanned"
	}
	pct := compliance / total
	switch {
	case pct >= 0.95:
		return "thriving"
	case pct >= 0.8:
		return "stable"
	case pct >= 0.5:
		return "strained"
	default:
		return "critical"
	}
}

func recommendations(compliance, discoverability, validity, total float64) []string {
	var recs []string
	if total == 0 {
		return recs
	}
	if compliance < 0.95*total {
		recs = append(recs, fmt.Sprintf(
			"bring %d documents to full metadata compliance", int(total-compliance)))
	}
	if discoverability < 0.9*compliance {
		recs = append(recs, fmt.Sprintf(
			"tune keyword counts into the %d..%d range for low-discoverability documents", minKeywords, maxKeywords))
	}
	if validity < 0.95*compliance {
		recs = append(recs, "repair broken cross-references flagged in the per-document scores")
	}
	return recs
}
