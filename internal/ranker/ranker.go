// Package ranker combines semantic, relational, lexical, contextual,
// and temporal signals into one ranked result list.
package ranker

import (
	"context"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/health"
	"github.com/starford/ansuz/internal/intent"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/semantic"
)

// SummaryLimit bounds the summary field of a result.
const SummaryLimit = 120

// Weights are the tunable scoring parameters. They feed the artifact
// manifest so a weight change invalidates persisted scores.
type Weights struct {
	GraphSeedThreshold float64 `json:"graph_seed_threshold"`
	GraphWeightDivisor float64 `json:"graph_weight_divisor"`
	GraphBoostScale    float64 `json:"graph_boost_scale"`
	ExactKeywordBoost  float64 `json:"exact_keyword_boost"`
	PhaseIntentBonus   float64 `json:"phase_intent_bonus"`
	ConnectivityScale  float64 `json:"connectivity_scale"`
	ConnectivityCap    float64 `json:"connectivity_cap"`
	MetaphorHitScale   float64 `json:"metaphor_hit_scale"`
	MetaphorHitCap     float64 `json:"metaphor_hit_cap"`
	CategoryAlignBonus float64 `json:"category_align_bonus"`
	FreshnessScale     float64 `json:"freshness_scale"`
	FallbackScore      float64 `json:"fallback_score"`
	// SeedPoolSize fixes the semantic candidate pool. Zero means
	// five times the requested limit.
	SeedPoolSize int `json:"seed_pool_size"`
}

// DefaultWeights returns the standard scoring parameters.
func DefaultWeights() Weights {
	return Weights{
		GraphSeedThreshold: 60,
		GraphWeightDivisor: 20,
		GraphBoostScale:    25,
		ExactKeywordBoost:  15,
		PhaseIntentBonus:   2,
		ConnectivityScale:  0.1,
		ConnectivityCap:    1,
		MetaphorHitScale:   0.2,
		MetaphorHitCap:     1.5,
		CategoryAlignBonus: 0.5,
		FreshnessScale:     0.2,
		FallbackScore:      20,
	}
}

// Ranker scores queries over an immutable corpus snapshot.
type Ranker struct {
	corpus     *corpus.Corpus
	graph      *graph.Graph
	index      *semantic.Index
	embedder   semantic.Embedder
	classifier *intent.Classifier
	scorer     *health.Scorer
	vocab      *Vocabulary
	weights    Weights
}

// New assembles a Ranker over one snapshot of the derived structures.
func New(c *corpus.Corpus, g *graph.Graph, idx *semantic.Index, e semantic.Embedder,
	cl *intent.Classifier, hs *health.Scorer, w Weights) *Ranker {
	return &Ranker{
		corpus:     c,
		graph:      g,
		index:      idx,
		embedder:   e,
		classifier: cl,
		scorer:     hs,
		vocab:      DefaultVocabulary(),
		weights:    w,
	}
}

// Rank answers a query with at most limit results in descending score
// order. An empty corpus yields an empty list. Encoder failures
// propagate so the caller can decide whether to degrade.
func (r *Ranker) Rank(ctx context.Context, query string, limit int) ([]models.SearchResult, string, error) {
	intentName := r.classifier.Classify(query)
	if r.corpus.Len() == 0 {
		return []models.SearchResult{}, intentName, nil
	}
	if limit <= 0 {
		limit = 10
	}

	pool := r.weights.SeedPoolSize
	if pool <= 0 {
		pool = limit * 5
	}
	scores, err := r.index.SemanticScores(ctx, r.embedder, query, pool)
	if err != nil {
		return nil, intentName, err
	}

	r.expandGraph(scores)

	q := strings.ToLower(query)
	tokens := queryTokens(q)
	r.boostExactKeywords(scores, tokens)
	r.applyIntentMultiplier(scores, intentName)
	r.applyContextBonuses(scores, q, intentName)
	r.keywordFallback(scores, tokens)

	return r.assemble(scores, tokens, limit), intentName, nil
}

// expandGraph propagates score from strong seeds to their neighbors.
func (r *Ranker) expandGraph(scores map[string]float64) {
	boosts := make(map[string]float64)
	for id, score := range scores {
		if score <= r.weights.GraphSeedThreshold {
			continue
		}
		for _, n := range r.graph.Neighbors(id) {
			boosts[n.ID] += n.Weight / r.weights.GraphWeightDivisor * r.weights.GraphBoostScale
		}
	}
	for id, b := range boosts {
		scores[id] += b
	}
}

// boostExactKeywords rewards documents whose declared keywords match
// query tokens exactly.
func (r *Ranker) boostExactKeywords(scores map[string]float64, tokens []string) {
	for id := range scores {
		doc := r.corpus.Get(id)
		if doc == nil {
			continue
		}
		n := len(matchingKeywords(doc, tokens))
		if n > 0 {
			scores[id] += r.weights.ExactKeywordBoost * float64(n)
		}
	}
}

// applyIntentMultiplier scales every accumulated score by the intent
// profile's multiplier. Unset multipliers count as 1.0.
func (r *Ranker) applyIntentMultiplier(scores map[string]float64, intentName string) {
	def, ok := r.classifier.Lookup(intentName)
	if !ok || def.KeywordMultiplier <= 0 || def.KeywordMultiplier == 1.0 {
		return
	}
	for id := range scores {
		scores[id] *= def.KeywordMultiplier
	}
}

// applyContextBonuses adds the small second-pass signals: phase-intent
// alignment, graph connectivity, metaphor density, and freshness.
func (r *Ranker) applyContextBonuses(scores map[string]float64, query, intentName string) {
	def, hasIntent := r.classifier.Lookup(intentName)
	for id := range scores {
		doc := r.corpus.Get(id)
		if doc == nil {
			continue
		}

		if hasIntent && doc.HasPhase() && phasePreferred(def, doc.Phase) {
			scores[id] += r.weights.PhaseIntentBonus
		}

		conn := r.weights.ConnectivityScale * float64(r.graph.Degree(id))
		if conn > r.weights.ConnectivityCap {
			conn = r.weights.ConnectivityCap
		}
		scores[id] += conn

		text := docText(doc)
		metaphor := r.weights.MetaphorHitScale * float64(r.vocab.hits(text))
		if metaphor > r.weights.MetaphorHitCap {
			metaphor = r.weights.MetaphorHitCap
		}
		metaphor += r.weights.CategoryAlignBonus * float64(r.vocab.alignedCategories(query, text))
		scores[id] += metaphor

		scores[id] += r.weights.FreshnessScale * r.scorer.FreshnessScore(doc)
	}
}

// keywordFallback surfaces documents the semantic pass missed entirely
// but whose declared keywords match a query token.
func (r *Ranker) keywordFallback(scores map[string]float64, tokens []string) {
	for _, tok := range tokens {
		for _, id := range r.corpus.ByKeyword(tok) {
			if _, seen := scores[id]; !seen {
				scores[id] = r.weights.FallbackScore
			}
		}
	}
}

func (r *Ranker) assemble(scores map[string]float64, tokens []string, limit int) []models.SearchResult {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		if r.corpus.Has(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]models.SearchResult, 0, len(ids))
	for _, id := range ids {
		doc := r.corpus.Get(id)
		out = append(out, models.SearchResult{
			DocID:            doc.ID,
			Score:            scores[id],
			Title:            doc.Title,
			Phase:            doc.Phase,
			BiologicalSystem: doc.BiologicalSystem,
			MatchingKeywords: matchingKeywords(doc, tokens),
			Summary:          truncate(summaryOf(doc), SummaryLimit),
		})
	}
	return out
}

func matchingKeywords(doc *models.Document, tokens []string) []string {
	var out []string
	for _, kw := range doc.Keywords {
		folded := strings.ToLower(strings.TrimSpace(kw))
		for _, tok := range tokens {
			if folded == tok {
				out = append(out, kw)
				break
			}
		}
	}
	return out
}

func phasePreferred(def intent.Definition, phase int) bool {
	for _, p := range def.PreferredPhases {
		if p == phase {
			return true
		}
	}
	return false
}

// docText is the haystack for metaphor matching: the summary plus the
// declared keywords.
func docText(doc *models.Document) string {
	return strings.ToLower(doc.Summary + " " + strings.Join(doc.Keywords, " "))
}

func summaryOf(doc *models.Document) string {
	if doc.Summary != "" {
		return doc.Summary
	}
	return strings.TrimSpace(doc.BodyPrefix)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func queryTokens(q string) []string {
	fields := strings.Fields(q)
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tok := strings.Trim(f, ".,;:!?\"'()")
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
