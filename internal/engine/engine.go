// Package engine owns the derived structures (corpus, graph, vector
// index, health report) and swaps them atomically on rebuild, so
// queries always see one consistent snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/healer"
	"github.com/starford/ansuz/internal/health"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/intent"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/persist"
	"github.com/starford/ansuz/internal/ranker"
	"github.com/starford/ansuz/internal/semantic"
	"github.com/starford/ansuz/internal/storage"
)

// Events receives engine lifecycle notifications; the SSE broker
// satisfies it.
type Events interface {
	PublishEngineEvent(kind, detail string)
}

// snapshot is one immutable generation of derived structures.
type snapshot struct {
	corpus *corpus.Corpus
	graph  *graph.Graph
	index  *semantic.Index
	report *models.HealthReport
	ranker *ranker.Ranker
}

// Engine coordinates scans, queries, and persistence.
type Engine struct {
	store      storage.Provider
	db         *index.DB
	embedder   semantic.Embedder
	classifier *intent.Classifier
	scorer     *health.Scorer
	weights    ranker.Weights
	artifacts  *persist.Store
	logger     *slog.Logger
	events     Events

	// degrade switches search to the lexical index when the encoder
	// fails.
	degrade bool

	mu   sync.RWMutex
	snap *snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithDB attaches the SQLite lexical index.
func WithDB(db *index.DB) Option {
	return func(e *Engine) { e.db = db }
}

// WithArtifacts attaches a persistence store.
func WithArtifacts(s *persist.Store) Option {
	return func(e *Engine) { e.artifacts = s }
}

// WithEvents attaches an event sink.
func WithEvents(ev Events) Option {
	return func(e *Engine) { e.events = ev }
}

// WithDegradedSearch enables the lexical fallback when the encoder is
// unavailable.
func WithDegradedSearch(on bool) Option {
	return func(e *Engine) { e.degrade = on }
}

// WithWeights overrides the scoring parameters.
func WithWeights(w ranker.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithMaxViolations bounds the violation list in health reports.
func WithMaxViolations(k int) Option {
	return func(e *Engine) { e.scorer.WithMaxViolations(k) }
}

// New creates an Engine. The first snapshot is empty until Rebuild or
// LoadPersisted runs.
func New(store storage.Provider, embedder semantic.Embedder, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		embedder:   embedder,
		classifier: intent.NewClassifier(nil),
		scorer:     health.NewScorer(),
		weights:    ranker.DefaultWeights(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	empty := corpus.New(nil)
	e.snap = e.newSnapshot(empty, graph.Build(empty), semantic.NewIndex(embedder.Dimension()), nil)
	return e
}

func (e *Engine) newSnapshot(c *corpus.Corpus, g *graph.Graph, idx *semantic.Index, report *models.HealthReport) *snapshot {
	return &snapshot{
		corpus: c,
		graph:  g,
		index:  idx,
		report: report,
		ranker: ranker.New(c, g, idx, e.embedder, e.classifier, e.scorer, e.weights),
	}
}

func (e *Engine) current() *snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

func (e *Engine) swap(s *snapshot) {
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()
}

func (e *Engine) publish(kind, detail string) {
	if e.events != nil {
		e.events.PublishEngineEvent(kind, detail)
	}
}

// Rebuild loads the corpus from disk, rebuilds every derived structure,
// and swaps the snapshot in one step. Queries running concurrently keep
// the old snapshot.
func (e *Engine) Rebuild(ctx context.Context) error {
	started := time.Now()
	e.publish("scan.started", "")

	c, violations, err := corpus.Load(e.store)
	if err != nil {
		return fmt.Errorf("engine: load corpus: %w", err)
	}
	g := graph.Build(c)
	idx, err := semantic.BuildIndex(ctx, c, e.embedder)
	if err != nil {
		return fmt.Errorf("engine: build index: %w", err)
	}
	report := e.scorer.Report(c, violations)

	if e.db != nil {
		if err := index.Sync(e.db, e.store, e.logger); err != nil {
			e.logger.Warn("engine: lexical sync failed", slog.String("error", err.Error()))
		}
	}

	e.swap(e.newSnapshot(c, g, idx, report))
	e.logger.Info("engine: rebuilt",
		slog.Int("documents", c.Len()),
		slog.Int("violations", len(violations)),
		slog.Duration("took", time.Since(started)))
	e.publish("scan.completed", fmt.Sprintf("%d documents", c.Len()))
	return nil
}

// Search answers a ranked query over the current snapshot. With
// degraded search enabled, encoder failures fall back to the lexical
// index and results carry the fallback score.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, string, error) {
	s := e.current()
	results, intentName, err := s.ranker.Rank(ctx, query, limit)
	if err == nil {
		return results, intentName, nil
	}
	if !errors.Is(err, apperr.ErrEncoderUnavailable) || !e.degrade || e.db == nil {
		return nil, intentName, err
	}

	e.logger.Warn("engine: encoder unavailable, using lexical fallback", slog.String("query", query))
	rows, dbErr := e.db.Search(query, limit)
	if dbErr != nil {
		return nil, intentName, fmt.Errorf("engine: lexical fallback: %w", dbErr)
	}
	out := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		res := models.SearchResult{
			DocID: row.Path,
			Score: e.weights.FallbackScore,
			Title: row.Title,
			Phase: models.PhaseUnknown,
		}
		if doc := s.corpus.Get(row.Path); doc != nil {
			res.Phase = doc.Phase
			res.BiologicalSystem = doc.BiologicalSystem
			res.Summary = doc.Summary
		}
		out = append(out, res)
	}
	return out, intentName, nil
}

// Report returns the health report of the current snapshot, or
// apperr.ErrCorpusEmpty before the first completed scan.
func (e *Engine) Report() (*models.HealthReport, error) {
	s := e.current()
	if s.report == nil {
		return nil, apperr.ErrCorpusEmpty
	}
	return s.report, nil
}

// Graph returns the relationship graph of the current snapshot.
func (e *Engine) Graph() *graph.Graph {
	return e.current().graph
}

// Corpus returns the document corpus of the current snapshot.
func (e *Engine) Corpus() *corpus.Corpus {
	return e.current().corpus
}

// Heal runs the healer over the docs root and rebuilds afterwards when
// anything changed.
func (e *Engine) Heal(ctx context.Context, h *healer.Healer) ([]healer.Result, error) {
	results, err := h.HealAll()
	if err != nil {
		return results, err
	}
	repaired := 0
	for _, r := range results {
		if r.Outcome == healer.OutcomeRepaired {
			repaired++
			e.publish("doc.healed", r.Path)
		}
	}
	if repaired > 0 {
		if err := e.Rebuild(ctx); err != nil {
			return results, err
		}
	}
	return results, nil
}

// manifest describes the current configuration for staleness checks.
func (e *Engine) manifest(docCount int) persist.Manifest {
	return persist.Manifest{
		Model:             e.embedder.ModelInfo(),
		Dimension:         e.embedder.Dimension(),
		IntentFingerprint: persist.IntentFingerprint(e.classifier.Definitions()),
		HealerVersion:     healer.Version,
		ScorerWeights:     e.weights,
		CreatedAt:         time.Now().UTC(),
		DocumentCount:     docCount,
	}
}

// Persist saves the current snapshot's artifacts.
func (e *Engine) Persist() error {
	if e.artifacts == nil {
		return nil
	}
	s := e.current()
	return e.artifacts.Save(s.index, s.graph, s.report, e.manifest(s.corpus.Len()))
}

// LoadPersisted restores the snapshot from saved artifacts when they
// are still fresh for the on-disk corpus. The health report is always
// recomputed from the live scan, never restored.
func (e *Engine) LoadPersisted(ctx context.Context) error {
	if e.artifacts == nil {
		return fmt.Errorf("%w: no artifact store", apperr.ErrIndexStale)
	}
	c, violations, err := corpus.Load(e.store)
	if err != nil {
		return err
	}
	idx, g, err := e.artifacts.LoadIfFresh(e.manifest(c.Len()))
	if err != nil {
		return err
	}
	report := e.scorer.Report(c, violations)

	if e.db != nil {
		if err := index.Sync(e.db, e.store, e.logger); err != nil {
			e.logger.Warn("engine: lexical sync failed", slog.String("error", err.Error()))
		}
	}

	e.swap(e.newSnapshot(c, g, idx, report))
	e.logger.Info("engine: restored from artifacts", slog.Int("documents", c.Len()))
	return nil
}
