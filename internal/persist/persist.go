// Package persist saves and restores the derived artifacts (vectors,
// graph, manifest, health report) so restarts skip re-embedding.
package persist

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/intent"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/ranker"
	"github.com/starford/ansuz/internal/semantic"
)

// Artifact file names inside the store directory.
const (
	vectorsFile  = "vectors.gob"
	graphFile    = "graph.json"
	manifestFile = "manifest.json"
	reportFile   = "health-report.json"
)

// docCountTolerance is how far the live corpus size may drift from the
// persisted one before artifacts count as stale.
const docCountTolerance = 2

// Manifest fingerprints the inputs that shaped the artifacts. Any
// mismatch against the live configuration makes the artifacts stale.
type Manifest struct {
	Model             string         `json:"model"`
	Dimension         int            `json:"dimension"`
	IntentFingerprint string         `json:"intent_fingerprint"`
	HealerVersion     string         `json:"healer_version"`
	ScorerWeights     ranker.Weights `json:"scorer_weights"`
	CreatedAt         time.Time      `json:"created_at"`
	DocumentCount     int            `json:"document_count"`
}

// vectorArtifact is the gob payload for the embedding index.
type vectorArtifact struct {
	IDs       []string
	Vectors   [][]float32
	Dimension int
}

// Store reads and writes artifacts under one directory. All writes are
// atomic tmp+rename.
type Store struct {
	dir string
}

// NewStore creates the artifact directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// IntentFingerprint hashes the intent profile tables so edits to them
// invalidate persisted scores.
func IntentFingerprint(defs []intent.Definition) string {
	data, _ := json.Marshal(defs)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Save writes all artifacts. The manifest goes last so a crash mid-save
// leaves artifacts that will read as stale, never as corrupt-but-fresh.
func (s *Store) Save(idx *semantic.Index, g *graph.Graph, report *models.HealthReport, m Manifest) error {
	art := vectorArtifact{
		IDs:       idx.IDs(),
		Dimension: idx.Dimension(),
	}
	for i := range art.IDs {
		art.Vectors = append(art.Vectors, idx.Vector(i))
	}
	if err := s.writeGob(vectorsFile, art); err != nil {
		return err
	}
	if err := s.writeJSON(graphFile, g); err != nil {
		return err
	}
	if report != nil {
		if err := s.writeJSON(reportFile, report); err != nil {
			return err
		}
	}
	return s.writeJSON(manifestFile, m)
}

// LoadIfFresh restores the index and graph when the manifest matches
// the live configuration, otherwise apperr.ErrIndexStale.
func (s *Store) LoadIfFresh(want Manifest) (*semantic.Index, *graph.Graph, error) {
	var m Manifest
	if err := s.readJSON(manifestFile, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: no manifest", apperr.ErrIndexStale)
		}
		return nil, nil, err
	}
	if reason := staleness(m, want); reason != "" {
		return nil, nil, fmt.Errorf("%w: %s", apperr.ErrIndexStale, reason)
	}

	var art vectorArtifact
	if err := s.readGob(vectorsFile, &art); err != nil {
		return nil, nil, fmt.Errorf("%w: vectors unreadable: %v", apperr.ErrIndexStale, err)
	}
	idx := semantic.NewIndex(art.Dimension)
	for i, id := range art.IDs {
		if err := idx.Add(id, art.Vectors[i]); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperr.ErrIndexStale, err)
		}
	}

	g := &graph.Graph{}
	if err := s.readJSON(graphFile, g); err != nil {
		return nil, nil, fmt.Errorf("%w: graph unreadable: %v", apperr.ErrIndexStale, err)
	}
	return idx, g, nil
}

// SaveReport writes the health report alone, for scan runs that do not
// touch the index.
func (s *Store) SaveReport(report *models.HealthReport) error {
	return s.writeJSON(reportFile, report)
}

// LoadReport reads the last persisted health report.
func (s *Store) LoadReport() (*models.HealthReport, error) {
	var r models.HealthReport
	if err := s.readJSON(reportFile, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func staleness(have, want Manifest) string {
	switch {
	case have.Model != want.Model:
		return fmt.Sprintf("model %q != %q", have.Model, want.Model)
	case have.Dimension != want.Dimension:
		return fmt.Sprintf("dimension %d != %d", have.Dimension, want.Dimension)
	case have.IntentFingerprint != want.IntentFingerprint:
		return "intent profiles changed"
	case have.HealerVersion != want.HealerVersion:
		return "healer version changed"
	case have.ScorerWeights != want.ScorerWeights:
		return "scorer weights changed"
	}
	drift := have.DocumentCount - want.DocumentCount
	if drift < 0 {
		drift = -drift
	}
	if drift > docCountTolerance {
		return fmt.Sprintf("document count drifted by %d", drift)
	}
	return ""
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", name, err)
	}
	return s.writeAtomic(name, data)
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) writeGob(name string, v any) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("persist: encode %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *Store) readGob(name string, v any) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}

func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}
