package graph

import (
	"encoding/json"
	"testing"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/models"
)

func TestBuild_WeightContributions(t *testing.T) {
	c := corpus.New([]*models.Document{
		{
			ID: "a.md", BiologicalSystem: "storage-engine", Phase: 4,
			Keywords:        []string{"wal", "durability"},
			CrossReferences: []string{"old/b.md"},
		},
		{
			ID: "b.md", BiologicalSystem: "storage-engine", Phase: 5,
			Keywords: []string{"wal", "compaction"},
		},
		{ID: "c.md", BiologicalSystem: "transport", Phase: 4},
	})
	g := Build(c)

	// same system 10 + adjacent phase 5 + one shared keyword 2 + one
	// resolving reference 5
	if w := g.Weight("a.md", "b.md"); w != 22 {
		t.Errorf("a-b weight = %v, want 22", w)
	}
	// a and c: same phase only
	if w := g.Weight("a.md", "c.md"); w != 3 {
		t.Errorf("a-c weight = %v, want 3", w)
	}
	// b and c: adjacent phase only
	if w := g.Weight("b.md", "c.md"); w != 5 {
		t.Errorf("b-c weight = %v, want 5", w)
	}
}

func TestBuild_Symmetric(t *testing.T) {
	c := corpus.New([]*models.Document{
		{ID: "a.md", Phase: models.PhaseUnknown, Keywords: []string{"x"}},
		{ID: "b.md", Phase: models.PhaseUnknown, Keywords: []string{"x"}},
	})
	g := Build(c)
	if g.Weight("a.md", "b.md") != g.Weight("b.md", "a.md") {
		t.Error("edge weights must be symmetric")
	}
	if g.Weight("a.md", "a.md") != 0 {
		t.Error("no self loops")
	}
}

func TestBuild_EmptySystemsDoNotMatch(t *testing.T) {
	c := corpus.New([]*models.Document{
		{ID: "a.md", Phase: models.PhaseUnknown},
		{ID: "b.md", Phase: models.PhaseUnknown},
	})
	g := Build(c)
	if w := g.Weight("a.md", "b.md"); w != 0 {
		t.Errorf("two empty system labels produced weight %v", w)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("edges = %d, want 0", g.EdgeCount())
	}
}

func TestNeighbors_SortedByWeight(t *testing.T) {
	c := corpus.New([]*models.Document{
		{ID: "hub.md", BiologicalSystem: "core", Phase: 4, Keywords: []string{"k1", "k2"}},
		{ID: "strong.md", BiologicalSystem: "core", Phase: 4, Keywords: []string{"k1", "k2"}},
		{ID: "weak.md", Phase: 5},
	})
	g := Build(c)
	ns := g.Neighbors("hub.md")
	if len(ns) != 2 {
		t.Fatalf("neighbors = %v", ns)
	}
	if ns[0].ID != "strong.md" || ns[1].ID != "weak.md" {
		t.Errorf("order = %v", ns)
	}
	if ns[0].Weight <= ns[1].Weight {
		t.Errorf("weights not descending: %v", ns)
	}
}

func TestGraph_JSONRoundTrip(t *testing.T) {
	c := corpus.New([]*models.Document{
		{ID: "a.md", Phase: models.PhaseUnknown, BiologicalSystem: "core"},
		{ID: "b.md", Phase: models.PhaseUnknown, BiologicalSystem: "core"},
		{ID: "c.md", Phase: 2},
		{ID: "d.md", Phase: 3},
	})
	g := Build(c)

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	var back Graph
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.EdgeCount() != g.EdgeCount() {
		t.Errorf("edges = %d, want %d", back.EdgeCount(), g.EdgeCount())
	}
	if back.Weight("a.md", "b.md") != g.Weight("a.md", "b.md") {
		t.Error("weight lost in round trip")
	}
	if back.Weight("c.md", "d.md") != 5 {
		t.Errorf("c-d = %v, want 5", back.Weight("c.md", "d.md"))
	}
}
