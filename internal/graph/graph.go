// Package graph builds the weighted document relationship graph used
// for ranking expansion and the graph API.
package graph

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/models"
)

// Edge weight contributions.
const (
	weightSameSystem    = 10.0
	weightAdjacentPhase = 5.0
	weightSamePhase     = 3.0
	weightPerKeyword    = 2.0
	weightPerReference  = 5.0
)

// Graph is an undirected weighted adjacency map over document IDs. It
// is immutable after Build.
type Graph struct {
	adj map[string]map[string]float64
}

// Neighbor pairs an adjacent document with its edge weight.
type Neighbor struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

// Build computes pairwise affinity over the corpus. Weights sum the
// shared-system, phase, keyword-overlap, and cross-reference signals;
// zero-weight pairs get no edge and nodes never link to themselves.
func Build(c *corpus.Corpus) *Graph {
	docs := c.Docs()
	g := &Graph{adj: make(map[string]map[string]float64, len(docs))}
	names := c.FilenameMap()

	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			a, b := docs[i], docs[j]
			w := affinity(a, b, names)
			if w <= 0 {
				continue
			}
			g.link(a.ID, b.ID, w)
			g.link(b.ID, a.ID, w)
		}
	}
	return g
}

func affinity(a, b *models.Document, names map[string]string) float64 {
	var w float64
	if a.BiologicalSystem != "" && a.BiologicalSystem == b.BiologicalSystem {
		w += weightSameSystem
	}
	if a.HasPhase() && b.HasPhase() {
		switch diff := a.Phase - b.Phase; {
		case diff == 1 || diff == -1:
			w += weightAdjacentPhase
		case diff == 0:
			w += weightSamePhase
		}
	}
	w += weightPerKeyword * float64(keywordOverlap(a.Keywords, b.Keywords))
	w += weightPerReference * float64(referenceOverlap(a, b, names))
	return w
}

func keywordOverlap(as, bs []string) int {
	set := make(map[string]struct{}, len(as))
	for _, k := range as {
		set[fold(k)] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(bs))
	for _, k := range bs {
		term := fold(k)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if _, ok := set[term]; ok {
			n++
		}
	}
	return n
}

// referenceOverlap counts cross-references in either direction that
// resolve by filename to the other document.
func referenceOverlap(a, b *models.Document, names map[string]string) int {
	n := 0
	n += refsTo(a.CrossReferences, b.ID, names)
	n += refsTo(b.CrossReferences, a.ID, names)
	return n
}

func refsTo(refs []string, targetID string, names map[string]string) int {
	n := 0
	for _, ref := range refs {
		base := ref
		if i := strings.LastIndex(ref, "/"); i >= 0 {
			base = ref[i+1:]
		}
		if ref == targetID || names[base] == targetID {
			n++
		}
	}
	return n
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (g *Graph) link(from, to string, w float64) {
	m, ok := g.adj[from]
	if !ok {
		m = make(map[string]float64)
		g.adj[from] = m
	}
	m[to] = w
}

// Weight returns the edge weight between two documents, 0 when no edge
// exists.
func (g *Graph) Weight(a, b string) float64 { return g.adj[a][b] }

// Neighbors returns the adjacency of id sorted by descending weight,
// ties broken by ID.
func (g *Graph) Neighbors(id string) []Neighbor {
	m := g.adj[id]
	out := make([]Neighbor, 0, len(m))
	for to, w := range m {
		out = append(out, Neighbor{ID: to, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Nodes returns every document ID with at least one edge, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.adj))
	for id := range g.adj {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, m := range g.adj {
		n += len(m)
	}
	return n / 2
}

// Degree returns the number of neighbors of id.
func (g *Graph) Degree(id string) int { return len(g.adj[id]) }

type jsonLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type jsonGraph struct {
	Nodes []string   `json:"nodes"`
	Links []jsonLink `json:"links"`
}

// MarshalJSON renders a nodes/links document with each undirected edge
// listed once, source < target, in deterministic order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc := jsonGraph{Nodes: g.Nodes()}
	for _, from := range doc.Nodes {
		for _, n := range g.Neighbors(from) {
			if from < n.ID {
				doc.Links = append(doc.Links, jsonLink{Source: from, Target: n.ID, Weight: n.Weight})
			}
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds the adjacency from a nodes/links document.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc jsonGraph
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	g.adj = make(map[string]map[string]float64, len(doc.Nodes))
	for _, l := range doc.Links {
		g.link(l.Source, l.Target, l.Weight)
		g.link(l.Target, l.Source, l.Weight)
	}
	return nil
}
