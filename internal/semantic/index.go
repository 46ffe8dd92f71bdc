package semantic

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/models"
)

// Index is a flat vector index over document embeddings. ids and
// vectors are parallel; search is a brute-force scan, which is the
// right trade at documentation-corpus scale.
type Index struct {
	ids     []string
	vectors [][]float32
	dim     int
}

// Hit is one nearest-neighbor match with cosine similarity in [-1, 1].
type Hit struct {
	ID         string
	Similarity float64
}

// NewIndex creates an empty index for vectors of the given width.
func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

// BuildIndex embeds every document's searchable text and returns a
// populated index. Document order follows corpus ID order, so two
// builds over the same corpus produce identical indexes.
func BuildIndex(ctx context.Context, c *corpus.Corpus, e Embedder) (*Index, error) {
	docs := c.Docs()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = EmbeddingText(d)
	}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	idx := NewIndex(e.Dimension())
	for i, d := range docs {
		if err := idx.Add(d.ID, vecs[i]); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// EmbeddingText is the canonical text fed to the encoder for a
// document: title, summary, and the body prefix, newline-joined.
func EmbeddingText(d *models.Document) string {
	out := d.Title
	if d.Summary != "" {
		out += "\n" + d.Summary
	}
	if d.BodyPrefix != "" {
		out += "\n" + d.BodyPrefix
	}
	return out
}

// Add appends a document vector. The vector must match the index width.
func (x *Index) Add(id string, vec []float32) error {
	if len(vec) != x.dim {
		return fmt.Errorf("semantic: vector for %s has dimension %d, index wants %d", id, len(vec), x.dim)
	}
	x.ids = append(x.ids, id)
	x.vectors = append(x.vectors, vec)
	return nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.ids) }

// Dimension returns the vector width.
func (x *Index) Dimension() int { return x.dim }

// IDs returns the indexed document IDs in insertion order.
func (x *Index) IDs() []string { return x.ids }

// Vector returns the stored vector at position i.
func (x *Index) Vector(i int) []float32 { return x.vectors[i] }

// Search returns the k most similar documents to the query vector,
// sorted by descending similarity with ID tie-breaks.
func (x *Index) Search(query []float32, k int) []Hit {
	hits := make([]Hit, 0, len(x.ids))
	for i, v := range x.vectors {
		hits = append(hits, Hit{ID: x.ids[i], Similarity: Dot(query, v)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ID < hits[j].ID
	})
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// SemanticScores embeds the query and maps each of the top-k documents
// to its similarity scaled by 100, the seed scores for ranking.
func (x *Index) SemanticScores(ctx context.Context, e Embedder, query string, k int) (map[string]float64, error) {
	qv, err := e.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, k)
	for _, h := range x.Search(qv, k) {
		out[h.ID] = h.Similarity * 100
	}
	return out, nil
}
