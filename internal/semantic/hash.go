package semantic

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashEmbedder maps tokens to FNV-hashed buckets, so texts sharing
// tokens get similar vectors. It is deterministic and offline; tests
// and degraded local setups use it in place of a remote encoder.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a bucket embedder of the given width.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

// Dimension returns the vector width.
func (e *HashEmbedder) Dimension() int { return e.dim }

// ModelInfo identifies the bucket scheme for manifest fingerprinting.
func (e *HashEmbedder) ModelInfo() string { return "hash-fnv" }

// Embed buckets the lowercased tokens of text and normalizes.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]{}")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		v[h.Sum32()%uint32(e.dim)]++
	}
	return Normalize(v), nil
}

// EmbedBatch embeds each text in order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var _ Embedder = (*HashEmbedder)(nil)
