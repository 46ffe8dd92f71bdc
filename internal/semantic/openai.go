package semantic

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apperr"
)

// batchSize is the number of texts sent per embeddings request.
const batchSize = 64

// maxInflight bounds concurrent embeddings requests.
const maxInflight = 4

// OpenAIEmbedder calls the OpenAI embeddings endpoint. Vectors are
// L2-normalized before they are returned.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
}

// NewOpenAIEmbedder creates an embedder for the given model and
// expected dimension.
func NewOpenAIEmbedder(apiKey, model string, dim int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
		dim:    dim,
	}
}

// Dimension returns the configured vector width.
func (e *OpenAIEmbedder) Dimension() int { return e.dim }

// ModelInfo returns the model identifier for manifest fingerprinting.
func (e *OpenAIEmbedder) ModelInfo() string { return string(e.model) }

// Embed returns the normalized embedding of a single text. Failures
// wrap apperr.ErrEncoderUnavailable so callers can degrade.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts preserving order, with bounded request
// concurrency.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflight)

	for start := 0; start < len(texts); start += batchSize {
		start := start
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vecs, err := e.request(ctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEncoderUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			apperr.ErrEncoderUnavailable, len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("%w: dimension %d, expected %d",
				apperr.ErrEncoderUnavailable, len(d.Embedding), e.dim)
		}
		out[d.Index] = Normalize(d.Embedding)
	}
	return out, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)
