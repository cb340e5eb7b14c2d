package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/subtext/internal/llm"
)

// defaultBatchSize is the number of texts sent in one embedding API call.
const defaultBatchSize = 100

// Embedder wraps an llm.Embedder with single-text and large-batch helpers.
type Embedder struct {
	model     llm.Embedder
	batchSize int
}

// NewEmbedder creates an Embedder. If batchSize <= 0 the default (100) is used.
func NewEmbedder(model llm.Embedder, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Embedder{model: model, batchSize: batchSize}
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.model.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("got %d embeddings, want 1", len(vecs))
	}
	return vecs[0], nil
}

// EmbedBatch returns embedding vectors for all texts in input order,
// splitting them into API-sized batches issued concurrently.
// Returns nil (not error) for empty/nil input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Bound concurrency to avoid overwhelming the API.

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		start := start
		batch := texts[start:end]
		g.Go(func() error {
			vecs, err := e.model.Embed(gCtx, batch)
			if err != nil {
				return fmt.Errorf("embedding batch at %d: %w", start, err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("batch at %d: got %d embeddings for %d texts", start, len(vecs), len(batch))
			}
			copy(results[start:], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
