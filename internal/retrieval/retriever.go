package retrieval

import (
	"context"
	"fmt"
)

// Chunk is a retrieved context fragment with its source page and score.
type Chunk struct {
	Text   string
	Source string
	Page   int
	Score  float32
}

// Context is the ordered result of one retrieval query, most similar
// chunk first. It is transient and owned by the caller.
type Context struct {
	Query  string
	Chunks []Chunk
}

// Empty reports whether no chunks were retrieved.
func (c Context) Empty() bool {
	return len(c.Chunks) == 0
}

// Retriever combines embedding and vector search to find relevant
// document clauses. The query must be embedded with the same model as
// the indexed chunks; that invariant is a configuration precondition,
// not runtime-checked.
type Retriever struct {
	embedder *Embedder
	store    VectorStore
}

// NewRetriever creates a Retriever backed by the given Embedder and VectorStore.
func NewRetriever(embedder *Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and returns the top-K most similar chunks.
// An empty index yields an empty Context, not an error. Embedding and
// store failures are returned; callers on the analysis path degrade
// them to "no context" rather than aborting.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (Context, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return Context{Query: query}, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := r.store.Search(vec, topK)
	if err != nil {
		return Context{Query: query}, fmt.Errorf("searching index: %w", err)
	}

	chunks := make([]Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = Chunk{
			Text:   s.Text,
			Source: s.Source,
			Page:   s.Page,
			Score:  s.Score,
		}
	}
	return Context{Query: query, Chunks: chunks}, nil
}
