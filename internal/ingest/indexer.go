package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/subtext/internal/retrieval"
)

// Embedder generates embeddings for chunk batches.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorWriter is the subset of the vector store the indexer needs.
type VectorWriter interface {
	Clear() error
	Insert(records []retrieval.Record) error
}

// Indexer turns a parsed document into page-tagged chunks and populates
// the semantic index. The index holds one active document: every Ingest
// unconditionally clears whatever was there before.
type Indexer struct {
	embedder  Embedder
	store     VectorWriter
	chunkSize int
	overlap   int
	logger    *slog.Logger
}

// NewIndexer creates an Indexer. Non-positive chunk parameters fall
// back to the package defaults.
func NewIndexer(embedder Embedder, store VectorWriter, chunkSize, overlap int) *Indexer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    slog.Default(),
	}
}

// Ingest chunks each page independently (chunks never span page
// boundaries), embeds the chunks, and replaces the index contents.
// Returns the number of chunks stored. A document with no extractable
// text yields 0 with a warning, not an error, so analysis can proceed
// to an empty report.
func (ix *Indexer) Ingest(ctx context.Context, doc Document) (int, error) {
	var texts []string
	var pages []int

	for _, page := range doc.Pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, chunk := range Split(page.Text, ix.chunkSize, ix.overlap) {
			texts = append(texts, chunk)
			pages = append(pages, page.Number)
		}
	}

	if len(texts) == 0 {
		ix.logger.Warn("no text extracted from document", "source", doc.Source)
		// Still clear: the empty document is now the active one, and a
		// follow-up analysis must not read the previous document's chunks.
		if err := ix.store.Clear(); err != nil {
			return 0, fmt.Errorf("clearing index: %w", err)
		}
		return 0, nil
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(texts), err)
	}

	if err := ix.store.Clear(); err != nil {
		return 0, fmt.Errorf("clearing index: %w", err)
	}

	now := time.Now().UTC()
	records := make([]retrieval.Record, len(texts))
	for i, text := range texts {
		records[i] = retrieval.Record{
			ID:        uuid.New().String(),
			Source:    doc.Source,
			Page:      pages[i],
			Text:      text,
			Embedding: vectors[i],
			CreatedAt: now,
		}
	}

	if err := ix.store.Insert(records); err != nil {
		return 0, fmt.Errorf("inserting %d records: %w", len(records), err)
	}

	ix.logger.Info("document indexed", "source", doc.Source, "pages", len(doc.Pages), "chunks", len(records))
	return len(records), nil
}
