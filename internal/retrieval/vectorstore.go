package retrieval

import "time"

// VectorStore is the interface for vector storage and similarity search
// backends. The default implementation uses SQLite with brute-force
// cosine similarity, which is comfortable for single-document indexes
// (a long contract rarely exceeds a few hundred chunks).
//
// The store holds exactly one document's chunks at a time: ingestion
// calls Clear before repopulating. Concurrent reads during an in-flight
// Clear/Insert sequence are not coordinated here; the single-active-
// document workflow serializes them at the caller.
type VectorStore interface {
	// Insert adds records to the store.
	Insert(records []Record) error

	// Search performs vector similarity search, returning the top-K
	// most similar records ordered by descending score.
	Search(vector []float32, topK int) ([]ScoredRecord, error)

	// Clear removes all records. Called before re-ingestion so the
	// index only ever reflects the most recently ingested document.
	Clear() error

	// Count returns the number of stored records.
	Count() (int, error)
}

// Record represents one indexed chunk of a document page.
type Record struct {
	ID        string
	Source    string // originating document filename or URL
	Page      int    // 1-based page number the chunk was extracted from
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredRecord is a Record with a similarity score attached.
type ScoredRecord struct {
	Record
	Score float32
}
