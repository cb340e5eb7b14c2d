package retrieval

import (
	"context"
	"errors"
	"testing"
)

// mockVectorStore implements VectorStore for testing.
type mockVectorStore struct {
	searchFn func(vector []float32, topK int) ([]ScoredRecord, error)
	insertFn func(records []Record) error
	clearFn  func() error
	countFn  func() (int, error)
}

func (m *mockVectorStore) Search(vector []float32, topK int) ([]ScoredRecord, error) {
	return m.searchFn(vector, topK)
}
func (m *mockVectorStore) Insert(records []Record) error {
	if m.insertFn != nil {
		return m.insertFn(records)
	}
	return nil
}
func (m *mockVectorStore) Clear() error {
	if m.clearFn != nil {
		return m.clearFn()
	}
	return nil
}
func (m *mockVectorStore) Count() (int, error) {
	if m.countFn != nil {
		return m.countFn()
	}
	return 0, nil
}

func TestRetrieve(t *testing.T) {
	store := &mockVectorStore{
		searchFn: func(_ []float32, topK int) ([]ScoredRecord, error) {
			if topK != 5 {
				t.Errorf("topK = %d, want 5", topK)
			}
			return []ScoredRecord{
				{Record: Record{ID: "r1", Source: "terms.pdf", Page: 4, Text: "arbitration clause"}, Score: 0.92},
				{Record: Record{ID: "r2", Source: "terms.pdf", Page: 1, Text: "data sharing"}, Score: 0.85},
			}, nil
		},
	}
	r := NewRetriever(NewEmbedder(&mockEmbedModel{}, 0), store)

	got, err := r.Retrieve(context.Background(), "Liability & Arbitration", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got.Query != "Liability & Arbitration" {
		t.Errorf("Query = %q, want the original query", got.Query)
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got.Chunks))
	}
	if got.Chunks[0].Page != 4 || got.Chunks[0].Text != "arbitration clause" {
		t.Errorf("first chunk = %+v, want page 4 arbitration clause", got.Chunks[0])
	}
	if got.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	store := &mockVectorStore{
		searchFn: func([]float32, int) ([]ScoredRecord, error) {
			return nil, nil
		},
	}
	r := NewRetriever(NewEmbedder(&mockEmbedModel{}, 0), store)

	got, err := r.Retrieve(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !got.Empty() {
		t.Errorf("Empty() = false for empty index, chunks = %v", got.Chunks)
	}
}

func TestRetrieve_StoreError(t *testing.T) {
	wantErr := errors.New("disk on fire")
	store := &mockVectorStore{
		searchFn: func([]float32, int) ([]ScoredRecord, error) {
			return nil, wantErr
		},
	}
	r := NewRetriever(NewEmbedder(&mockEmbedModel{}, 0), store)

	got, err := r.Retrieve(context.Background(), "anything", 5)
	if !errors.Is(err, wantErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, wantErr)
	}
	if !got.Empty() {
		t.Error("context should be empty on store failure")
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	wantErr := errors.New("model offline")
	model := &mockEmbedModel{fn: func([]string) ([][]float32, error) {
		return nil, wantErr
	}}
	searched := false
	store := &mockVectorStore{
		searchFn: func([]float32, int) ([]ScoredRecord, error) {
			searched = true
			return nil, nil
		},
	}
	r := NewRetriever(NewEmbedder(model, 0), store)

	if _, err := r.Retrieve(context.Background(), "anything", 5); !errors.Is(err, wantErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, wantErr)
	}
	if searched {
		t.Error("store searched despite embedding failure")
	}
}
