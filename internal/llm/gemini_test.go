package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// generateJSON builds a generateContent response with the given text parts.
func generateJSON(texts ...string) []byte {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []part `json:"parts"`
	}
	type candidate struct {
		Content content `json:"content"`
	}
	type resp struct {
		Candidates []candidate `json:"candidates"`
	}
	r := resp{Candidates: []candidate{{}}}
	for _, t := range texts {
		r.Candidates[0].Content.Parts = append(r.Candidates[0].Content.Parts, part{Text: t})
	}
	b, _ := json.Marshal(r)
	return b
}

func TestGenerate_Text(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write(generateJSON("hello ", "world"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "gemini-3-flash-preview", "gemini-embedding-001", srv.URL)
	got, err := c.Generate(context.Background(), Request{Prompt: "hi", Effort: EffortMedium})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello world" {
		t.Errorf("Generate() = %q, want %q", got, "hello world")
	}

	var req struct {
		GenerationConfig struct {
			ResponseMIMEType string `json:"responseMimeType"`
			ThinkingConfig   struct {
				ThinkingLevel string `json:"thinkingLevel"`
			} `json:"thinkingConfig"`
		} `json:"generationConfig"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("unmarshaling captured request: %v", err)
	}
	if req.GenerationConfig.ResponseMIMEType != "" {
		t.Errorf("responseMimeType = %q, want empty for text format", req.GenerationConfig.ResponseMIMEType)
	}
	if req.GenerationConfig.ThinkingConfig.ThinkingLevel != "medium" {
		t.Errorf("thinkingLevel = %q, want %q", req.GenerationConfig.ThinkingConfig.ThinkingLevel, "medium")
	}
}

func TestGenerate_JSONFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"responseMimeType":"application/json"`) {
			t.Errorf("request body missing JSON mime type: %s", body)
		}
		w.Write(generateJSON(`[]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "gemini-3-flash-preview", "gemini-embedding-001", srv.URL)
	got, err := c.Generate(context.Background(), Request{Prompt: "analyze", Format: FormatJSON, Effort: EffortHigh})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "[]" {
		t.Errorf("Generate() = %q, want %q", got, "[]")
	}
}

func TestGenerate_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("x-goog-api-key = %q, want %q", got, "secret")
		}
		w.Write(generateJSON("ok"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret", "m", "e", srv.URL)
	if _, err := c.Generate(context.Background(), Request{Prompt: "x"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "m", "e", srv.URL)
	if _, err := c.Generate(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Error("Generate() error = nil, want non-nil for empty candidates")
	}
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "m", "e", srv.URL)
	if _, err := c.Generate(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Error("Generate() error = nil, want non-nil for 500")
	}
}

func TestGenerate_RetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write(generateJSON("recovered"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "m", "e", srv.URL)
	got, err := c.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "recovered" {
		t.Errorf("Generate() = %q, want %q", got, "recovered")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestEmbed_Batch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "m", "gemini-embedding-001", srv.URL)
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if vecs[1][0] != 0.3 {
		t.Errorf("vecs[1][0] = %v, want 0.3", vecs[1][0])
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[{"values":[0.1]}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("key", "m", "e", srv.URL)
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("Embed() error = nil, want non-nil for count mismatch")
	}
}

func TestEmbed_EmptyInput(t *testing.T) {
	c := NewClientWithBaseURL("key", "m", "e", "http://unused")
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs != nil {
		t.Errorf("Embed(nil) = %v, want nil", vecs)
	}
}
