package config

import (
	"strings"
	"testing"
)

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want non-nil without API key")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("error %q does not mention GEMINI_API_KEY", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-3-flash-preview" {
		t.Errorf("Model = %q, want gemini-3-flash-preview", cfg.Gemini.Model)
	}
	if cfg.Ingest.ChunkSize != 1500 || cfg.Ingest.ChunkOverlap != 150 {
		t.Errorf("chunking = %d/%d, want 1500/150", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Retrieval.TopK)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SUBTEXT_PORT", "9000")
	t.Setenv("SUBTEXT_TOP_K", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 8 {
		t.Errorf("TopK = %d, want 8", cfg.Retrieval.TopK)
	}
}

func TestLoad_InvalidChunking(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SUBTEXT_CHUNK_SIZE", "100")
	t.Setenv("SUBTEXT_CHUNK_OVERLAP", "100")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want non-nil when overlap >= size")
	}
}
