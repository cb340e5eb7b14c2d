package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all process configuration. Values come from environment
// variables (SUBTEXT_*), optionally loaded from a .env file first.
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Retrieval RetrievalConfig
	Ingest    IngestConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int `env:"SUBTEXT_PORT" envDefault:"8080"`
}

type GeminiConfig struct {
	APIKey     string `env:"GEMINI_API_KEY"`
	Model      string `env:"SUBTEXT_MODEL" envDefault:"gemini-3-flash-preview"`
	EmbedModel string `env:"SUBTEXT_EMBED_MODEL" envDefault:"gemini-embedding-001"`
}

type StorageConfig struct {
	DataDir string `env:"SUBTEXT_DATA_DIR" envDefault:"./data"`
}

type RetrievalConfig struct {
	TopK int `env:"SUBTEXT_TOP_K" envDefault:"5"`
}

type IngestConfig struct {
	ChunkSize    int `env:"SUBTEXT_CHUNK_SIZE" envDefault:"1500"`
	ChunkOverlap int `env:"SUBTEXT_CHUNK_OVERLAP" envDefault:"150"`
}

type LogConfig struct {
	Level string `env:"SUBTEXT_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present (ignored if missing).
//
// A missing Gemini API key is a fatal configuration error: the analysis
// agent must refuse to start rather than fail on its first model call.
func Load() (Config, error) {
	// Best-effort; a missing .env file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("missing required config: Gemini API key. Set it via environment variable GEMINI_API_KEY")
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)",
			cfg.Ingest.ChunkOverlap, cfg.Ingest.ChunkSize)
	}
	return nil
}
