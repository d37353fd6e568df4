// Package file loads and persists the application configuration as TOML.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the configuration directory under the user's home.
const DefaultDirName = ".pdfrag"

// Config is the full application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Vector    VectorConfig    `toml:"vector"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Ingest    IngestConfig    `toml:"ingest"`
}

// StorageConfig locates the metadata database and uploaded files.
type StorageConfig struct {
	// DataDir holds the SQLite database and uploaded PDFs.
	// Empty means ~/.pdfrag/data.
	DataDir string `toml:"data_dir"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	BaseURL       string  `toml:"base_url"`
	Model         string  `toml:"model"`
	Temperature   float64 `toml:"temperature"`
	MaxTokens     int     `toml:"max_tokens"`
	ContextWindow int     `toml:"context_window"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	// Provider is "memory" or "chroma".
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Collection string `toml:"collection"`
}

// ChunkingConfig controls how cleaned text is split.
type ChunkingConfig struct {
	Size      int `toml:"size"`
	Overlap   int `toml:"overlap"`
	MinLength int `toml:"min_length"`
}

// RetrievalConfig controls candidate search and re-ranking.
type RetrievalConfig struct {
	TopK              int     `toml:"top_k"`
	UseMMR            bool    `toml:"use_mmr"`
	MMRLambda         float64 `toml:"mmr_lambda"`
	KeywordExpansion  bool    `toml:"keyword_expansion"`
	SemanticExpansion bool    `toml:"semantic_expansion"`
	DistanceWeight    float64 `toml:"distance_weight"`
	OverlapWeight     float64 `toml:"overlap_weight"`
	DistanceCutoff    float64 `toml:"distance_cutoff"`
	ContextLength     int     `toml:"context_length"`
}

// IngestConfig controls background document processing.
type IngestConfig struct {
	// Workers is the number of background processing goroutines.
	Workers int `toml:"workers"`

	// EmbedRate caps embedding batch requests per second. Zero
	// disables the limit.
	EmbedRate float64 `toml:"embed_rate"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "mxbai-embed-large",
		},
		LLM: LLMConfig{
			BaseURL:       "http://localhost:11434",
			Model:         "llama3.2",
			Temperature:   0.2,
			MaxTokens:     512,
			ContextWindow: 4096,
		},
		Vector: VectorConfig{
			Provider:   "chroma",
			BaseURL:    "http://localhost:8000",
			Collection: "pdf_chunks",
		},
		Chunking: ChunkingConfig{
			Size:      1000,
			Overlap:   200,
			MinLength: 20,
		},
		Retrieval: RetrievalConfig{
			TopK:              10,
			MMRLambda:         0.5,
			KeywordExpansion:  true,
			SemanticExpansion: true,
			DistanceWeight:    0.7,
			OverlapWeight:     0.3,
			DistanceCutoff:    1.0,
			ContextLength:     4000,
		},
		Ingest: IngestConfig{
			Workers: 2,
		},
	}
}

// DefaultPath returns ~/.pdfrag/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName, "config.toml"), nil
}

// Load reads the configuration at path, applying defaults for any
// field the file leaves unset. A missing file yields the defaults.
// An empty path means the default location.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
// An empty path means the default location.
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
