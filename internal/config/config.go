package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultChunkSize     = 300
	defaultChunkOverlap  = 50
	defaultTopK          = 3
	defaultMessagesLimit = 10
	defaultMaxTokens     = 1024
	defaultTemperature   = 0.7
	defaultDimension     = 1024
)

type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	RAG        RAGConfig        `yaml:"rag"`
	Storage    StorageConfig    `yaml:"storage"`
}

// StoreConfig selects the vector store adapter.
type StoreConfig struct {
	Provider string         `yaml:"provider"` // "postgres" or "chromem"
	Database DatabaseConfig `yaml:"database"`
	Chromem  ChromemConfig  `yaml:"chromem"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type ChromemConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "cohere", "openai" or "ollama"
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type GenerationConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type RAGConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	TopK          int `yaml:"top_k"`
	MessagesLimit int `yaml:"messages_limit"`
}

// StorageConfig points the local fetcher at the directory that stands in
// for the document storage collaborator. Buckets are subdirectories.
type StorageConfig struct {
	Root string `yaml:"root"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Store.Provider == "" {
		c.Store.Provider = "chromem"
	}
	if c.Store.Chromem.Path == "" {
		c.Store.Chromem.Path = "./chromemdb"
	}
	if c.Store.Chromem.Collection == "" {
		c.Store.Chromem.Collection = "documents"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "cohere"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = defaultDimension
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = defaultMaxTokens
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = defaultTemperature
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.MessagesLimit == 0 {
		c.RAG.MessagesLimit = defaultMessagesLimit
	}
}

func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 {
		return fmt.Errorf("rag.chunk_overlap must not be negative, got %d", c.RAG.ChunkOverlap)
	}
	// An overlap as large as the chunk size would make zero progress when
	// splitting and never terminate.
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap (%d) must be smaller than rag.chunk_size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.MessagesLimit <= 0 {
		return fmt.Errorf("rag.messages_limit must be positive, got %d", c.RAG.MessagesLimit)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	switch c.Store.Provider {
	case "postgres", "chromem":
	default:
		return fmt.Errorf("unknown store provider %q", c.Store.Provider)
	}
	switch c.Embedding.Provider {
	case "cohere", "openai", "ollama":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}
