package config

import (
	"path/filepath"
	"time"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".docchat.yml"

// ProviderPreset describes the default models for a provider.
type ProviderPreset struct {
	Model          string
	EmbeddingModel string
}

// providerPresets maps each provider to its default chat and embedding models.
var providerPresets = map[ProviderType]ProviderPreset{
	ProviderGoogle:     {Model: "gemini-2.0-flash", EmbeddingModel: "gemini-embedding-001"},
	ProviderOpenAI:     {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic:  {Model: "claude-haiku-4-5-20251001", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama:     {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
	ProviderOpenRouter: {Model: "google/gemini-2.0-flash-001", EmbeddingModel: "text-embedding-3-small"},
}

// DefaultExcludes are glob patterns excluded from ingestion by default.
var DefaultExcludes = []string{
	"**/.DS_Store",
	"**/Thumbs.db",
	"**/*.tmp",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGoogle,
		Model:             "gemini-2.0-flash",
		Temperature:       0.3,
		EmbeddingProvider: ProviderGoogle,
		EmbeddingModel:    "gemini-embedding-001",
		DataDir:           ".docchat",
		DocsDir:           "data",
		UploadDir:         "uploads",
		Collection:        "rag_chatbot",
		ChunkSize:         1000,
		ChunkOverlap:      100,
		RetrievalK:        3,
		MaxQueries:        3,
		HistoryBackend:    HistoryMemory,
		IngestMode:        IngestIncremental,
		Include:           []string{"**"},
		Exclude:           DefaultExcludes,
		Timeouts: TimeoutConfig{
			Embedding:  30 * time.Second,
			Generation: 60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 5,
		},
		Port: 5000,
	}
}

// GetPreset returns the default models for a provider. Unknown providers get
// the Google preset.
func GetPreset(provider ProviderType) ProviderPreset {
	if p, ok := providerPresets[provider]; ok {
		return p
	}
	return providerPresets[ProviderGoogle]
}

// VectorDBDir is where the persistent collections live.
func (c *Config) VectorDBDir() string { return filepath.Join(c.DataDir, "vectordb") }

// DatabasePath is the SQLite file holding the ingestion ledger and chat turns.
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "docchat.db") }

// HistoryBoltPath is the bbolt file used by the bolt history backend.
func (c *Config) HistoryBoltPath() string { return filepath.Join(c.DataDir, "history.bolt") }
