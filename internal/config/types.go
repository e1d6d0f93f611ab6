package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenAI     ProviderType = "openai"
	ProviderGoogle     ProviderType = "google"
	ProviderOllama     ProviderType = "ollama"
	ProviderOpenRouter ProviderType = "openrouter"
)

// HistoryBackend selects where conversation history is kept.
type HistoryBackend string

const (
	HistoryMemory HistoryBackend = "memory"
	HistorySQLite HistoryBackend = "sqlite"
	HistoryBolt   HistoryBackend = "bolt"
)

// IngestMode mirrors ingest.Mode without importing the pipeline.
type IngestMode string

const (
	IngestIncremental IngestMode = "incremental"
	IngestFull        IngestMode = "full"
)

// Config is the top-level docchat configuration, corresponding to .docchat.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	Temperature       float64      `yaml:"temperature" koanf:"temperature"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	DataDir    string `yaml:"data_dir" koanf:"data_dir"`
	DocsDir    string `yaml:"docs_dir" koanf:"docs_dir"`
	UploadDir  string `yaml:"upload_dir" koanf:"upload_dir"`
	Collection string `yaml:"collection" koanf:"collection"`

	ChunkSize        int            `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap     int            `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	RetrievalK       int            `yaml:"retrieval_k" koanf:"retrieval_k"`
	MaxQueries       int            `yaml:"max_queries" koanf:"max_queries"`
	CondenseQuestion bool           `yaml:"condense_question" koanf:"condense_question"`
	HistoryBackend   HistoryBackend `yaml:"history_backend" koanf:"history_backend"`
	IngestMode       IngestMode     `yaml:"ingest_mode" koanf:"ingest_mode"`
	Include          []string       `yaml:"include" koanf:"include"`
	Exclude          []string       `yaml:"exclude" koanf:"exclude"`

	Timeouts  TimeoutConfig   `yaml:"timeouts" koanf:"timeouts"`
	Retry     RetryConfig     `yaml:"retry" koanf:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit" koanf:"rate_limit"`

	Port int `yaml:"port" koanf:"port"`
}

// TimeoutConfig bounds single calls to external services.
type TimeoutConfig struct {
	Embedding  time.Duration `yaml:"embedding" koanf:"embedding"`
	Generation time.Duration `yaml:"generation" koanf:"generation"`
}

// RetryConfig controls retry of transient service failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" koanf:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" koanf:"base_delay"`
}

// RateLimitConfig caps calls to external services.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" koanf:"rps"`
	Burst int     `yaml:"burst" koanf:"burst"`
}
