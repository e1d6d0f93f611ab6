package cmd

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/auth"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/chunker"
	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/db"
	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/ingest"
	"github.com/ziadkadry99/docchat/internal/llm"
	"github.com/ziadkadry99/docchat/internal/retriever"
	"github.com/ziadkadry99/docchat/internal/retry"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// ollamaEmbeddingDims is the vector size of nomic-embed-text, the default
// Ollama embedding model.
const ollamaEmbeddingDims = 768

// retryPolicy converts the configured retry settings.
func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    retry.DefaultPolicy.MaxDelay,
	}
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config,
// wrapped with timeout, rate limiting and retry.
// This is the shared version used by the server, ingest, ask, search and serve commands.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}

	var base embeddings.Embedder
	switch provider {
	case config.ProviderGoogle:
		apiKey := auth.GetAPIKey(string(config.ProviderGoogle))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for Google embeddings; export it or run `docchat auth set google`")
		}
		base = embeddings.NewGoogleEmbedder(apiKey, embeddings.GoogleModel(model), "")
	case config.ProviderOpenAI:
		apiKey := auth.GetAPIKey(string(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI embeddings; export it or run `docchat auth set openai`")
		}
		base = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), os.Getenv("OPENAI_BASE_URL"))
	case config.ProviderOllama:
		base = embeddings.NewOllamaEmbedder(model, ollamaEmbeddingDims, os.Getenv("OLLAMA_HOST"))
	default:
		return nil, fmt.Errorf("provider %s has no embeddings API; set embedding_provider to google, openai or ollama", provider)
	}

	return embeddings.NewResilient(base, embeddings.Options{
		Timeout:           cfg.Timeouts.Embedding,
		RequestsPerSecond: cfg.RateLimit.RPS,
		Burst:             cfg.RateLimit.Burst,
		Retry:             retryPolicy(cfg),
	}), nil
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewResilientProvider(p, llm.Options{
		Timeout:           cfg.Timeouts.Generation,
		RequestsPerMinute: int(cfg.RateLimit.RPS * 60),
		Retry:             retryPolicy(cfg),
	}), nil
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// app holds the components shared by the commands. Fields a command does not
// ask for stay nil.
type app struct {
	cfg      *config.Config
	database *db.DB
	embedder embeddings.Embedder
	store    *vectordb.ChromemStore
	chunker  *chunker.Chunker
	pipeline *ingest.Pipeline
	chat     *chat.Service
	history  conversation.Store
	audit    *audit.Store
}

// openApp builds the ingestion side and, when withChat is set, the question
// answering side as well.
func openApp(withChat bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	a.embedder, err = createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	a.store, err = vectordb.Open(cfg.VectorDBDir(), embeddings.ToChromemFunc(a.embedder))
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	a.database, err = db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.audit = audit.NewStore(a.database)

	a.chunker, err = chunker.NewStrict(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = a.newPipeline(false)

	if !withChat {
		return a, nil
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	a.history, err = openHistory(cfg, a.database)
	if err != nil {
		a.Close()
		return nil, err
	}

	r := retriever.New(provider, a.embedder, a.store, retriever.Options{
		Collection:  cfg.Collection,
		K:           cfg.RetrievalK,
		MaxQueries:  cfg.MaxQueries,
		Temperature: cfg.Temperature,
		Model:       cfg.Model,
	})
	orch := chat.NewOrchestrator(r, provider, chat.Options{
		Model:            cfg.Model,
		Temperature:      cfg.Temperature,
		CondenseQuestion: cfg.CondenseQuestion,
	})
	a.chat = chat.NewService(orch, a.history)
	return a, nil
}

// newPipeline builds an ingestion pipeline from the config. A strict
// pipeline aborts on the first file that cannot be parsed.
func (a *app) newPipeline(strict bool) *ingest.Pipeline {
	return ingest.NewPipeline(a.embedder, a.store, a.chunker, ingest.NewLedger(a.database), ingest.Options{
		Collection: a.cfg.Collection,
		Mode:       ingest.Mode(a.cfg.IngestMode),
		Include:    a.cfg.Include,
		Exclude:    a.cfg.Exclude,
		Strict:     strict,
	})
}

// openHistory selects the conversation store named in the config.
func openHistory(cfg *config.Config, database *db.DB) (conversation.Store, error) {
	switch cfg.HistoryBackend {
	case config.HistorySQLite:
		return conversation.NewSQLStore(database), nil
	case config.HistoryBolt:
		s, err := conversation.OpenBoltStore(cfg.HistoryBoltPath())
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		return s, nil
	default:
		return conversation.NewMemoryStore(), nil
	}
}

// Close releases the database and history store.
func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}
