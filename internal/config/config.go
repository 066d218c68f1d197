package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	RaggestAPIKey string

	// Model providers
	LLMProvider     string // "openai" or "anthropic"
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIChatModel string
	AnthropicAPIKey string
	AnthropicModel  string

	// Embeddings
	EmbedModel     string
	EmbedDimension int
	EmbedBatchSize int

	// Vector store
	VectorBackend    string // "memory" or "milvus"
	VectorSnapshot   string // JSON snapshot path for the memory backend
	MilvusAddress    string
	MilvusUsername   string
	MilvusPassword   string
	MilvusDatabase   string
	MilvusCollection string

	// Docstore
	DocstorePath string

	// Wiki loader
	WikiBaseURL string
	DocsDir     string

	// Worker pool
	WorkerCount         int
	MaxQueueSize        int
	MaxConcurrentEnrich int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int
	ParentChunkSize     int

	// Query defaults
	DefaultTopK       int
	MaxRefineAttempts int

	// Enrichment
	EnrichChunks bool
	MaxQuestions int

	// Fine-tuning
	QuestionsPerChunk int

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		RaggestAPIKey: os.Getenv("RAGGEST_API_KEY"),

		LLMProvider:     envOr("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		OpenAIChatModel: envOr("OPENAI_CHAT_MODEL", "gpt-4o"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		EmbedModel:     envOr("EMBED_MODEL", "text-embedding-3-small"),
		EmbedDimension: envInt("EMBED_DIMENSION", 1536),
		EmbedBatchSize: envInt("EMBED_BATCH_SIZE", 256),

		VectorBackend:    envOr("VECTOR_BACKEND", "memory"),
		VectorSnapshot:   envOr("VECTOR_SNAPSHOT", "./data/vectors.json"),
		MilvusAddress:    envOr("MILVUS_ADDRESS", "localhost:19530"),
		MilvusUsername:   os.Getenv("MILVUS_USERNAME"),
		MilvusPassword:   os.Getenv("MILVUS_PASSWORD"),
		MilvusDatabase:   os.Getenv("MILVUS_DATABASE"),
		MilvusCollection: envOr("MILVUS_COLLECTION", "raggest_nodes"),

		DocstorePath: envOr("DOCSTORE_PATH", "./data/docstore.json"),

		WikiBaseURL: envOr("WIKI_BASE_URL", "https://malazan.fandom.com"),
		DocsDir:     envOr("DOCS_DIR", "./data/docs"),

		WorkerCount:         envInt("WORKER_COUNT", 4),
		MaxQueueSize:        envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentEnrich: envInt("MAX_CONCURRENT_ENRICH", 5),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 512),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 64),
		ParentChunkSize:     envInt("PARENT_CHUNK_SIZE", 2048),

		DefaultTopK:       envInt("DEFAULT_TOP_K", 5),
		MaxRefineAttempts: envInt("MAX_REFINE_ATTEMPTS", 3),

		EnrichChunks: envBool("ENRICH_CHUNKS", true),
		MaxQuestions: envInt("MAX_QUESTIONS", 3),

		QuestionsPerChunk: envInt("QUESTIONS_PER_CHUNK", 2),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentEnrich <= 0 {
		cfg.MaxConcurrentEnrich = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 512
	}
	// Zero disables overlap; only reject negatives.
	if cfg.DefaultChunkOverlap < 0 {
		cfg.DefaultChunkOverlap = 64
	}
	if cfg.ParentChunkSize <= cfg.DefaultChunkSize {
		cfg.ParentChunkSize = cfg.DefaultChunkSize * 4
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.MaxRefineAttempts <= 0 {
		cfg.MaxRefineAttempts = 3
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.RaggestAPIKey == "" {
		return fmt.Errorf("RAGGEST_API_KEY is required")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required (embeddings)")
	}
	switch c.LLMProvider {
	case "openai":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.VectorBackend {
	case "memory", "milvus":
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
