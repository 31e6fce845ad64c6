// Package config defines and loads application configuration.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Vector        VectorConfig        `yaml:"vector" mapstructure:"vector"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	OpenAI        OpenAIConfig        `yaml:"openai" mapstructure:"openai"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Retrieval     RetrievalConfig     `yaml:"retrieval" mapstructure:"retrieval"`
	Ingest        IngestConfig        `yaml:"ingest" mapstructure:"ingest"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig holds application identity.
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig holds HTTP listener settings.
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	// Backend is "milvus" or "memory".
	Backend string       `yaml:"backend" mapstructure:"backend"`
	Milvus  MilvusConfig `yaml:"milvus" mapstructure:"milvus"`
}

// MilvusConfig holds Milvus connection and index settings.
type MilvusConfig struct {
	Host               string        `yaml:"host" mapstructure:"host"`
	Port               int           `yaml:"port" mapstructure:"port"`
	User               string        `yaml:"user" mapstructure:"user"`
	Password           string        `yaml:"password" mapstructure:"password"`
	Collection         string        `yaml:"collection" mapstructure:"collection"`
	IndexType          string        `yaml:"index_type" mapstructure:"index_type"`
	MetricType         string        `yaml:"metric_type" mapstructure:"metric_type"`
	HNSWM              int           `yaml:"hnsw_m" mapstructure:"hnsw_m"`
	HNSWEfConstruction int           `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
	SearchEf           int           `yaml:"search_ef" mapstructure:"search_ef"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Redis      RedisConfig   `yaml:"redis" mapstructure:"redis"`
	CatalogTTL time.Duration `yaml:"catalog_ttl" mapstructure:"catalog_ttl"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// OpenAIConfig holds the shared provider credentials. The same account
// serves both the embedding and the chat endpoints.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// EmbeddingConfig holds embedding model settings. The same model and
// dimension are used at ingestion and at query time.
type EmbeddingConfig struct {
	Model     string        `yaml:"model" mapstructure:"model"`
	Dimension int           `yaml:"dimension" mapstructure:"dimension"`
	BatchSize int           `yaml:"batch_size" mapstructure:"batch_size"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retry     RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// LLMConfig holds generation model settings.
type LLMConfig struct {
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig bounds retries against an external provider.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Initial     time.Duration `yaml:"initial" mapstructure:"initial"`
	Max         time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier  float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// RetrievalConfig holds query-side knobs.
type RetrievalConfig struct {
	DefaultK        int `yaml:"default_k" mapstructure:"default_k"`
	MaxK            int `yaml:"max_k" mapstructure:"max_k"`
	MaxContextChars int `yaml:"max_context_chars" mapstructure:"max_context_chars"`
}

// IngestConfig holds ingestion-side settings.
type IngestConfig struct {
	CorpusDir   string         `yaml:"corpus_dir" mapstructure:"corpus_dir"`
	PlaysFile   string         `yaml:"plays_file" mapstructure:"plays_file"`
	Concurrency int            `yaml:"concurrency" mapstructure:"concurrency"`
	Chunking    ChunkingConfig `yaml:"chunking" mapstructure:"chunking"`
}

// ChunkingConfig holds chunker parameters.
type ChunkingConfig struct {
	MaxChars         int `yaml:"max_chars" mapstructure:"max_chars"`
	MinChars         int `yaml:"min_chars" mapstructure:"min_chars"`
	OverlapSentences int `yaml:"overlap_sentences" mapstructure:"overlap_sentences"`
}

// ObservabilityConfig groups logging, tracing and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig holds sliding-window limiter settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
