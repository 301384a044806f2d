// ABOUTME: Centralized configuration for the recall CLI and MCP server
// ABOUTME: Defaults, then an optional YAML/TOML file, then environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"

	IndexFlat   = "flat"
	IndexQdrant = "qdrant"
)

// Config holds all configuration for the memory system
type Config struct {
	// Storage
	DBPath string

	// Embedding settings
	Embedder            string
	OpenAIKey           string
	OpenAIBaseURL       string
	EmbeddingModel      string
	EmbeddingDimensions int
	HashDimension       int
	EmbedTimeout        time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	EmbedRPS            float64

	// Index settings
	Index        string
	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
	QdrantTLS    bool
	QdrantAlias  string

	// Memory settings
	RetrievalK   int
	HistoryLimit int
	TokenBudget  int
	MaxDocuments int

	LogLevel string

	// Source is the config file that was read, empty if none
	Source string
}

// fileConfig is the on-disk shape; durations are strings like "30s"
type fileConfig struct {
	DBPath              string  `yaml:"db_path" toml:"db_path"`
	Embedder            string  `yaml:"embedder" toml:"embedder"`
	OpenAIBaseURL       string  `yaml:"openai_base_url" toml:"openai_base_url"`
	EmbeddingModel      string  `yaml:"embedding_model" toml:"embedding_model"`
	EmbeddingDimensions int     `yaml:"embedding_dimensions" toml:"embedding_dimensions"`
	HashDimension       int     `yaml:"hash_dimension" toml:"hash_dimension"`
	EmbedTimeout        string  `yaml:"embed_timeout" toml:"embed_timeout"`
	MaxRetries          *int    `yaml:"max_retries" toml:"max_retries"`
	RetryDelay          string  `yaml:"retry_delay" toml:"retry_delay"`
	EmbedRPS            float64 `yaml:"embed_rps" toml:"embed_rps"`

	Index       string `yaml:"index" toml:"index"`
	QdrantHost  string `yaml:"qdrant_host" toml:"qdrant_host"`
	QdrantPort  int    `yaml:"qdrant_port" toml:"qdrant_port"`
	QdrantTLS   bool   `yaml:"qdrant_tls" toml:"qdrant_tls"`
	QdrantAlias string `yaml:"qdrant_alias" toml:"qdrant_alias"`

	RetrievalK   int  `yaml:"retrieval_k" toml:"retrieval_k"`
	HistoryLimit *int `yaml:"history_limit" toml:"history_limit"`
	TokenBudget  int  `yaml:"token_budget" toml:"token_budget"`
	MaxDocuments int  `yaml:"max_documents" toml:"max_documents"`

	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		EmbeddingModel: "text-embedding-3-small",
		HashDimension:  1024,
		EmbedTimeout:   30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		Index:          IndexFlat,
		QdrantHost:     "localhost",
		QdrantPort:     6334,
		QdrantAlias:    "recall_documents",
		RetrievalK:     3,
		HistoryLimit:   10,
		LogLevel:       "info",
	}
}

// Load reads configuration from RECALL_CONFIG (if set) and environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("RECALL_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if cfg.Embedder == "" {
		cfg.Embedder = EmbedderHash
		if cfg.OpenAIKey != "" {
			cfg.Embedder = EmbedderOpenAI
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.DBPath, fc.DBPath)
	setString(&c.Embedder, fc.Embedder)
	setString(&c.OpenAIBaseURL, fc.OpenAIBaseURL)
	setString(&c.EmbeddingModel, fc.EmbeddingModel)
	setInt(&c.EmbeddingDimensions, fc.EmbeddingDimensions)
	setInt(&c.HashDimension, fc.HashDimension)
	if err := setDuration(&c.EmbedTimeout, fc.EmbedTimeout); err != nil {
		return fmt.Errorf("config %s: embed_timeout: %w", path, err)
	}
	if fc.MaxRetries != nil {
		c.MaxRetries = *fc.MaxRetries
	}
	if err := setDuration(&c.RetryDelay, fc.RetryDelay); err != nil {
		return fmt.Errorf("config %s: retry_delay: %w", path, err)
	}
	if fc.EmbedRPS != 0 {
		c.EmbedRPS = fc.EmbedRPS
	}
	setString(&c.Index, fc.Index)
	setString(&c.QdrantHost, fc.QdrantHost)
	setInt(&c.QdrantPort, fc.QdrantPort)
	c.QdrantTLS = c.QdrantTLS || fc.QdrantTLS
	setString(&c.QdrantAlias, fc.QdrantAlias)
	setInt(&c.RetrievalK, fc.RetrievalK)
	if fc.HistoryLimit != nil {
		c.HistoryLimit = *fc.HistoryLimit
	}
	setInt(&c.TokenBudget, fc.TokenBudget)
	setInt(&c.MaxDocuments, fc.MaxDocuments)
	setString(&c.LogLevel, fc.LogLevel)

	c.Source = path
	return nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnv("RECALL_DB_PATH", c.DBPath)
	c.Embedder = getEnv("RECALL_EMBEDDER", c.Embedder)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.EmbeddingModel = getEnv("RECALL_EMBEDDING_MODEL", c.EmbeddingModel)
	c.EmbeddingDimensions = getEnvInt("RECALL_EMBEDDING_DIMENSIONS", c.EmbeddingDimensions)
	c.HashDimension = getEnvInt("RECALL_HASH_DIMENSION", c.HashDimension)
	c.EmbedTimeout = getEnvDuration("RECALL_EMBED_TIMEOUT", c.EmbedTimeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.EmbedRPS = getEnvFloat("RECALL_EMBED_RPS", c.EmbedRPS)

	c.Index = getEnv("RECALL_INDEX", c.Index)
	c.QdrantHost = getEnv("QDRANT_HOST", c.QdrantHost)
	c.QdrantPort = getEnvInt("QDRANT_PORT", c.QdrantPort)
	c.QdrantAPIKey = getEnv("QDRANT_API_KEY", c.QdrantAPIKey)
	c.QdrantTLS = getEnvBool("QDRANT_TLS", c.QdrantTLS)
	c.QdrantAlias = getEnv("QDRANT_ALIAS", c.QdrantAlias)

	c.RetrievalK = getEnvInt("RECALL_RETRIEVAL_K", c.RetrievalK)
	c.HistoryLimit = getEnvInt("RECALL_HISTORY_LIMIT", c.HistoryLimit)
	c.TokenBudget = getEnvInt("RECALL_TOKEN_BUDGET", c.TokenBudget)
	c.MaxDocuments = getEnvInt("RECALL_MAX_DOCUMENTS", c.MaxDocuments)

	c.LogLevel = getEnv("RECALL_LOG_LEVEL", c.LogLevel)
}

func (c *Config) Validate() error {
	switch c.Embedder {
	case EmbedderHash:
		if c.HashDimension <= 0 {
			return fmt.Errorf("RECALL_HASH_DIMENSION must be positive, got %d", c.HashDimension)
		}
	case EmbedderOpenAI:
		if c.OpenAIKey == "" && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai embedder")
		}
		if c.EmbeddingDimensions < 0 {
			return fmt.Errorf("RECALL_EMBEDDING_DIMENSIONS must be >= 0, got %d", c.EmbeddingDimensions)
		}
	case "":
	default:
		return fmt.Errorf("RECALL_EMBEDDER must be openai or hash, got %q", c.Embedder)
	}
	if c.Index != IndexFlat && c.Index != IndexQdrant {
		return fmt.Errorf("RECALL_INDEX must be flat or qdrant, got %q", c.Index)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.EmbedTimeout < 0 {
		return fmt.Errorf("RECALL_EMBED_TIMEOUT must be >= 0, got %v", c.EmbedTimeout)
	}
	if c.EmbedRPS < 0 {
		return fmt.Errorf("RECALL_EMBED_RPS must be >= 0, got %f", c.EmbedRPS)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("RECALL_RETRIEVAL_K must be positive, got %d", c.RetrievalK)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("RECALL_HISTORY_LIMIT must be >= 0, got %d", c.HistoryLimit)
	}
	if c.TokenBudget < 0 {
		return fmt.Errorf("RECALL_TOKEN_BUDGET must be >= 0, got %d", c.TokenBudget)
	}
	if c.MaxDocuments < 0 {
		return fmt.Errorf("RECALL_MAX_DOCUMENTS must be >= 0, got %d", c.MaxDocuments)
	}
	if _, err := log.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("RECALL_LOG_LEVEL: %w", err)
	}
	return nil
}

// Helper functions
func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
