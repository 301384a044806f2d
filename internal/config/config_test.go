// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, config files, environment overrides and validation
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"RECALL_CONFIG", "RECALL_DB_PATH", "RECALL_EMBEDDER", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"RECALL_EMBEDDING_MODEL", "RECALL_EMBEDDING_DIMENSIONS", "RECALL_HASH_DIMENSION",
	"RECALL_EMBED_TIMEOUT", "OPENAI_MAX_RETRIES", "OPENAI_RETRY_DELAY", "RECALL_EMBED_RPS",
	"RECALL_INDEX", "QDRANT_HOST", "QDRANT_PORT", "QDRANT_API_KEY", "QDRANT_TLS", "QDRANT_ALIAS",
	"RECALL_RETRIEVAL_K", "RECALL_HISTORY_LIMIT", "RECALL_TOKEN_BUDGET", "RECALL_MAX_DOCUMENTS",
	"RECALL_LOG_LEVEL",
}

// clearEnv blanks every variable Load reads; empty values count as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Embedder != EmbedderHash {
		t.Errorf("Embedder = %s, want hash without an API key", cfg.Embedder)
	}
	if cfg.Index != IndexFlat {
		t.Errorf("Index = %s, want flat", cfg.Index)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %s, want text-embedding-3-small", cfg.EmbeddingModel)
	}
	if cfg.EmbedTimeout != 30*time.Second {
		t.Errorf("EmbedTimeout = %v, want 30s", cfg.EmbedTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetrievalK != 3 {
		t.Errorf("RetrievalK = %d, want 3", cfg.RetrievalK)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want 10", cfg.HistoryLimit)
	}
	if cfg.MaxDocuments != 0 {
		t.Errorf("MaxDocuments = %d, want 0 (unbounded)", cfg.MaxDocuments)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
}

func TestLoad_OpenAIWhenKeySet(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Embedder != EmbedderOpenAI {
		t.Errorf("Embedder = %s, want openai", cfg.Embedder)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECALL_EMBEDDER", "hash")
	t.Setenv("RECALL_HASH_DIMENSION", "2048")
	t.Setenv("RECALL_EMBED_TIMEOUT", "5s")
	t.Setenv("OPENAI_MAX_RETRIES", "5")
	t.Setenv("RECALL_EMBED_RPS", "2.5")
	t.Setenv("RECALL_INDEX", "qdrant")
	t.Setenv("QDRANT_PORT", "7000")
	t.Setenv("QDRANT_TLS", "true")
	t.Setenv("RECALL_RETRIEVAL_K", "7")
	t.Setenv("RECALL_HISTORY_LIMIT", "0")
	t.Setenv("RECALL_TOKEN_BUDGET", "4000")
	t.Setenv("RECALL_MAX_DOCUMENTS", "100")
	t.Setenv("RECALL_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HashDimension != 2048 {
		t.Errorf("HashDimension = %d, want 2048", cfg.HashDimension)
	}
	if cfg.EmbedTimeout != 5*time.Second {
		t.Errorf("EmbedTimeout = %v, want 5s", cfg.EmbedTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.EmbedRPS != 2.5 {
		t.Errorf("EmbedRPS = %f, want 2.5", cfg.EmbedRPS)
	}
	if cfg.Index != IndexQdrant || cfg.QdrantPort != 7000 || !cfg.QdrantTLS {
		t.Errorf("qdrant settings = %s:%d tls=%v", cfg.Index, cfg.QdrantPort, cfg.QdrantTLS)
	}
	if cfg.RetrievalK != 7 {
		t.Errorf("RetrievalK = %d, want 7", cfg.RetrievalK)
	}
	if cfg.HistoryLimit != 0 {
		t.Errorf("HistoryLimit = %d, want 0", cfg.HistoryLimit)
	}
	if cfg.TokenBudget != 4000 {
		t.Errorf("TokenBudget = %d, want 4000", cfg.TokenBudget)
	}
	if cfg.MaxDocuments != 100 {
		t.Errorf("MaxDocuments = %d, want 100", cfg.MaxDocuments)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "recall.yaml")
	content := "embedder: hash\nhash_dimension: 512\nretrieval_k: 5\nhistory_limit: 0\nembed_timeout: 10s\nmax_documents: 50\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("RECALL_CONFIG", path)
	t.Setenv("RECALL_RETRIEVAL_K", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.HashDimension != 512 {
		t.Errorf("HashDimension = %d, want 512", cfg.HashDimension)
	}
	if cfg.RetrievalK != 9 {
		t.Errorf("RetrievalK = %d, want env override 9", cfg.RetrievalK)
	}
	if cfg.HistoryLimit != 0 {
		t.Errorf("HistoryLimit = %d, want 0 from file", cfg.HistoryLimit)
	}
	if cfg.EmbedTimeout != 10*time.Second {
		t.Errorf("EmbedTimeout = %v, want 10s", cfg.EmbedTimeout)
	}
	if cfg.MaxDocuments != 50 {
		t.Errorf("MaxDocuments = %d, want 50", cfg.MaxDocuments)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "recall.toml")
	content := "index = \"qdrant\"\nqdrant_alias = \"notes\"\nmax_retries = 0\nretry_delay = \"250ms\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("RECALL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Index != IndexQdrant || cfg.QdrantAlias != "notes" {
		t.Errorf("index = %s alias = %s", cfg.Index, cfg.QdrantAlias)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 250ms", cfg.RetryDelay)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("RECALL_CONFIG", filepath.Join(dir, "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("Load() should fail for a missing file")
	}

	ini := filepath.Join(dir, "recall.ini")
	if err := os.WriteFile(ini, []byte("x=1"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("RECALL_CONFIG", ini)
	if _, err := Load(); err == nil {
		t.Error("Load() should fail for an unsupported extension")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("embed_timeout: soon\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("RECALL_CONFIG", bad)
	if _, err := Load(); err == nil {
		t.Error("Load() should fail for an unparseable duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown embedder", func(c *Config) { c.Embedder = "word2vec" }},
		{"openai without key", func(c *Config) { c.Embedder = EmbedderOpenAI }},
		{"zero hash dimension", func(c *Config) { c.HashDimension = 0 }},
		{"unknown index", func(c *Config) { c.Index = "faiss" }},
		{"too many retries", func(c *Config) { c.MaxRetries = 15 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"zero k", func(c *Config) { c.RetrievalK = 0 }},
		{"negative history", func(c *Config) { c.HistoryLimit = -1 }},
		{"negative budget", func(c *Config) { c.TokenBudget = -1 }},
		{"negative capacity", func(c *Config) { c.MaxDocuments = -1 }},
		{"negative rps", func(c *Config) { c.EmbedRPS = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Embedder = EmbedderHash
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}

	cfg := Defaults()
	cfg.Embedder = EmbedderHash
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		defaultVal bool
		want       bool
	}{
		{"empty uses default true", "", true, true},
		{"empty uses default false", "", false, false},
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			got := getEnvBool("TEST_BOOL", tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}
