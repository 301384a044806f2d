// ABOUTME: Builds the memory service from configuration for every command
// ABOUTME: Chooses the embedding provider and index backend named in config
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/recall/internal/config"
	"github.com/harper/recall/internal/core"
	"github.com/harper/recall/internal/embedding"
	"github.com/harper/recall/internal/index"
	"github.com/harper/recall/internal/logging"
)

type app struct {
	svc    *core.Service
	cfg    *config.Config
	logger *log.Logger
}

func (a *app) Close() {
	if err := a.svc.Close(); err != nil {
		a.logger.Warn("error closing storage", "err", err)
	}
}

// openApp loads configuration and opens the service.
// allowProviderChange is only set by reembed.
func openApp(ctx context.Context, allowProviderChange bool) (*app, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	logger := logging.New(os.Stderr, level)

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	var idx index.Index
	if cfg.Index == config.IndexQdrant {
		_, dim := embedding.Identity(provider)
		q, err := index.NewQdrant(ctx, index.QdrantConfig{
			Host:      cfg.QdrantHost,
			Port:      cfg.QdrantPort,
			APIKey:    cfg.QdrantAPIKey,
			UseTLS:    cfg.QdrantTLS,
			Alias:     cfg.QdrantAlias,
			Dimension: dim,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		idx = q
	}

	svc, err := core.Open(ctx, core.Options{
		DBPath:              cfg.DBPath,
		Provider:            provider,
		EmbedTimeout:        cfg.EmbedTimeout,
		Index:               idx,
		MaxDocuments:        cfg.MaxDocuments,
		AllowProviderChange: allowProviderChange,
		Logger:              logger,
	})
	if err != nil {
		if c, ok := idx.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		return nil, err
	}

	logger.Debug("service ready", "embedder", cfg.Embedder, "index", cfg.Index, "config", cfg.Source)
	return &app{svc: svc, cfg: cfg, logger: logger}, nil
}

func newProvider(cfg *config.Config, logger *log.Logger) (embedding.Provider, error) {
	switch cfg.Embedder {
	case config.EmbedderOpenAI:
		p, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.EmbeddingModel,
			Dimensions:     cfg.EmbeddingDimensions,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
			RequestsPerSec: cfg.EmbedRPS,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing OpenAI embeddings: %w", err)
		}
		return p, nil
	default:
		return embedding.NewHashProvider(cfg.HashDimension), nil
	}
}
