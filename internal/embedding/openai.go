// ABOUTME: OpenAI embedding provider with bounded retries and client-side pacing
// ABOUTME: Uses text-embedding-3-small by default; works with OpenAI-compatible servers via BaseURL
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/tokens"
	"github.com/harper/recall/internal/util"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	// DefaultOpenAIModel is the default model for embeddings
	DefaultOpenAIModel = string(openai.SmallEmbedding3)
	// DefaultOpenAIDimension is the native dimension of text-embedding-3-small
	DefaultOpenAIDimension = 1536
	// MaxInputTokens is the input limit of the OpenAI embedding models
	MaxInputTokens = 8191
)

// OpenAIConfig holds configuration for the OpenAI provider
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions requests shortened vectors from text-embedding-3 models; 0 keeps the native size
	Dimensions     int
	MaxRetries     int
	RetryDelay     time.Duration
	RequestsPerSec float64
	Logger         *log.Logger
}

// OpenAIProvider wraps the OpenAI embeddings API
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	dimensions int
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	counter    tokens.Counter
	logger     *log.Logger
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    limiter,
		counter:    tokens.Default(),
		logger:     logger.WithPrefix("openai"),
	}, nil
}

// Model returns the embedding model name
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Dimension returns the vector length this provider produces
func (p *OpenAIProvider) Dimension() int {
	if p.dimensions > 0 {
		return p.dimensions
	}
	return DefaultOpenAIDimension
}

// Embed generates an embedding vector for text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if n := p.counter.Count(text); n > MaxInputTokens {
		return nil, fmt.Errorf("%w: text is %d tokens, limit is %d", models.ErrValidation, n, MaxInputTokens)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := util.CalculateBackoff(p.retryDelay, attempt)
			p.logger.Debug("retrying embedding", "attempt", attempt+1, "delay", delay, "err", lastErr)
			if err := util.Sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
			}
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", models.ErrEmbeddingUnavailable, err)
		}

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(p.model),
			Dimensions: p.dimensions,
		})
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if !retryable(err) || ctx.Err() != nil {
				break
			}
			continue
		}

		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("attempt %d: no embeddings returned", attempt+1)
			continue
		}

		embedding32 := resp.Data[0].Embedding
		embedding64 := make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding64[i] = float64(v)
		}
		return embedding64, nil
	}

	return nil, fmt.Errorf("%w: after %d attempts: %w", models.ErrEmbeddingUnavailable, p.maxRetries+1, lastErr)
}

// retryable reports whether err is worth another attempt: rate limits, server errors, transport failures
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500 || code == 0
}
