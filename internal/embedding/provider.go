// ABOUTME: Embedding provider abstraction consumed by the retrieval core
// ABOUTME: Any failure or timeout surfaces as models.ErrEmbeddingUnavailable
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/recall/internal/models"
)

// Provider turns text into a fixed-length vector
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Describer is implemented by providers that can report their identity.
// The pair (Model, Dimension) is recorded next to stored embeddings.
type Describer interface {
	Model() string
	Dimension() int
}

// Identity returns a stable identifier for p, or "" if p cannot describe itself
func Identity(p Provider) (model string, dimension int) {
	if d, ok := p.(Describer); ok {
		return d.Model(), d.Dimension()
	}
	return "", 0
}

type timeoutProvider struct {
	Provider
	timeout time.Duration
}

// WithTimeout bounds every Embed call by d. Expiry reports ErrEmbeddingUnavailable.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{Provider: p, timeout: d}
}

func (t *timeoutProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		vec []float64
		err error
	}
	done := make(chan result, 1)
	go func() {
		vec, err := t.Provider.Embed(ctx, text)
		done <- result{vec, err}
	}()

	select {
	case r := <-done:
		return r.vec, Classify(r.err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, ctx.Err())
	}
}

// Model forwards identity from the wrapped provider
func (t *timeoutProvider) Model() string {
	m, _ := Identity(t.Provider)
	return m
}

// Dimension forwards identity from the wrapped provider
func (t *timeoutProvider) Dimension() int {
	_, d := Identity(t.Provider)
	return d
}

// Classify maps a provider error onto the core taxonomy.
// Validation errors pass through; everything else becomes ErrEmbeddingUnavailable.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrEmbeddingUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
}

// IsZero reports whether v has no non-zero component.
// A zero vector has no direction, so it cannot be ranked by cosine similarity.
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
