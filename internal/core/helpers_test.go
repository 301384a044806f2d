// ABOUTME: Shared fixtures for core tests
// ABOUTME: Builds services over in-memory SQLite with deterministic embedders
package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/harper/recall/internal/embedding"
	"github.com/harper/recall/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.DBPath == "" {
		opts.DBPath = InMemory
	}
	if opts.Provider == nil {
		opts.Provider = embedding.NewHashProvider(4096)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	svc, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

// blockingProvider waits for cancellation and never returns a vector
type blockingProvider struct {
	calls atomic.Int32
}

func (b *blockingProvider) Embed(ctx context.Context, _ string) ([]float64, error) {
	b.calls.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingProvider always fails like a provider outage
type failingProvider struct{}

func (failingProvider) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("503 service unavailable")
}
