// ABOUTME: Governor enforces the document capacity limit after each ingest
// ABOUTME: Evicts the oldest documents from both the store and the index
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/index"
)

// DocumentEvictor lists and deletes documents in insertion order
type DocumentEvictor interface {
	Count(ctx context.Context) (int, error)
	OldestIDs(ctx context.Context, n int) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Governor keeps the corpus at or below maxDocuments
type Governor struct {
	documents    DocumentEvictor
	index        index.Index
	maxDocuments int
	mu           sync.Mutex
	logger       *log.Logger
}

// NewGovernor creates a Governor. maxDocuments 0 means unbounded.
func NewGovernor(documents DocumentEvictor, idx index.Index, maxDocuments int, logger *log.Logger) *Governor {
	if logger == nil {
		logger = log.Default()
	}
	return &Governor{
		documents:    documents,
		index:        idx,
		maxDocuments: maxDocuments,
		logger:       logger.WithPrefix("governor"),
	}
}

// Enforce evicts the oldest documents until the limit holds and returns the evicted ids
func (g *Governor) Enforce(ctx context.Context) ([]string, error) {
	if g.maxDocuments <= 0 {
		return nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	count, err := g.documents.Count(ctx)
	if err != nil {
		return nil, err
	}
	excess := count - g.maxDocuments
	if excess <= 0 {
		return nil, nil
	}

	ids, err := g.documents.OldestIDs(ctx, excess)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		// index first, so a search never returns an id whose document is gone
		if err := g.index.Remove(ctx, id); err != nil {
			return nil, fmt.Errorf("evict %s from index: %w", id, err)
		}
		if err := g.documents.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("evict %s: %w", id, err)
		}
	}

	g.logger.Info("evicted documents over capacity", "evicted", len(ids), "max", g.maxDocuments)
	return ids, nil
}
