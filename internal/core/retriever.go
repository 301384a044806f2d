// ABOUTME: Retriever answers "which documents are most relevant to this text"
// ABOUTME: Embeds the query, searches the index and resolves hits to stored documents
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/embedding"
	"github.com/harper/recall/internal/index"
	"github.com/harper/recall/internal/models"
)

// errNoQueryContent marks a query whose embedding is the zero vector
var errNoQueryContent = fmt.Errorf("%w: query has no embeddable content", models.ErrValidation)

// Retriever runs similarity search over ingested documents
type Retriever struct {
	embedder  embedding.Provider
	index     index.Index
	documents DocumentReader
	logger    *log.Logger
}

// NewRetriever creates a Retriever
func NewRetriever(embedder embedding.Provider, idx index.Index, documents DocumentReader, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.Default()
	}
	return &Retriever{
		embedder:  embedder,
		index:     idx,
		documents: documents,
		logger:    logger.WithPrefix("retriever"),
	}
}

// Retrieve returns up to k documents ranked by similarity to query.
// Fewer than k come back when the corpus is smaller; results are never padded.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", models.ErrValidation, k)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", models.ErrValidation)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, embedding.Classify(err)
	}
	if embedding.IsZero(vector) {
		return nil, errNoQueryContent
	}

	hits, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	results := make([]models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := r.documents.Get(ctx, hit.ID)
		if errors.Is(err, models.ErrNotFound) {
			// index and store disagree until the next rebuild
			r.logger.Warn("skipping stale index entry", "id", hit.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, models.RetrievalResult{
			DocumentID: doc.ID,
			Score:      hit.Score,
			Document:   &doc,
		})
	}

	r.logger.Debug("retrieved", "k", k, "hits", len(hits), "results", len(results))
	return results, nil
}
