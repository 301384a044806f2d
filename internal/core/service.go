// ABOUTME: Service is the context object owning stores, index and embedding provider
// ABOUTME: Every outer surface (CLI, MCP, watcher) goes through it
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/embedding"
	"github.com/harper/recall/internal/index"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/storage/sqlite"
	"github.com/harper/recall/internal/tokens"
)

// InMemory as Options.DBPath opens a throwaway database
const InMemory = ":memory:"

const (
	metaEmbeddingModel     = "embedding_model"
	metaEmbeddingDimension = "embedding_dimension"
)

// Options configures Open
type Options struct {
	// DBPath is the SQLite file; empty uses the default data directory
	DBPath string
	// Provider embeds documents and queries
	Provider embedding.Provider
	// EmbedTimeout bounds each embedding call; 0 disables the bound
	EmbedTimeout time.Duration
	// Index defaults to an exact in-memory index
	Index index.Index
	// MaxDocuments caps the corpus; 0 means unbounded
	MaxDocuments int
	// AllowProviderChange opens a store whose embeddings came from a different
	// provider. Only Reembed and read-only calls work until Reembed completes.
	AllowProviderChange bool
	Counter             tokens.Counter
	Logger              *log.Logger
}

// Service owns all memory state for one process
type Service struct {
	storage   *sqlite.Storage
	provider  embedding.Provider
	index     index.Index
	retriever *Retriever
	manager   *MemoryManager
	governor  *Governor
	model     string
	dimension int
	logger    *log.Logger

	// mu orders ingests (shared) against rebuilds and re-embeds (exclusive)
	mu sync.RWMutex
	// stale is read by retrievals that run outside mu
	stale atomic.Bool
}

// Open wires the stores, the index and the provider, then loads the index from the document store
func Open(ctx context.Context, opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: an embedding provider is required", models.ErrValidation)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	store, err := openStorage(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}

	provider := embedding.WithTimeout(opts.Provider, opts.EmbedTimeout)
	model, dimension := embedding.Identity(provider)

	idx := opts.Index
	if idx == nil {
		idx = index.NewFlat(dimension)
	}

	s := &Service{
		storage:   store,
		provider:  provider,
		index:     idx,
		model:     model,
		dimension: dimension,
		logger:    logger.WithPrefix("service"),
	}
	s.retriever = NewRetriever(provider, idx, store.Documents(), logger)
	s.manager = NewMemoryManager(store.Conversations(), s.retriever, opts.Counter, logger)
	s.governor = NewGovernor(store.Documents(), idx, opts.MaxDocuments, logger)

	if err := s.checkProvider(ctx, opts.AllowProviderChange); err != nil {
		_ = s.Close()
		return nil, err
	}
	if !s.stale.Load() {
		if err := s.loadIndex(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func openStorage(path string) (*sqlite.Storage, error) {
	switch path {
	case "":
		return sqlite.NewStorage()
	case InMemory:
		return sqlite.NewStorageInMemory()
	}
	return sqlite.NewStorageWithPath(path)
}

// checkProvider compares the configured provider with the one recorded next to the stored embeddings
func (s *Service) checkProvider(ctx context.Context, allowChange bool) error {
	if s.model == "" {
		return nil
	}

	storedModel, haveModel, err := s.storage.Meta().Get(ctx, metaEmbeddingModel)
	if err != nil {
		return err
	}
	storedDim, _, err := s.storage.Meta().Get(ctx, metaEmbeddingDimension)
	if err != nil {
		return err
	}

	count, err := s.storage.Documents().Count(ctx)
	if err != nil {
		return err
	}

	matches := storedModel == s.model && storedDim == strconv.Itoa(s.dimension)
	if !haveModel || count == 0 || matches {
		return s.recordProvider(ctx)
	}

	if !allowChange {
		return fmt.Errorf("%w: stored embeddings come from %s (%s dims), configured provider is %s (%d dims); run reembed",
			models.ErrProviderMismatch, storedModel, storedDim, s.model, s.dimension)
	}
	s.logger.Warn("embedding provider changed; index is offline until re-embedded",
		"stored", storedModel, "configured", s.model)
	s.stale.Store(true)
	return nil
}

func (s *Service) recordProvider(ctx context.Context) error {
	if err := s.storage.Meta().Set(ctx, metaEmbeddingModel, s.model); err != nil {
		return err
	}
	return s.storage.Meta().Set(ctx, metaEmbeddingDimension, strconv.Itoa(s.dimension))
}

// loadIndex rebuilds the index when it is held in memory or disagrees with the store
func (s *Service) loadIndex(ctx context.Context) error {
	_, inMemory := s.index.(*index.Flat)
	if !inMemory {
		indexed, err := s.index.Len(ctx)
		if err != nil {
			return err
		}
		count, err := s.storage.Documents().Count(ctx)
		if err != nil {
			return err
		}
		if indexed == count {
			s.logger.Debug("index in sync with store", "documents", count)
			return nil
		}
		s.logger.Info("index out of sync, rebuilding", "indexed", indexed, "documents", count)
	}
	return s.rebuildLocked(ctx)
}

func (s *Service) checkReady() error {
	if s.stale.Load() {
		return fmt.Errorf("%w: re-embed before using this store", models.ErrProviderMismatch)
	}
	return nil
}

// Ingest embeds text and stores it as a new document.
// The embedding is computed before anything is written.
func (s *Service) Ingest(ctx context.Context, name, text string) (models.Document, error) {
	if strings.TrimSpace(name) == "" {
		return models.Document{}, fmt.Errorf("%w: document name is empty", models.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return models.Document{}, fmt.Errorf("%w: document text is empty", models.ErrValidation)
	}

	vector, err := s.provider.Embed(ctx, text)
	if err != nil {
		return models.Document{}, embedding.Classify(err)
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return models.Document{}, fmt.Errorf("%w: provider returned %d dimensions, expected %d",
			models.ErrEmbeddingUnavailable, len(vector), s.dimension)
	}
	if embedding.IsZero(vector) {
		return models.Document{}, fmt.Errorf("%w: document %q has no embeddable content", models.ErrValidation, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.store(ctx, name, text, vector)
	if err != nil {
		return models.Document{}, err
	}

	if _, err := s.governor.Enforce(ctx); err != nil {
		s.logger.Error("capacity enforcement failed", "err", err)
	}
	return doc, nil
}

func (s *Service) store(ctx context.Context, name, text string, vector []float64) (models.Document, error) {
	if err := s.checkReady(); err != nil {
		return models.Document{}, err
	}

	doc, err := s.storage.Documents().Put(ctx, name, text, vector)
	if err != nil {
		return models.Document{}, err
	}
	if err := s.index.Add(ctx, doc.ID, doc.Embedding); err != nil {
		// keep store and index consistent
		if delErr := s.storage.Documents().Delete(context.WithoutCancel(ctx), doc.ID); delErr != nil {
			s.logger.Error("failed to roll back document", "id", doc.ID, "err", delErr)
		}
		return models.Document{}, fmt.Errorf("index document %s: %w", doc.ID, err)
	}

	s.logger.Debug("ingested document", "id", doc.ID, "name", name)
	return doc, nil
}

// Document returns a stored document by id
func (s *Service) Document(ctx context.Context, id string) (models.Document, error) {
	return s.storage.Documents().Get(ctx, id)
}

// Retrieve returns up to k documents most similar to query
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	return s.retriever.Retrieve(ctx, query, k)
}

// AppendTurn records a turn in a conversation, creating it if needed
func (s *Service) AppendTurn(ctx context.Context, conversationID string, role models.Role, text string) (models.AppendResult, error) {
	return s.storage.Conversations().Append(ctx, conversationID, role, text)
}

// History returns the last limit turns of a conversation in order; limit 0 returns all
func (s *Service) History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0, got %d", models.ErrValidation, limit)
	}
	return s.storage.Conversations().History(ctx, conversationID, limit)
}

// Conversations lists known conversation ids
func (s *Service) Conversations(ctx context.Context) ([]string, error) {
	return s.storage.Conversations().ListConversations(ctx)
}

// AssembleContext records a user message and gathers its context. See MemoryManager.AssembleContext.
func (s *Service) AssembleContext(ctx context.Context, req AssembleRequest) (models.ContextBundle, error) {
	if err := s.checkReady(); err != nil {
		return models.ContextBundle{}, err
	}
	return s.manager.AssembleContext(ctx, req)
}

// RecordReply appends an assistant turn
func (s *Service) RecordReply(ctx context.Context, conversationID, text string) (models.AppendResult, error) {
	return s.manager.RecordReply(ctx, conversationID, text)
}

// Rebuild reloads the index from the document store.
// Running it twice in a row leaves the index unchanged.
func (s *Service) Rebuild(ctx context.Context) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *Service) rebuildLocked(ctx context.Context) error {
	start := time.Now()
	if err := s.index.Rebuild(ctx, s.entries(ctx)); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	n, err := s.index.Len(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("index rebuilt", "vectors", n, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Service) entries(ctx context.Context) iter.Seq2[index.Entry, error] {
	return func(yield func(index.Entry, error) bool) {
		for doc, err := range s.storage.Documents().All(ctx) {
			if !yield(index.Entry{ID: doc.ID, Vector: doc.Embedding}, err) || err != nil {
				return
			}
		}
	}
}

// Reembed recomputes every stored embedding with the configured provider,
// records the provider and rebuilds the index. Returns the number of documents.
func (s *Service) Reembed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type pending struct{ id, text string }
	var docs []pending
	for doc, err := range s.storage.Documents().All(ctx) {
		if err != nil {
			return 0, err
		}
		docs = append(docs, pending{doc.ID, doc.Text})
	}

	vectors := make(map[string][]float64, len(docs))
	for i, d := range docs {
		vector, err := s.provider.Embed(ctx, d.text)
		if err != nil {
			return 0, fmt.Errorf("re-embed document %s: %w", d.id, embedding.Classify(err))
		}
		vectors[d.id] = vector
		if (i+1)%100 == 0 {
			s.logger.Info("re-embedding", "done", i+1, "total", len(docs))
		}
	}

	if err := s.storage.Documents().ReplaceEmbeddings(ctx, vectors); err != nil {
		return 0, err
	}
	if s.model != "" {
		if err := s.recordProvider(ctx); err != nil {
			return 0, err
		}
	}
	if err := s.rebuildLocked(ctx); err != nil {
		return 0, err
	}
	s.stale.Store(false)
	return len(docs), nil
}

// Stats reports counts of stored state
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	var err error

	if stats.Documents, err = s.storage.Documents().Count(ctx); err != nil {
		return stats, err
	}
	if stats.Conversations, err = s.storage.Conversations().CountConversations(ctx); err != nil {
		return stats, err
	}
	if stats.Turns, err = s.storage.Conversations().CountTurns(ctx); err != nil {
		return stats, err
	}
	if stats.IndexedVectors, err = s.index.Len(ctx); err != nil {
		return stats, err
	}
	stats.Provider = s.model
	stats.Dimension = s.dimension
	return stats, nil
}

// Export collects documents and conversations for serialization
func (s *Service) Export(ctx context.Context) (*sqlite.ExportData, error) {
	return s.storage.Export(ctx)
}

// Storage exposes the underlying stores for file exports
func (s *Service) Storage() *sqlite.Storage {
	return s.storage
}

// Close releases the index and the database
func (s *Service) Close() error {
	var errs []error
	if c, ok := s.index.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.storage.Close())
	return errors.Join(errs...)
}
