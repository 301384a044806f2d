// ABOUTME: Qdrant-backed index that serves queries through a collection alias
// ABOUTME: Rebuilds fill a new collection and repoint the alias in a single request
package index

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/models"
	"github.com/qdrant/go-client/qdrant"
)

const (
	// DefaultQdrantAlias is the alias queries are served from
	DefaultQdrantAlias = "recall_documents"
	// DefaultQdrantPort is Qdrant's gRPC port
	DefaultQdrantPort = 6334

	upsertBatchSize = 256
	searchOverfetch = 16
)

// QdrantConfig holds connection settings for a Qdrant server
type QdrantConfig struct {
	Host      string
	Port      int
	APIKey    string
	UseTLS    bool
	Alias     string
	Dimension int
}

// Qdrant stores vectors in a Qdrant collection.
// Searches are exact, so the ranking matches Flat up to float32 rounding of stored vectors.
type Qdrant struct {
	client    *qdrant.Client
	alias     string
	dimension int
	logger    *log.Logger
}

// NewQdrant connects to Qdrant and makes sure the alias points at a collection
func NewQdrant(ctx context.Context, cfg QdrantConfig, logger *log.Logger) (*Qdrant, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: qdrant index needs a positive dimension", models.ErrValidation)
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultQdrantPort
	}
	if cfg.Alias == "" {
		cfg.Alias = DefaultQdrantAlias
	}
	if logger == nil {
		logger = log.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to qdrant: %w", models.ErrStorage, err)
	}

	q := &Qdrant{
		client:    client,
		alias:     cfg.Alias,
		dimension: cfg.Dimension,
		logger:    logger.WithPrefix("qdrant"),
	}

	current, err := q.currentCollection(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if current == "" {
		coll, err := q.createGeneration(ctx)
		if err != nil {
			client.Close()
			return nil, err
		}
		if err := q.client.UpdateAliases(ctx, []*qdrant.AliasOperations{qdrant.NewAliasCreate(q.alias, coll)}); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: create alias %s: %w", models.ErrStorage, q.alias, err)
		}
		q.logger.Info("created collection", "alias", q.alias, "collection", coll)
	}
	return q, nil
}

// Close releases the gRPC connection
func (q *Qdrant) Close() error {
	return q.client.Close()
}

func (q *Qdrant) Add(ctx context.Context, id string, vector []float64) error {
	if err := checkDimension(q.dimension, len(vector)); err != nil {
		return err
	}
	return q.upsert(ctx, q.alias, []Entry{{ID: id, Vector: vector}})
}

func (q *Qdrant) Search(ctx context.Context, query []float64, k int) ([]Hit, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkDimension(q.dimension, len(query)); err != nil {
		return nil, err
	}

	// Qdrant breaks score ties by its own order, so a tie run that
	// reaches the limit may hide ids that sort ahead of the ones returned.
	limit := k + searchOverfetch
	for {
		hits, err := q.query(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		SortHits(hits)
		if !tieAtLimit(hits, k, limit) {
			return topK(hits, k), nil
		}
		limit *= 2
	}
}

func (q *Qdrant) query(ctx context.Context, query []float64, limit int) ([]Hit, error) {
	n := uint64(limit)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.alias,
		Query:          qdrant.NewQuery(toFloat32(query)...),
		Limit:          &n,
		Params:         &qdrant.SearchParams{Exact: qdrant.PtrOf(true)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant query: %w", models.ErrStorage, err)
	}

	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		hits = append(hits, Hit{ID: p.GetId().GetUuid(), Score: float64(p.GetScore())})
	}
	return hits, nil
}

// tieAtLimit reports whether sorted hits filled the limit and the k-th
// score ties with the last one fetched.
func tieAtLimit(hits []Hit, k, limit int) bool {
	if len(hits) < limit || len(hits) <= k {
		return false
	}
	return hits[k-1].Score == hits[len(hits)-1].Score
}

func topK(hits []Hit, k int) []Hit {
	if len(hits) > k {
		return hits[:k]
	}
	return hits
}

func (q *Qdrant) Remove(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.alias,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id)),
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant delete %s: %w", models.ErrStorage, id, err)
	}
	return nil
}

func (q *Qdrant) Rebuild(ctx context.Context, source iter.Seq2[Entry, error]) error {
	previous, err := q.currentCollection(ctx)
	if err != nil {
		return err
	}
	next, err := q.createGeneration(ctx)
	if err != nil {
		return err
	}

	if err := q.fill(ctx, next, source); err != nil {
		// the alias still points at the previous generation
		if dropErr := q.client.DeleteCollection(context.WithoutCancel(ctx), next); dropErr != nil {
			q.logger.Warn("failed to drop abandoned collection", "collection", next, "err", dropErr)
		}
		return err
	}

	ops := []*qdrant.AliasOperations{}
	if previous != "" {
		ops = append(ops, qdrant.NewAliasDelete(q.alias))
	}
	ops = append(ops, qdrant.NewAliasCreate(q.alias, next))
	if err := q.client.UpdateAliases(ctx, ops); err != nil {
		return fmt.Errorf("%w: switch alias %s to %s: %w", models.ErrStorage, q.alias, next, err)
	}
	q.logger.Info("rebuilt index", "alias", q.alias, "collection", next)

	if previous != "" {
		if err := q.client.DeleteCollection(ctx, previous); err != nil {
			q.logger.Warn("failed to drop previous collection", "collection", previous, "err", err)
		}
	}
	return nil
}

func (q *Qdrant) Len(ctx context.Context) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.alias,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: qdrant count: %w", models.ErrStorage, err)
	}
	return int(n), nil
}

func (q *Qdrant) fill(ctx context.Context, collection string, source iter.Seq2[Entry, error]) error {
	batch := make([]Entry, 0, upsertBatchSize)
	for entry, err := range source {
		if err != nil {
			return fmt.Errorf("rebuild source: %w", err)
		}
		if err := checkDimension(q.dimension, len(entry.Vector)); err != nil {
			return fmt.Errorf("rebuild entry %s: %w", entry.ID, err)
		}
		batch = append(batch, entry)
		if len(batch) == upsertBatchSize {
			if err := q.upsert(ctx, collection, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		return q.upsert(ctx, collection, batch)
	}
	return nil
}

func (q *Qdrant) upsert(ctx context.Context, collection string, entries []Entry) error {
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(e.ID),
			Vectors: qdrant.NewVectors(toFloat32(e.Vector)...),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant upsert into %s: %w", models.ErrStorage, collection, err)
	}
	return nil
}

// currentCollection returns the collection behind the alias, or "" if the alias does not exist yet
func (q *Qdrant) currentCollection(ctx context.Context) (string, error) {
	aliases, err := q.client.ListAliases(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: list qdrant aliases: %w", models.ErrStorage, err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == q.alias {
			return a.GetCollectionName(), nil
		}
	}
	return "", nil
}

func (q *Qdrant) createGeneration(ctx context.Context) (string, error) {
	name := generationName(q.alias, time.Now())
	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create collection %s: %w", models.ErrStorage, name, err)
	}
	return name, nil
}

func generationName(alias string, now time.Time) string {
	return fmt.Sprintf("%s_%d", alias, now.UnixNano())
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
