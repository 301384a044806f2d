// ABOUTME: Exact in-memory index that scans every vector on each query
// ABOUTME: Rebuilds assemble a fresh table off-lock and swap it in one step
package index

import (
	"context"
	"fmt"
	"iter"
	"sync"
)

type flatVector struct {
	values []float64
	norm   float64
}

// Flat is an exact linear-scan index held in memory
type Flat struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]flatVector
}

// NewFlat creates an empty flat index. A zero dimension is fixed by the first vector added.
func NewFlat(dimension int) *Flat {
	return &Flat{
		dimension: dimension,
		vectors:   make(map[string]flatVector),
	}
}

// Dimension reports the vector length this index accepts, 0 if not yet fixed
func (f *Flat) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimension
}

func (f *Flat) Add(ctx context.Context, id string, vector []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := checkDimension(f.dimension, len(vector)); err != nil {
		return err
	}
	if f.dimension == 0 {
		f.dimension = len(vector)
	}
	f.vectors[id] = newFlatVector(vector)
	return nil
}

func (f *Flat) Search(ctx context.Context, query []float64, k int) ([]Hit, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.vectors) == 0 {
		return []Hit{}, nil
	}
	if err := checkDimension(f.dimension, len(query)); err != nil {
		return nil, err
	}

	qn := norm(query)
	hits := make([]Hit, 0, len(f.vectors))
	for id, v := range f.vectors {
		hits = append(hits, Hit{ID: id, Score: cosineWithNorms(query, qn, v.values, v.norm)})
	}
	SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *Flat) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vectors, id)
	return nil
}

func (f *Flat) Rebuild(ctx context.Context, source iter.Seq2[Entry, error]) error {
	dimension := f.Dimension()
	fresh := make(map[string]flatVector)
	for entry, err := range source {
		if err != nil {
			return fmt.Errorf("rebuild source: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := checkDimension(dimension, len(entry.Vector)); err != nil {
			return fmt.Errorf("rebuild entry %s: %w", entry.ID, err)
		}
		if dimension == 0 {
			dimension = len(entry.Vector)
		}
		fresh[entry.ID] = newFlatVector(entry.Vector)
	}

	f.mu.Lock()
	f.vectors = fresh
	f.dimension = dimension
	f.mu.Unlock()
	return nil
}

func (f *Flat) Len(ctx context.Context) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors), nil
}

func newFlatVector(v []float64) flatVector {
	values := make([]float64, len(v))
	copy(values, v)
	return flatVector{values: values, norm: norm(values)}
}
