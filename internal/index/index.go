// ABOUTME: Vector similarity index contract shared by the flat and Qdrant backends
// ABOUTME: Scores are cosine similarity; equal scores rank by ascending document id
package index

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/harper/recall/internal/models"
)

// Entry is one vector to load into an index
type Entry struct {
	ID     string
	Vector []float64
}

// Hit is a search result
type Hit struct {
	ID    string
	Score float64
}

// Index answers top-k nearest-neighbor queries over document embeddings.
// Implementations are safe for concurrent use.
type Index interface {
	// Add inserts or replaces the vector for id
	Add(ctx context.Context, id string, vector []float64) error
	// Search returns at most k hits ordered by score descending
	Search(ctx context.Context, query []float64, k int) ([]Hit, error)
	// Remove deletes id; removing an unknown id is not an error
	Remove(ctx context.Context, id string) error
	// Rebuild replaces the whole contents with source. If source yields an
	// error the previous contents stay in place.
	Rebuild(ctx context.Context, source iter.Seq2[Entry, error]) error
	// Len reports the number of indexed vectors
	Len(ctx context.Context) (int, error)
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero magnitude
func Cosine(a, b []float64) float64 {
	return cosineWithNorms(a, norm(a), b, norm(b))
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosineWithNorms(a []float64, na float64, b []float64, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (na * nb)
}

// SortHits orders hits by score descending, then id ascending
func SortHits(hits []Hit) {
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func checkK(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", models.ErrValidation, k)
	}
	return nil
}

func checkDimension(want, got int) error {
	if got == 0 {
		return fmt.Errorf("%w: empty vector", models.ErrValidation)
	}
	if want != 0 && want != got {
		return fmt.Errorf("%w: vector has dimension %d, index expects %d", models.ErrValidation, got, want)
	}
	return nil
}
