// ABOUTME: Deterministic offline embedding using feature hashing of word tokens
// ABOUTME: Needs no network or corpus preparation, so the dimension is fixed up front
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/harper/recall/internal/models"
)

// DefaultHashDimension is the vector length of the hash provider unless configured
const DefaultHashDimension = 1024

// HashProvider embeds text as an L2-normalized bag of hashed words
type HashProvider struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewHashProvider creates a hash provider with the given dimension
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashProvider{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// Model returns the identifier of this embedder implementation
func (h *HashProvider) Model() string {
	return fmt.Sprintf("hash-fnv1a-%d", h.dimension)
}

// Dimension returns the dimensionality of the produced vectors
func (h *HashProvider) Dimension() int {
	return h.dimension
}

// Embed computes the hashed term-frequency vector of text
func (h *HashProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}

	vec := make([]float64, h.dimension)
	for _, tok := range h.tokenize(text) {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(tok))
		sum := hasher.Sum64()
		idx := int(sum % uint64(h.dimension))
		// second hash bit picks the sign so collisions tend to cancel
		if sum&(1<<63) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (h *HashProvider) tokenize(text string) []string {
	raw := h.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := h.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	// text made only of stopwords still gets a vector of its own
	if len(out) == 0 {
		return raw
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "so", "such", "into", "about", "can", "will", "just", "should", "now", "what", "which", "who",
		"how", "do", "does", "i", "you", "we", "me", "my", "your",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
