// ABOUTME: Error taxonomy shared by the stores, the index and the retrieval core
// ABOUTME: Callers classify failures with errors.Is against these sentinels
package models

import "errors"

var (
	// ErrValidation marks bad caller input: empty text, non-positive k, unknown role.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a reference to a document that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingUnavailable marks a provider failure, rate limit or timeout.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrStorage marks a persistence layer failure.
	ErrStorage = errors.New("storage error")

	// ErrProviderMismatch is returned when the configured embedding provider
	// differs from the one that produced the stored embeddings.
	ErrProviderMismatch = errors.New("embedding provider mismatch")
)
