// ABOUTME: Document is an ingested text with its embedding
// ABOUTME: Documents are immutable; re-ingesting a name creates a new document
package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents a stored document and the embedding of its exact text
type Document struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Text      string    `json:"text" yaml:"text"`
	Embedding []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewDocumentID allocates a unique, time ordered document identifier
func NewDocumentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Dimension returns the length of the document embedding
func (d *Document) Dimension() int {
	return len(d.Embedding)
}
