// ABOUTME: Document storage operations for SQLite
// ABOUTME: Append-only: documents are created and read, never edited in place
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/harper/recall/internal/models"
)

// DocumentStore handles document persistence
type DocumentStore struct {
	db  *DB
	now func() time.Time
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db, now: time.Now}
}

// Put stores a new document with a freshly allocated id
func (s *DocumentStore) Put(ctx context.Context, name, text string, embedding []float64) (models.Document, error) {
	if strings.TrimSpace(name) == "" {
		return models.Document{}, fmt.Errorf("%w: document name cannot be empty", models.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return models.Document{}, fmt.Errorf("%w: document text cannot be empty", models.ErrValidation)
	}
	if len(embedding) == 0 {
		return models.Document{}, fmt.Errorf("%w: document embedding cannot be empty", models.ErrValidation)
	}

	doc := models.Document{
		ID:        models.NewDocumentID(),
		Name:      name,
		Text:      text,
		Embedding: append([]float64(nil), embedding...),
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, text, embedding, dimension, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Name, doc.Text, vectorToBlob(doc.Embedding), len(doc.Embedding), doc.CreatedAt.UnixNano())
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: insert document: %w", models.ErrStorage, err)
	}

	return doc, nil
}

// Get retrieves a document by id
func (s *DocumentStore) Get(ctx context.Context, id string) (models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, text, embedding, created_at
		FROM documents
		WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%w: document %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: get document %s: %w", models.ErrStorage, id, err)
	}
	return doc, nil
}

// All streams every document in insertion order.
// Each range over the returned sequence runs a fresh query.
func (s *DocumentStore) All(ctx context.Context) iter.Seq2[models.Document, error] {
	return func(yield func(models.Document, error) bool) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, text, embedding, created_at
			FROM documents
			ORDER BY seq ASC
		`)
		if err != nil {
			yield(models.Document{}, fmt.Errorf("%w: list documents: %w", models.ErrStorage, err))
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				yield(models.Document{}, fmt.Errorf("%w: scan document: %w", models.ErrStorage, err))
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Document{}, fmt.Errorf("%w: list documents: %w", models.ErrStorage, err))
		}
	}
}

// ListByName returns all documents ingested under name, oldest first
func (s *DocumentStore) ListByName(ctx context.Context, name string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, text, embedding, created_at
		FROM documents
		WHERE name = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents by name: %w", models.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan document: %w", models.ErrStorage, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents by name: %w", models.ErrStorage, err)
	}
	return docs, nil
}

// Count returns the number of stored documents
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count documents: %w", models.ErrStorage, err)
	}
	return n, nil
}

// OldestIDs returns up to n document ids in insertion order
func (s *DocumentStore) OldestIDs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM documents ORDER BY seq ASC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("%w: list oldest documents: %w", models.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan document id: %w", models.ErrStorage, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a document. Deleting an unknown id is not an error.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: delete document %s: %w", models.ErrStorage, id, err)
	}
	return nil
}

// ReplaceEmbeddings swaps the embedding of every listed document in one transaction.
// Only full re-embedding after a provider change uses this; text is never touched.
func (s *DocumentStore) ReplaceEmbeddings(ctx context.Context, embeddings map[string][]float64) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin re-embed: %w", models.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "UPDATE documents SET embedding = ?, dimension = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("%w: prepare re-embed: %w", models.ErrStorage, err)
	}
	defer func() { _ = stmt.Close() }()

	for id, vector := range embeddings {
		if len(vector) == 0 {
			return fmt.Errorf("%w: empty embedding for document %s", models.ErrValidation, id)
		}
		if _, err := stmt.ExecContext(ctx, vectorToBlob(vector), len(vector), id); err != nil {
			return fmt.Errorf("%w: re-embed document %s: %w", models.ErrStorage, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit re-embed: %w", models.ErrStorage, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc       models.Document
		blob      []byte
		createdAt int64
	)
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Text, &blob, &createdAt); err != nil {
		return models.Document{}, err
	}
	vector, err := blobToVector(blob)
	if err != nil {
		return models.Document{}, err
	}
	doc.Embedding = vector
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	return doc, nil
}
