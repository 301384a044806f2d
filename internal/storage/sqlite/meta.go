// ABOUTME: Key/value metadata stored alongside documents
// ABOUTME: Records which embedding provider produced the stored vectors
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harper/recall/internal/models"
)

// MetaStore handles metadata persistence
type MetaStore struct {
	db *DB
}

// NewMetaStore creates a new MetaStore
func NewMetaStore(db *DB) *MetaStore {
	return &MetaStore{db: db}
}

// Get returns the value for key and whether it was present
func (s *MetaStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read meta %s: %w", models.ErrStorage, key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (s *MetaStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: write meta %s: %w", models.ErrStorage, key, err)
	}
	return nil
}
