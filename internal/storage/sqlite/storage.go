// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Owns the database handle shared by documents, turns and metadata
package sqlite

import (
	"fmt"
)

// Storage groups the durable stores backed by one SQLite database
type Storage struct {
	db            *DB
	documents     *DocumentStore
	conversations *ConversationStore
	meta          *MetaStore
}

// NewStorage initializes storage at the default XDG path
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:            db,
		documents:     NewDocumentStore(db),
		conversations: NewConversationStore(db),
		meta:          NewMetaStore(db),
	}
}

// Documents returns the document store
func (s *Storage) Documents() *DocumentStore {
	return s.documents
}

// Conversations returns the conversation store
func (s *Storage) Conversations() *ConversationStore {
	return s.conversations
}

// Meta returns the metadata store
func (s *Storage) Meta() *MetaStore {
	return s.meta
}

// Path returns the database path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
