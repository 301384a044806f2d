// ABOUTME: SQLite database schema for documents, conversation turns and metadata
// ABOUTME: The vector index is derived from the documents table and never stored here
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Documents: immutable text plus the embedding computed from it at ingestion
CREATE TABLE IF NOT EXISTS documents (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    text TEXT NOT NULL,
    embedding BLOB NOT NULL,
    dimension INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

-- Turns: one row per message, keyed by conversation and sequence
CREATE TABLE IF NOT EXISTS turns (
    conversation_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (conversation_id, sequence)
);

-- Key/value metadata (embedding provider identity)
CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_name ON documents(name);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
