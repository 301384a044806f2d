// ABOUTME: Conversation turn storage operations for SQLite
// ABOUTME: Assigns gap-free sequence numbers per conversation
package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harper/recall/internal/models"
)

// ConversationStore handles turn persistence
type ConversationStore struct {
	db    *DB
	locks *keyLock
	now   func() time.Time
}

// NewConversationStore creates a new ConversationStore
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db, locks: newKeyLock(), now: time.Now}
}

// Append stores a turn with the next sequence number for its conversation.
// Conversations are created implicitly by their first append.
func (s *ConversationStore) Append(ctx context.Context, conversationID string, role models.Role, text string) (models.AppendResult, error) {
	if strings.TrimSpace(conversationID) == "" {
		return models.AppendResult{}, fmt.Errorf("%w: conversation id cannot be empty", models.ErrValidation)
	}
	if !role.Valid() {
		return models.AppendResult{}, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}
	if strings.TrimSpace(text) == "" {
		return models.AppendResult{}, fmt.Errorf("%w: turn text cannot be empty", models.ErrValidation)
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return models.AppendResult{}, fmt.Errorf("%w: begin append: %w", models.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sequence), 0) FROM turns WHERE conversation_id = ?",
		conversationID).Scan(&last)
	if err != nil {
		return models.AppendResult{}, fmt.Errorf("%w: read last sequence: %w", models.ErrStorage, err)
	}

	turn := models.Turn{
		ConversationID: conversationID,
		Role:           role,
		Text:           text,
		Sequence:       last + 1,
		CreatedAt:      s.now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (conversation_id, sequence, role, text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ConversationID, turn.Sequence, string(turn.Role), turn.Text, turn.CreatedAt.UnixNano())
	if err != nil {
		return models.AppendResult{}, fmt.Errorf("%w: insert turn: %w", models.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return models.AppendResult{}, fmt.Errorf("%w: commit turn: %w", models.ErrStorage, err)
	}

	outcome := models.Appended
	if turn.Sequence == 1 {
		outcome = models.Created
	}
	return models.AppendResult{Turn: turn, Outcome: outcome}, nil
}

// History returns the most recent limit turns, oldest first. limit <= 0 returns all turns.
func (s *ConversationStore) History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	query := `
		SELECT conversation_id, sequence, role, text, created_at
		FROM turns
		WHERE conversation_id = ?
		ORDER BY sequence DESC`
	args := []any{conversationID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %w", models.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	turns := []models.Turn{}
	for rows.Next() {
		var (
			turn      models.Turn
			role      string
			createdAt int64
		)
		if err := rows.Scan(&turn.ConversationID, &turn.Sequence, &role, &turn.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan turn: %w", models.ErrStorage, err)
		}
		turn.Role = models.Role(role)
		turn.CreatedAt = time.Unix(0, createdAt).UTC()
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load history: %w", models.ErrStorage, err)
	}

	// newest-first from the query; callers want oldest first
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListConversations returns every conversation id, ordered by id
func (s *ConversationStore) ListConversations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT conversation_id FROM turns ORDER BY conversation_id")
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", models.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan conversation id: %w", models.ErrStorage, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountTurns returns the total number of stored turns
func (s *ConversationStore) CountTurns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count turns: %w", models.ErrStorage, err)
	}
	return n, nil
}

// CountConversations returns the number of distinct conversations
func (s *ConversationStore) CountConversations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT conversation_id) FROM turns").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count conversations: %w", models.ErrStorage, err)
	}
	return n, nil
}
