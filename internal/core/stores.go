// ABOUTME: Narrow views of the persistence layer that the core depends on
// ABOUTME: The SQLite stores satisfy these; tests substitute their own
package core

import (
	"context"

	"github.com/harper/recall/internal/models"
)

// DocumentReader resolves document ids to documents
type DocumentReader interface {
	Get(ctx context.Context, id string) (models.Document, error)
}

// ConversationLog appends and reads conversation turns
type ConversationLog interface {
	Append(ctx context.Context, conversationID string, role models.Role, text string) (models.AppendResult, error)
	History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
}
