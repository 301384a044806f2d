// ABOUTME: MemoryManager assembles the context for one user message
// ABOUTME: Records the turn, retrieves documents, loads recent history and fits a token budget
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/tokens"
)

// turnOverhead approximates the role marker and separators around each turn
const turnOverhead = 4

// AssembleRequest describes one context assembly
type AssembleRequest struct {
	ConversationID string
	Message        string
	// RetrievalK is the number of documents to retrieve; must be positive
	RetrievalK int
	// HistoryLimit caps recent turns; 0 means the whole conversation
	HistoryLimit int
	// TokenBudget drops the oldest turns until everything fits; 0 disables trimming
	TokenBudget int
}

// MemoryManager coordinates the conversation log and the retriever
type MemoryManager struct {
	conversations ConversationLog
	retriever     *Retriever
	counter       tokens.Counter
	logger        *log.Logger
}

// NewMemoryManager creates a MemoryManager
func NewMemoryManager(conversations ConversationLog, retriever *Retriever, counter tokens.Counter, logger *log.Logger) *MemoryManager {
	if counter == nil {
		counter = tokens.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MemoryManager{
		conversations: conversations,
		retriever:     retriever,
		counter:       counter,
		logger:        logger.WithPrefix("memory"),
	}
}

// AssembleContext records req.Message as a user turn and gathers what a model needs to answer it.
//
// The user turn is committed before retrieval starts. If ctx is canceled or the
// embedding provider fails afterwards, the call returns an error but the turn stays
// in the conversation. The returned history includes the new turn as its last entry.
func (m *MemoryManager) AssembleContext(ctx context.Context, req AssembleRequest) (models.ContextBundle, error) {
	if req.RetrievalK <= 0 {
		return models.ContextBundle{}, fmt.Errorf("%w: retrieval k must be positive, got %d", models.ErrValidation, req.RetrievalK)
	}
	if req.HistoryLimit < 0 {
		return models.ContextBundle{}, fmt.Errorf("%w: history limit must be >= 0, got %d", models.ErrValidation, req.HistoryLimit)
	}
	if req.TokenBudget < 0 {
		return models.ContextBundle{}, fmt.Errorf("%w: token budget must be >= 0, got %d", models.ErrValidation, req.TokenBudget)
	}

	appended, err := m.conversations.Append(ctx, req.ConversationID, models.RoleUser, req.Message)
	if err != nil {
		return models.ContextBundle{}, err
	}

	documents, err := m.retriever.Retrieve(ctx, req.Message, req.RetrievalK)
	if errors.Is(err, errNoQueryContent) {
		documents, err = nil, nil
	}
	if err != nil {
		return models.ContextBundle{}, fmt.Errorf("retrieve for conversation %s: %w", req.ConversationID, err)
	}

	history, err := m.conversations.History(ctx, req.ConversationID, req.HistoryLimit)
	if err != nil {
		return models.ContextBundle{}, err
	}

	history, estimated := m.fitBudget(history, documents, req.TokenBudget)

	m.logger.Debug("assembled context",
		"conversation", req.ConversationID,
		"sequence", appended.Turn.Sequence,
		"turns", len(history),
		"documents", len(documents),
		"tokens", estimated)

	return models.ContextBundle{
		ConversationID:     req.ConversationID,
		UserTurn:           appended.Turn,
		Outcome:            appended.Outcome.String(),
		RecentTurns:        history,
		RetrievedDocuments: documents,
		EstimatedTokens:    estimated,
	}, nil
}

// RecordReply appends the assistant's reply to a conversation
func (m *MemoryManager) RecordReply(ctx context.Context, conversationID, text string) (models.AppendResult, error) {
	return m.conversations.Append(ctx, conversationID, models.RoleAssistant, text)
}

// fitBudget drops the oldest turns until turns plus documents fit budget.
// The newest turn is always kept.
func (m *MemoryManager) fitBudget(history []models.Turn, documents []models.RetrievalResult, budget int) ([]models.Turn, int) {
	docTokens := 0
	for _, d := range documents {
		if d.Document != nil {
			docTokens += m.counter.Count(d.Document.Text)
		}
	}

	turnTokens := make([]int, len(history))
	total := docTokens
	for i, t := range history {
		turnTokens[i] = m.counter.Count(t.Text) + turnOverhead
		total += turnTokens[i]
	}

	if budget <= 0 {
		return history, total
	}

	drop := 0
	for total > budget && drop < len(history)-1 {
		total -= turnTokens[drop]
		drop++
	}
	if drop > 0 {
		m.logger.Debug("trimmed history to fit budget", "dropped", drop, "budget", budget, "tokens", total)
	}
	return history[drop:], total
}
