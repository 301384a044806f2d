// ABOUTME: MCP tool handler implementations for the recall server
// ABOUTME: Tool failures become error results; only transport problems return Go errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/core"
	"github.com/harper/recall/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	svc      *core.Service
	defaults Defaults
	logger   *log.Logger
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	doc, err := h.svc.Ingest(ctx, name, text)
	if err != nil {
		return h.failure("ingest failed", err), nil
	}

	return jsonResult(map[string]interface{}{
		"document_id": doc.ID,
		"name":        doc.Name,
		"dimension":   doc.Dimension(),
	})
}

// RetrieveDocuments handles the retrieve_documents tool
func (h *Handlers) RetrieveDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	k := request.GetInt("k", h.defaults.RetrievalK)

	results, err := h.svc.Retrieve(ctx, query, k)
	if err != nil {
		return h.failure("retrieval failed", err), nil
	}

	return jsonResult(map[string]interface{}{
		"documents": documentsView(results),
	})
}

// AppendTurn handles the append_turn tool
func (h *Handlers) AppendTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("conversation_id argument is required and must be a string"), nil
	}
	roleName, err := request.RequireString("role")
	if err != nil {
		return mcp.NewToolResultError("role argument is required and must be a string"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	role, err := models.ParseRole(roleName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.svc.AppendTurn(ctx, conversationID, role, text)
	if err != nil {
		return h.failure("append failed", err), nil
	}

	return jsonResult(map[string]interface{}{
		"conversation_id": conversationID,
		"sequence":        res.Turn.Sequence,
		"outcome":         res.Outcome.String(),
	})
}

// GetHistory handles the get_history tool
func (h *Handlers) GetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("conversation_id argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", h.defaults.HistoryLimit)

	turns, err := h.svc.History(ctx, conversationID, limit)
	if err != nil {
		return h.failure("history failed", err), nil
	}

	return jsonResult(map[string]interface{}{
		"conversation_id": conversationID,
		"turns":           turns,
	})
}

// AssembleContext handles the assemble_context tool
func (h *Handlers) AssembleContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("conversation_id argument is required and must be a string"), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	bundle, err := h.svc.AssembleContext(ctx, core.AssembleRequest{
		ConversationID: conversationID,
		Message:        message,
		RetrievalK:     request.GetInt("k", h.defaults.RetrievalK),
		HistoryLimit:   request.GetInt("history_limit", h.defaults.HistoryLimit),
		TokenBudget:    request.GetInt("token_budget", h.defaults.TokenBudget),
	})
	if err != nil {
		return h.failure("context assembly failed", err), nil
	}

	return jsonResult(map[string]interface{}{
		"conversation_id":  bundle.ConversationID,
		"sequence":         bundle.UserTurn.Sequence,
		"outcome":          bundle.Outcome,
		"recent_turns":     bundle.RecentTurns,
		"documents":        documentsView(bundle.RetrievedDocuments),
		"estimated_tokens": bundle.EstimatedTokens,
	})
}

// MemoryStats handles the memory_stats tool
func (h *Handlers) MemoryStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		return h.failure("stats failed", err), nil
	}
	return jsonResult(stats)
}

func (h *Handlers) failure(what string, err error) *mcp.CallToolResult {
	h.logger.Warn(what, "err", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", what, err))
}

// documentsView drops embeddings, which are large and useless to an agent
func documentsView(results []models.RetrievalResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		entry := map[string]interface{}{
			"document_id": r.DocumentID,
			"score":       r.Score,
		}
		if r.Document != nil {
			entry["name"] = r.Document.Name
			entry["text"] = r.Document.Text
		}
		out = append(out, entry)
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
