// ABOUTME: MCP tool definitions and registration for the recall server
// ABOUTME: Defines JSON schemas for the six memory tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/harper/recall/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Defaults applied when a tool call omits an optional argument
type Defaults struct {
	RetrievalK   int
	HistoryLimit int
	TokenBudget  int
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc *core.Service, defaults Defaults, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	handlers := &Handlers{
		svc:      svc,
		defaults: defaults,
		logger:   logger.WithPrefix("mcp"),
	}

	// 1. ingest_document - embed and store a document
	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Store a document in memory. The text is embedded once; ingesting the same name again creates a new document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Document name, for example a file name",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document content",
				},
			},
			Required: []string{"name", "text"},
		},
	}, handlers.IngestDocument)

	// 2. retrieve_documents - similarity search
	server.AddTool(mcp.Tool{
		Name:        "retrieve_documents",
		Description: "Find the stored documents most similar to a query, ranked by cosine similarity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to match against stored documents",
				},
				"k": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of documents to return",
					"default":     defaults.RetrievalK,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.RetrieveDocuments)

	// 3. append_turn - add a turn to a conversation
	server.AddTool(mcp.Tool{
		Name:        "append_turn",
		Description: "Append a user or assistant turn to a conversation. The conversation is created on first use.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation identifier",
				},
				"role": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"user", "assistant"},
					"description": "Who produced the turn",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Turn content",
				},
			},
			Required: []string{"conversation_id", "role", "text"},
		},
	}, handlers.AppendTurn)

	// 4. get_history - recent turns of a conversation
	server.AddTool(mcp.Tool{
		Name:        "get_history",
		Description: "Get the most recent turns of a conversation, oldest first. An unknown conversation has an empty history.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation identifier",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of turns; 0 returns the whole conversation",
					"default":     defaults.HistoryLimit,
				},
			},
			Required: []string{"conversation_id"},
		},
	}, handlers.GetHistory)

	// 5. assemble_context - record a user message and gather its context
	server.AddTool(mcp.Tool{
		Name:        "assemble_context",
		Description: "Record a user message and return the recent history plus the most relevant documents for answering it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation identifier",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The new user message",
				},
				"k": map[string]interface{}{
					"type":        "number",
					"description": "Number of documents to retrieve",
					"default":     defaults.RetrievalK,
				},
				"history_limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of recent turns; 0 returns all",
					"default":     defaults.HistoryLimit,
				},
				"token_budget": map[string]interface{}{
					"type":        "number",
					"description": "Drop the oldest turns until turns and documents fit this many tokens; 0 disables",
					"default":     defaults.TokenBudget,
				},
			},
			Required: []string{"conversation_id", "message"},
		},
	}, handlers.AssembleContext)

	// 6. memory_stats - counts of stored state
	server.AddTool(mcp.Tool{
		Name:        "memory_stats",
		Description: "Report document, conversation, turn and index counts along with the embedding provider.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.MemoryStats)

	return handlers
}
