// ABOUTME: Retrieval results and context bundles returned by the memory core
// ABOUTME: None of these are persisted; they are produced fresh per call
package models

// RetrievalResult is a ranked document for a query
type RetrievalResult struct {
	DocumentID string    `json:"document_id" yaml:"document_id"`
	Score      float64   `json:"score" yaml:"score"`
	Document   *Document `json:"document,omitempty" yaml:"document,omitempty"`
}

// ContextBundle is what the memory manager hands to the caller that talks to the model
type ContextBundle struct {
	ConversationID     string            `json:"conversation_id" yaml:"conversation_id"`
	UserTurn           Turn              `json:"user_turn" yaml:"user_turn"`
	Outcome            string            `json:"outcome" yaml:"outcome"`
	RecentTurns        []Turn            `json:"recent_turns" yaml:"recent_turns"`
	RetrievedDocuments []RetrievalResult `json:"retrieved_documents" yaml:"retrieved_documents"`
	EstimatedTokens    int               `json:"estimated_tokens" yaml:"estimated_tokens"`
}

// Stats summarizes stored state
type Stats struct {
	Documents      int    `json:"documents" yaml:"documents"`
	Conversations  int    `json:"conversations" yaml:"conversations"`
	Turns          int    `json:"turns" yaml:"turns"`
	IndexedVectors int    `json:"indexed_vectors" yaml:"indexed_vectors"`
	Provider       string `json:"provider" yaml:"provider"`
	Dimension      int    `json:"dimension" yaml:"dimension"`
}
