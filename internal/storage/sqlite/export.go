// ABOUTME: Export functionality for stored documents and conversations
// ABOUTME: Supports YAML, Markdown and JSON (embeddings) formats
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version       string               `yaml:"version" json:"version"`
	ExportedAt    string               `yaml:"exported_at" json:"exported_at"`
	Tool          string               `yaml:"tool" json:"tool"`
	Documents     []ExportDocument     `yaml:"documents,omitempty" json:"documents,omitempty"`
	Conversations []ExportConversation `yaml:"conversations,omitempty" json:"conversations,omitempty"`
}

// ExportDocument represents a document for export. Vectors are exported separately.
type ExportDocument struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Text      string `yaml:"text" json:"text"`
	Dimension int    `yaml:"dimension" json:"dimension"`
	CreatedAt string `yaml:"created_at" json:"created_at"`
}

// ExportConversation represents one conversation and its turns
type ExportConversation struct {
	ConversationID string       `yaml:"conversation_id" json:"conversation_id"`
	Turns          []ExportTurn `yaml:"turns" json:"turns"`
}

// ExportTurn represents a turn for export
type ExportTurn struct {
	Sequence  int64  `yaml:"sequence" json:"sequence"`
	Role      string `yaml:"role" json:"role"`
	Text      string `yaml:"text" json:"text"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
}

// Export collects all documents and conversations
func (s *Storage) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "recall",
	}

	for doc, err := range s.documents.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		data.Documents = append(data.Documents, ExportDocument{
			ID:        doc.ID,
			Name:      doc.Name,
			Text:      doc.Text,
			Dimension: doc.Dimension(),
			CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		})
	}

	ids, err := s.conversations.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, id := range ids {
		turns, err := s.conversations.History(ctx, id, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
		}
		conv := ExportConversation{
			ConversationID: id,
			Turns:          make([]ExportTurn, 0, len(turns)),
		}
		for _, turn := range turns {
			conv.Turns = append(conv.Turns, ExportTurn{
				Sequence:  turn.Sequence,
				Role:      string(turn.Role),
				Text:      turn.Text,
				Timestamp: turn.CreatedAt.Format(time.RFC3339),
			})
		}
		data.Conversations = append(data.Conversations, conv)
	}

	return data, nil
}

// ExportToYAML exports data to a YAML file
func (s *Storage) ExportToYAML(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	return writeFile(outputPath, func(w io.Writer) error {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	})
}

// ExportToMarkdown exports data to a Markdown file
func (s *Storage) ExportToMarkdown(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	return writeFile(outputPath, func(file io.Writer) error {
		_, _ = fmt.Fprintf(file, "# Recall Export - %s\n\n", time.Now().Format("2006-01-02"))
		_, _ = fmt.Fprintf(file, "Generated: %s\n\n", data.ExportedAt)

		if len(data.Documents) > 0 {
			_, _ = fmt.Fprintln(file, "## Documents")
			_, _ = fmt.Fprintln(file)
			for _, doc := range data.Documents {
				_, _ = fmt.Fprintf(file, "### %s\n\n", doc.Name)
				_, _ = fmt.Fprintf(file, "*%s, %s*\n\n", doc.ID, doc.CreatedAt)
				_, _ = fmt.Fprintf(file, "%s\n\n", strings.TrimSpace(doc.Text))
			}
		}

		if len(data.Conversations) > 0 {
			_, _ = fmt.Fprintln(file, "## Conversations")
			_, _ = fmt.Fprintln(file)
			for _, conv := range data.Conversations {
				_, _ = fmt.Fprintf(file, "### %s\n\n", conv.ConversationID)
				for _, turn := range conv.Turns {
					_, _ = fmt.Fprintf(file, "**%s (%d):** %s\n\n", turn.Role, turn.Sequence, turn.Text)
				}
				_, _ = fmt.Fprintln(file, "---")
				_, _ = fmt.Fprintln(file)
			}
		}
		return nil
	})
}

// ExportEmbeddingsToJSON exports document embeddings to a separate JSON file
func (s *Storage) ExportEmbeddingsToJSON(ctx context.Context, outputPath string) error {
	type EmbeddingExport struct {
		DocumentID string    `json:"document_id"`
		Vector     []float64 `json:"vector"`
	}

	var embeddings []EmbeddingExport
	for doc, err := range s.documents.All(ctx) {
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		embeddings = append(embeddings, EmbeddingExport{DocumentID: doc.ID, Vector: doc.Embedding})
	}

	return writeFile(outputPath, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(embeddings); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	})
}

func writeFile(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return write(file)
}
