// ABOUTME: CLI commands for conversations: chat records a user message, reply records the answer
// ABOUTME: chat prints the assembled context an assistant would receive
package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/core"
	"github.com/harper/recall/internal/models"
)

var (
	chatK       int
	chatHistory int
	chatBudget  int
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <conversation-id> <message>",
		Short: "Record a user message and show its context",
		Long: `Record a user message and assemble its context.

The message is stored as the next user turn, then the most relevant
documents and the recent history (including the new turn) are printed.
No language model is called; pair with "recall reply" to store the answer.

Flags left at -1 use RECALL_RETRIEVAL_K, RECALL_HISTORY_LIMIT and
RECALL_TOKEN_BUDGET.

Examples:
  recall chat conv-1 "What color is the sky?"
  recall chat --k 5 --history 20 conv-1 "and at night?"
  recall chat --budget 2000 --format json conv-1 "summarize"`,
		Args: cobra.ExactArgs(2),
		RunE: runChat,
	}

	cmd.Flags().IntVar(&chatK, "k", -1, "Documents to retrieve")
	cmd.Flags().IntVar(&chatHistory, "history", -1, "Recent turns to include (0 = all)")
	cmd.Flags().IntVar(&chatBudget, "budget", -1, "Token budget for turns and documents (0 = unlimited)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	req := core.AssembleRequest{
		ConversationID: args[0],
		Message:        args[1],
		RetrievalK:     orDefault(chatK, a.cfg.RetrievalK),
		HistoryLimit:   orDefault(chatHistory, a.cfg.HistoryLimit),
		TokenBudget:    orDefault(chatBudget, a.cfg.TokenBudget),
	}

	bundle, err := a.svc.AssembleContext(ctx, req)
	if err != nil {
		return fmt.Errorf("assembling context: %w", err)
	}

	return render(cmd.OutOrStdout(), bundleView(bundle), func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Conversation %s, turn %d (%s)\n\n", bundle.ConversationID, bundle.UserTurn.Sequence, bundle.Outcome)
		writeTurns(w, bundle.RecentTurns)
		if len(bundle.RetrievedDocuments) > 0 {
			fmt.Fprintf(w, "\nSCORE\tDOCUMENT\tPREVIEW\n")
			for _, r := range bundle.RetrievedDocuments {
				fmt.Fprintf(w, "%.3f\t%s\t%s\n", r.Score, truncate(r.Document.Name, 20), truncate(r.Document.Text, 60))
			}
		}
		fmt.Fprintf(w, "\n~%d tokens\n", bundle.EstimatedTokens)
	})
}

// NewReplyCmd creates the reply command
func NewReplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply <conversation-id> <text>",
		Short: "Record an assistant reply",
		Long: `Append an assistant turn to a conversation.

Examples:
  recall reply conv-1 "The sky is blue."`,
		Args: cobra.ExactArgs(2),
		RunE: runReply,
	}
	return cmd
}

func runReply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.RecordReply(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("recording reply: %w", err)
	}

	return render(cmd.OutOrStdout(), res.Turn, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Recorded turn %d in %s\n", res.Turn.Sequence, res.Turn.ConversationID)
	})
}

type bundleDocument struct {
	DocumentID string  `json:"document_id" yaml:"document_id"`
	Score      float64 `json:"score" yaml:"score"`
	Name       string  `json:"name" yaml:"name"`
	Text       string  `json:"text" yaml:"text"`
}

type bundleOutput struct {
	ConversationID  string           `json:"conversation_id" yaml:"conversation_id"`
	Sequence        int64            `json:"sequence" yaml:"sequence"`
	Outcome         string           `json:"outcome" yaml:"outcome"`
	RecentTurns     []models.Turn    `json:"recent_turns" yaml:"recent_turns"`
	Documents       []bundleDocument `json:"documents" yaml:"documents"`
	EstimatedTokens int              `json:"estimated_tokens" yaml:"estimated_tokens"`
}

func bundleView(b models.ContextBundle) bundleOutput {
	out := bundleOutput{
		ConversationID:  b.ConversationID,
		Sequence:        b.UserTurn.Sequence,
		Outcome:         b.Outcome,
		RecentTurns:     b.RecentTurns,
		Documents:       make([]bundleDocument, 0, len(b.RetrievedDocuments)),
		EstimatedTokens: b.EstimatedTokens,
	}
	for _, r := range b.RetrievedDocuments {
		out.Documents = append(out.Documents, bundleDocument{DocumentID: r.DocumentID, Score: r.Score, Name: r.Document.Name, Text: r.Document.Text})
	}
	return out
}

func writeTurns(w io.Writer, turns []models.Turn) {
	for _, t := range turns {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.Sequence, strings.ToUpper(string(t.Role)), formatTime(t.CreatedAt), truncate(t.Text, 70))
	}
}

func orDefault(flag, fallback int) int {
	if flag < 0 {
		return fallback
	}
	return flag
}
