// ABOUTME: CLI command to show conversation history
// ABOUTME: Without an argument it lists known conversations
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [conversation-id]",
		Short: "Show conversation history",
		Long: `Show the turns of a conversation, oldest first.

With no conversation id, list all conversations.

Examples:
  recall history
  recall history conv-1
  recall history --limit 5 conv-1`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 0, "Most recent turns to show (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", historyLimit)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		ids, err := a.svc.Conversations(ctx)
		if err != nil {
			return fmt.Errorf("listing conversations: %w", err)
		}
		if len(ids) == 0 {
			infof(cmd.OutOrStdout(), "No conversations yet\n")
		}
		return render(cmd.OutOrStdout(), ids, func(w *tabwriter.Writer) {
			for _, id := range ids {
				fmt.Fprintln(w, id)
			}
		})
	}

	turns, err := a.svc.History(ctx, args[0], historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(turns) == 0 {
		infof(cmd.OutOrStdout(), "No turns in conversation %s\n", args[0])
	}

	return render(cmd.OutOrStdout(), turns, func(w *tabwriter.Writer) {
		writeTurns(w, turns)
	})
}
