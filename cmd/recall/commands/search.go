// ABOUTME: CLI command to search documents by similarity
// ABOUTME: Prints documents ranked by cosine similarity to the query
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents",
		Long: `Search stored documents by semantic similarity.

Returns at most --limit documents, fewer if the corpus is smaller.

Examples:
  recall search "what color is the sky"
  recall search --limit 10 "deployment checklist"
  recall search --format json "API keys"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")

	return cmd
}

type searchRow struct {
	DocumentID string  `json:"document_id" yaml:"document_id"`
	Score      float64 `json:"score" yaml:"score"`
	Name       string  `json:"name" yaml:"name"`
	Text       string  `json:"text" yaml:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}
	query := args[0]

	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.svc.Retrieve(ctx, query, searchLimit)
	if err != nil {
		return fmt.Errorf("searching documents: %w", err)
	}

	if len(results) == 0 {
		infof(cmd.OutOrStdout(), "No documents found for query: %s\n", query)
		if outputFormat != "json" && outputFormat != "yaml" {
			return nil
		}
	}

	rows := make([]searchRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, searchRow{DocumentID: r.DocumentID, Score: r.Score, Name: r.Document.Name, Text: r.Document.Text})
	}

	if err := render(cmd.OutOrStdout(), rows, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "SCORE\tNAME\tDOCUMENT ID\tPREVIEW\n")
		fmt.Fprintf(w, "-----\t----\t-----------\t-------\n")
		for _, r := range rows {
			fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n", r.Score, truncate(r.Name, 20), r.DocumentID, truncate(r.Text, 60))
		}
	}); err != nil {
		return err
	}

	infof(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
	return nil
}
