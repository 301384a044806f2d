// ABOUTME: CLI command to export documents and conversations
// ABOUTME: Writes YAML, Markdown or an embeddings JSON file
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportType   string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export documents and conversations",
		Long: `Export stored documents and conversations.

Types:
  yaml        documents and full conversation histories
  markdown    the same, readable
  embeddings  document ids with their vectors as JSON

Examples:
  recall export --output backup.yaml
  recall export --type markdown --output memory.md
  recall export --type embeddings --output vectors.json`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (required)")
	cmd.Flags().StringVar(&exportType, "type", "yaml", "Export type: yaml, markdown or embeddings")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var export func() error
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.svc.Storage()
	switch exportType {
	case "yaml":
		export = func() error { return store.ExportToYAML(ctx, exportOutput) }
	case "markdown", "md":
		export = func() error { return store.ExportToMarkdown(ctx, exportOutput) }
	case "embeddings", "json":
		export = func() error { return store.ExportEmbeddingsToJSON(ctx, exportOutput) }
	default:
		return fmt.Errorf("unknown export type %q (want yaml, markdown or embeddings)", exportType)
	}

	if err := export(); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	infof(cmd.OutOrStdout(), "Exported %s to %s\n", exportType, exportOutput)
	return nil
}
