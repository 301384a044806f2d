// ABOUTME: CLI commands that maintain the similarity index: rebuild and reembed
// ABOUTME: reembed is the only command allowed to open a store built by another provider
package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewRebuildCmd creates the rebuild command
func NewRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the similarity index from storage",
		Long: `Rebuild the similarity index from the stored embeddings.

Searches keep working against the old index until the new one is ready.

Examples:
  recall rebuild`,
		Args: cobra.NoArgs,
		RunE: runRebuild,
	}
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	if err := a.svc.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}
	stats, err := a.svc.Stats(ctx)
	if err != nil {
		return err
	}

	out := map[string]any{"indexed_vectors": stats.IndexedVectors, "elapsed": time.Since(start).Round(time.Millisecond).String()}
	return render(cmd.OutOrStdout(), out, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Rebuilt index with %d vectors in %s\n", stats.IndexedVectors, out["elapsed"])
	})
}

// NewReembedCmd creates the reembed command
func NewReembedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reembed",
		Short: "Re-embed every document with the configured provider",
		Long: `Recompute every document embedding with the configured provider.

Run this after changing RECALL_EMBEDDER, the embedding model or its
dimension. Other commands refuse to open a database whose embeddings
came from a different provider until this finishes.

Examples:
  RECALL_EMBEDDER=openai recall reembed`,
		Args: cobra.NoArgs,
		RunE: runReembed,
	}
}

func runReembed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.svc.Reembed(ctx)
	if err != nil {
		return fmt.Errorf("re-embedding documents: %w", err)
	}

	out := map[string]any{"documents": n}
	return render(cmd.OutOrStdout(), out, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Re-embedded %d document(s)\n", n)
	})
}
