// ABOUTME: CLI command to show storage statistics
// ABOUTME: Counts documents, conversations and turns plus the database size
package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/models"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

type statsOutput struct {
	models.Stats `yaml:",inline"`
	Database     string `json:"database" yaml:"database"`
	SizeBytes    int64  `json:"size_bytes" yaml:"size_bytes"`
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}

	out := statsOutput{Stats: stats, Database: a.svc.Storage().Path()}
	if info, err := os.Stat(out.Database); err == nil {
		out.SizeBytes = info.Size()
	}

	return render(cmd.OutOrStdout(), out, func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Database:\t%s (%s)\n", out.Database, humanize.Bytes(uint64(out.SizeBytes)))
		fmt.Fprintf(w, "Provider:\t%s (%d dims)\n", stats.Provider, stats.Dimension)
		fmt.Fprintf(w, "Documents:\t%s\n", humanize.Comma(int64(stats.Documents)))
		fmt.Fprintf(w, "Indexed vectors:\t%s\n", humanize.Comma(int64(stats.IndexedVectors)))
		fmt.Fprintf(w, "Conversations:\t%s\n", humanize.Comma(int64(stats.Conversations)))
		fmt.Fprintf(w, "Turns:\t%s\n", humanize.Comma(int64(stats.Turns)))
	})
}
