// ABOUTME: CLI command that watches a directory and ingests text files as they change
// ABOUTME: Runs until interrupted
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/watcher"
)

var (
	watchExtensions []string
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest files from a directory as they change",
		Long: `Watch a directory and ingest new or modified text files.

Each save produces a new document named after the file.

Examples:
  recall watch ./notes
  recall watch --ext .md --ext .org ./notes`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().StringSliceVar(&watchExtensions, "ext", watcher.DefaultExtensions, "File extensions to ingest")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	exts := make([]string, 0, len(watchExtensions))
	for _, e := range watchExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e != "" {
			exts = append(exts, e)
		}
	}

	out := cmd.OutOrStdout()
	w, err := watcher.New(a.svc, watcher.Options{
		Extensions: exts,
		Logger:     a.logger,
		OnIngest: func(path string, doc models.Document) {
			infof(out, "Ingested %s as %s\n", path, doc.ID)
		},
	})
	if err != nil {
		return err
	}

	infof(out, "Watching %s (Ctrl-C to stop)\n", dir)
	return w.Run(ctx, dir)
}
