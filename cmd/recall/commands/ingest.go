// ABOUTME: CLI command to ingest documents from arguments, files or stdin
// ABOUTME: Files are embedded concurrently; each becomes a new document
package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harper/recall/internal/models"
	"github.com/harper/recall/internal/watcher"
)

var (
	ingestName        string
	ingestText        string
	ingestConcurrency int
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest documents",
		Long: `Embed and store documents.

Each file becomes one document named after the file. Ingesting the same
name again stores a new document; nothing is overwritten.

Examples:
  recall ingest notes.md todo.txt
  recall ingest --name sky --text "The sky is blue"
  cat README.md | recall ingest --name readme
  recall ingest --concurrency 8 docs/*.md`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestName, "name", "", "Document name for --text or stdin")
	cmd.Flags().StringVar(&ingestText, "text", "", "Document text")
	cmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "Files embedded in parallel")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(ingestConcurrency, "concurrency"); err != nil {
		return err
	}
	if len(args) > 0 && ingestText != "" {
		return fmt.Errorf("use either files or --text, not both")
	}

	var stdinText string
	if len(args) == 0 && ingestText == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		stdinText = string(data)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var docs []models.Document
	switch {
	case len(args) > 0:
		docs, err = ingestFiles(cmd, a, args)
	default:
		text := ingestText
		if text == "" {
			text = stdinText
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return fmt.Errorf("no text provided")
		}
		name := ingestName
		if name == "" {
			name = "stdin"
		}
		var doc models.Document
		doc, err = a.svc.Ingest(ctx, name, text)
		docs = append(docs, doc)
	}
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), documentRows(docs), func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "ID\tNAME\tDIMS\tPREVIEW\n")
		for _, doc := range docs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", doc.ID, truncate(doc.Name, 30), doc.Dimension(), truncate(doc.Text, 50))
		}
	})
}

func ingestFiles(cmd *cobra.Command, a *app, paths []string) ([]models.Document, error) {
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(ingestConcurrency)

	var mu sync.Mutex
	docs := make([]models.Document, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			doc, err := watcher.IngestFile(ctx, a.svc, path, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", path, err)
			}
			mu.Lock()
			docs[i] = doc
			mu.Unlock()
			a.logger.Debug("ingested", "path", path, "id", doc.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

type documentRow struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Dimension int    `json:"dimension" yaml:"dimension"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

func documentRows(docs []models.Document) []documentRow {
	rows := make([]documentRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, documentRow{ID: d.ID, Name: d.Name, Dimension: d.Dimension(), CreatedAt: d.CreatedAt.Format(time.RFC3339)})
	}
	return rows
}

