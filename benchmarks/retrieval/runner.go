// ABOUTME: Runs benchmark scenarios against a fresh in-memory memory service
// ABOUTME: Each scenario gets its own database so results are independent

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/recall/internal/core"
	"github.com/harper/recall/internal/embedding"
	"github.com/harper/recall/internal/models"
)

// Runner executes scenarios with one embedding provider
type Runner struct {
	provider embedding.Provider
	logger   *log.Logger
}

// NewRunner creates a runner
func NewRunner(provider embedding.Provider, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{provider: provider, logger: logger.WithPrefix("benchmark")}
}

// Run executes one scenario
func (r *Runner) Run(ctx context.Context, s Scenario) (Result, error) {
	start := time.Now()
	r.logger.Info("running scenario", "id", s.ID, "name", s.Name)

	svc, err := core.Open(ctx, core.Options{
		DBPath:   core.InMemory,
		Provider: r.provider,
		Logger:   r.logger,
	})
	if err != nil {
		return Result{}, fmt.Errorf("open service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	for _, d := range s.Documents {
		if _, err := svc.Ingest(ctx, d.Name, d.Text); err != nil {
			return Result{}, fmt.Errorf("ingest %s: %w", d.Name, err)
		}
	}

	conversationID := "benchmark-" + s.ID
	k := s.K
	if k <= 0 {
		k = 3
	}
	for _, msg := range s.Turns {
		if _, err := svc.AssembleContext(ctx, core.AssembleRequest{ConversationID: conversationID, Message: msg, RetrievalK: k}); err != nil {
			return Result{}, fmt.Errorf("turn %q: %w", msg, err)
		}
		if s.Reply != "" {
			if _, err := svc.RecordReply(ctx, conversationID, s.Reply); err != nil {
				return Result{}, err
			}
		}
	}

	bundle, err := svc.AssembleContext(ctx, core.AssembleRequest{ConversationID: conversationID, Message: s.Query, RetrievalK: k})
	if err != nil {
		return Result{}, fmt.Errorf("final query: %w", err)
	}

	result := Evaluate(s, documentNames(bundle.RetrievedDocuments), turnTexts(bundle.RecentTurns))
	result.Details["elapsed_ms"] = time.Since(start).Milliseconds()
	r.logger.Info("scenario done", "id", s.ID, "status", result.Status, "overall", fmt.Sprintf("%.2f", result.OverallScore))
	return result, nil
}

// RunAll executes scenarios in order
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		result, err := r.Run(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("scenario %s failed: %w", s.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Summary is the exported results file
type Summary struct {
	Timestamp string   `json:"timestamp"`
	Provider  string   `json:"provider"`
	Total     int      `json:"total"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Summarize counts passes and failures
func Summarize(provider string, results []Result) Summary {
	s := Summary{
		Timestamp: time.Now().Format(time.RFC3339),
		Provider:  provider,
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Status == "PASS" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the summary as JSON
func ExportResults(summary Summary, outputPath string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

func documentNames(results []models.RetrievalResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r.Document != nil {
			names = append(names, r.Document.Name)
		}
	}
	return names
}

func turnTexts(turns []models.Turn) []string {
	texts := make([]string, 0, len(turns))
	for _, t := range turns {
		texts = append(texts, t.Text)
	}
	return texts
}
