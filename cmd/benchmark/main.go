// ABOUTME: Command-line benchmark runner for retrieval scenarios
// ABOUTME: Executes scenarios against the configured embedder and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/harper/recall/benchmarks/retrieval"
	"github.com/harper/recall/internal/config"
	"github.com/harper/recall/internal/embedding"
	"github.com/harper/recall/internal/logging"
)

func main() {
	scenarioID := flag.String("scenario", "", "Run one scenario (1a, 2a, 3a). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	var provider embedding.Provider
	switch cfg.Embedder {
	case config.EmbedderOpenAI:
		provider, err = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal("failed to create embedder", "err", err)
		}
	default:
		provider = embedding.NewHashProvider(cfg.HashDimension)
	}
	model, _ := embedding.Identity(provider)

	fmt.Println("========================================")
	fmt.Println("recall retrieval benchmarks")
	fmt.Printf("embedder: %s\n", model)
	fmt.Println("========================================")

	scenarios := retrieval.All()
	if *scenarioID != "" {
		s, ok := retrieval.ByID(*scenarioID)
		if !ok {
			logger.Fatal("unknown scenario", "id", *scenarioID, "valid", "1a, 2a, 3a")
		}
		scenarios = []retrieval.Scenario{s}
	}

	runner := retrieval.NewRunner(provider, logger)
	results, err := runner.RunAll(context.Background(), scenarios)
	if err != nil {
		logger.Fatal("benchmark failed", "err", err)
	}

	summary := retrieval.Summarize(model, results)
	for _, r := range results {
		fmt.Printf("\n%s: %s\n", r.ScenarioID, r.ScenarioName)
		fmt.Printf("  Document recall: %.2f\n", r.DocumentRecall)
		fmt.Printf("  Reciprocal rank: %.2f\n", r.ReciprocalRank)
		fmt.Printf("  History recall:  %.2f\n", r.HistoryRecall)
		fmt.Printf("  Status: %s\n", r.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total: %d  Passed: %d  Failed: %d\n", summary.Total, summary.Passed, summary.Failed)
	fmt.Println("========================================")

	if err := retrieval.ExportResults(summary, *outputPath); err != nil {
		logger.Fatal("failed to export results", "err", err)
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
