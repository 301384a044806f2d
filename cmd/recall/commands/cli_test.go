// ABOUTME: End-to-end tests that drive the CLI against a temporary database
// ABOUTME: Uses the hash embedder so no network access is needed

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("RECALL_CONFIG", "")
	t.Setenv("RECALL_EMBEDDER", "hash")
	t.Setenv("RECALL_INDEX", "flat")
	t.Setenv("RECALL_LOG_LEVEL", "error")
	t.Setenv("OPENAI_API_KEY", "")
	return filepath.Join(t.TempDir(), "recall.db")
}

func runCLI(t *testing.T, db string, args ...string) string {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--db", db}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("recall %v: %v\nstderr: %s", args, err, stderr.String())
	}
	return stdout.String()
}

func TestCLI_IngestAndSearch(t *testing.T) {
	db := setupCLI(t)

	runCLI(t, db, "ingest", "--name", "sky", "--text", "The sky is blue on a clear day")
	runCLI(t, db, "ingest", "--name", "fruit", "--text", "Bananas are yellow tropical fruit")

	out := runCLI(t, db, "--format", "json", "search", "what color is the sky")

	var rows []searchRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decoding search output: %v\n%s", err, out)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d results, want 2", len(rows))
	}
	if rows[0].Name != "sky" {
		t.Errorf("top result = %q, want sky", rows[0].Name)
	}
	if rows[0].Score < rows[1].Score {
		t.Errorf("results not sorted: %v", rows)
	}
}

func TestCLI_IngestFiles(t *testing.T) {
	db := setupCLI(t)
	dir := t.TempDir()
	for name, text := range map[string]string{
		"a.md":  "deployment checklist for the api",
		"b.txt": "grocery list with apples",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}

	out := runCLI(t, db, "--format", "json", "ingest", filepath.Join(dir, "a.md"), filepath.Join(dir, "b.txt"))

	var rows []documentRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decoding ingest output: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0].Name != "a.md" || rows[1].Name != "b.txt" {
		t.Errorf("ingested rows = %+v", rows)
	}
}

func TestCLI_ChatReplyHistory(t *testing.T) {
	db := setupCLI(t)

	runCLI(t, db, "ingest", "--name", "sky", "--text", "The sky is blue on a clear day")

	out := runCLI(t, db, "--format", "json", "chat", "conv-1", "what color is the sky")
	var bundle bundleOutput
	if err := json.Unmarshal([]byte(out), &bundle); err != nil {
		t.Fatalf("decoding chat output: %v\n%s", err, out)
	}
	if bundle.Sequence != 1 || bundle.Outcome != "created" {
		t.Errorf("bundle = seq %d outcome %q, want 1 created", bundle.Sequence, bundle.Outcome)
	}
	if len(bundle.RecentTurns) != 1 {
		t.Errorf("recent turns = %d, want 1", len(bundle.RecentTurns))
	}
	if len(bundle.Documents) != 1 || bundle.Documents[0].Name != "sky" {
		t.Errorf("documents = %+v, want sky", bundle.Documents)
	}

	runCLI(t, db, "reply", "conv-1", "It is blue.")

	out = runCLI(t, db, "--format", "json", "history", "conv-1")
	var turns []struct {
		Role     string `json:"role"`
		Sequence int64  `json:"sequence"`
	}
	if err := json.Unmarshal([]byte(out), &turns); err != nil {
		t.Fatalf("decoding history output: %v\n%s", err, out)
	}
	if len(turns) != 2 || turns[0].Role != "user" || turns[1].Role != "assistant" || turns[1].Sequence != 2 {
		t.Errorf("history = %+v", turns)
	}

	out = runCLI(t, db, "--format", "json", "history")
	if !strings.Contains(out, "conv-1") {
		t.Errorf("conversation list = %s, want conv-1", out)
	}
}

func TestCLI_StatsRebuildExport(t *testing.T) {
	db := setupCLI(t)

	runCLI(t, db, "ingest", "--name", "one", "--text", "first document")
	runCLI(t, db, "ingest", "--name", "two", "--text", "second document")
	runCLI(t, db, "rebuild")

	out := runCLI(t, db, "--format", "json", "stats")
	var stats struct {
		Documents      int `json:"documents"`
		IndexedVectors int `json:"indexed_vectors"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decoding stats output: %v\n%s", err, out)
	}
	if stats.Documents != 2 || stats.IndexedVectors != 2 {
		t.Errorf("stats = %+v, want 2 documents and 2 vectors", stats)
	}

	exportPath := filepath.Join(t.TempDir(), "backup.yaml")
	runCLI(t, db, "export", "--output", exportPath)
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "first document") {
		t.Errorf("export missing document text:\n%s", data)
	}
}

func TestCLI_ReembedAfterDimensionChange(t *testing.T) {
	db := setupCLI(t)

	runCLI(t, db, "ingest", "--name", "sky", "--text", "The sky is blue")

	t.Setenv("RECALL_HASH_DIMENSION", "512")

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--db", db, "search", "sky"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("search with a different embedding dimension should fail until reembed")
	}

	out := runCLI(t, db, "--format", "json", "reembed")
	if !strings.Contains(out, `"documents": 1`) {
		t.Errorf("reembed output = %s", out)
	}

	runCLI(t, db, "search", "sky")
}
