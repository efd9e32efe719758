package integration_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/auditkit/logmine/pkg/mine"
	"github.com/auditkit/logmine/pkg/store"
)

// loghubPath returns the LOGHUB_PATH env var or skips the test.
func loghubPath(t *testing.T) string {
	t.Helper()
	p := os.Getenv("LOGHUB_PATH")
	if p == "" {
		t.Skip("LOGHUB_PATH not set, skipping integration test")
	}
	return p
}

// newMiner creates a fresh miner for the named engine. Each call returns
// independent state (miners are stateful).
func newMiner(t *testing.T, engine string) mine.Miner {
	t.Helper()
	switch engine {
	case "tree":
		return mine.NewEngine()
	case "drain":
		m, err := mine.NewDrainMiner()
		if err != nil {
			t.Fatalf("create drain miner: %v", err)
		}
		return m
	default:
		t.Fatalf("unknown engine %q", engine)
		return nil
	}
}

// newStore creates a fresh in-memory DuckDB store with cleanup registered.
func newStore(t *testing.T) *store.DuckDBStore {
	t.Helper()
	s, err := store.NewDuckDBStore("")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

// outputDir returns the directory for saving template results.
// Set TEMPLATE_OUTPUT_DIR to customize; defaults to a mktemp dir.
// The directory path is logged so you can find the output.
func outputDir(t *testing.T) string {
	t.Helper()
	dir := os.Getenv("TEMPLATE_OUTPUT_DIR")
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "logmine-integration-templates-*")
		if err != nil {
			t.Fatalf("create temp dir: %v", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create output dir: %v", err)
		}
	}
	t.Logf("Template output dir: %s", dir)
	return dir
}

// templateResult is the JSON structure saved per dataset.
type templateResult struct {
	Dataset       string            `json:"dataset"`
	Engine        string            `json:"engine"`
	TotalEntries  int               `json:"total_entries"`
	GroundTruth   int               `json:"ground_truth_templates"`
	TemplateCount int               `json:"template_count"`
	Templates     []templateSummary `json:"templates"`
}

type templateSummary struct {
	TemplateID string `json:"template_id"`
	Template   string `json:"template"`
	Count      int    `json:"count"`
}

// saveTemplates writes template summaries to a JSON file in the output directory.
func saveTemplates(t *testing.T, dir string, result templateResult) {
	t.Helper()
	filename := result.Dataset + "_" + result.Engine + ".json"
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("marshal templates: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	t.Logf("Saved %d templates to %s", result.TemplateCount, path)
}
