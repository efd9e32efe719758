package reason

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/auditkit/logmine/pkg/hybrid"
)

func sampleResult() *hybrid.Result {
	return &hybrid.Result{
		Templates: []string{"User <IP> logged in", "connection <*> failed", "semantic_jobs"},
		TemplateLogs: map[string][]hybrid.ParsedLog{
			"User <IP> logged in": {
				{Line: "User 10.0.0.5 logged in", Template: "User <IP> logged in", Method: hybrid.MethodStructural, Confidence: 0.95},
				{Line: "User 10.0.0.9 logged in", Template: "User <IP> logged in", Method: hybrid.MethodStructural, Confidence: 0.95},
				{Line: "User 10.0.0.7 logged in", Template: "User <IP> logged in", Method: hybrid.MethodStructural, Confidence: 0.95},
			},
			"connection <*> failed": {
				{Line: "connection db-primary failed", Template: "connection <*> failed", Method: hybrid.MethodStructural, Confidence: 0.85},
				{Line: "connection cache failed", Template: "connection <*> failed", Method: hybrid.MethodFailed, Confidence: 0},
			},
			"semantic_jobs": {
				{Line: "job runner executing task alpha", Template: "semantic_jobs", Method: hybrid.MethodSemantic, Confidence: 0.9},
			},
		},
		Metadata: hybrid.Metadata{
			StructuralCount: 4,
			SemanticCount:   1,
			FailedCount:     1,
			AvgConfidence:   0.91,
		},
	}
}

func TestBuildWorkspace(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		"User 10.0.0.5 logged in",
		"connection db-primary failed",
	}
	if err := BuildWorkspace(dir, lines, sampleResult()); err != nil {
		t.Fatalf("BuildWorkspace: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "raw.log"))
	if err != nil {
		t.Fatalf("read raw.log: %v", err)
	}
	if string(raw) != strings.Join(lines, "\n") {
		t.Errorf("raw.log content mismatch: %q", raw)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.txt"))
	if err != nil {
		t.Fatalf("read summary.txt: %v", err)
	}
	for _, want := range []string{"User <IP> logged in", "3 occurrences", "structural=4 semantic=1 failed=1"} {
		if !strings.Contains(string(summary), want) {
			t.Errorf("summary.txt missing %q:\n%s", want, summary)
		}
	}

	errTxt, err := os.ReadFile(filepath.Join(dir, "errors.txt"))
	if err != nil {
		t.Fatalf("read errors.txt: %v", err)
	}
	if !strings.Contains(string(errTxt), "connection <*> failed") {
		t.Errorf("errors.txt missing error template:\n%s", errTxt)
	}
	if strings.Contains(string(errTxt), "User <IP> logged in") {
		t.Errorf("errors.txt includes non-error template:\n%s", errTxt)
	}
	if !strings.Contains(string(errTxt), "connection cache failed") {
		t.Errorf("errors.txt missing failed-classification line:\n%s", errTxt)
	}

	if _, err := os.Stat(filepath.Join(dir, "AGENTS.md")); err != nil {
		t.Errorf("AGENTS.md not written: %v", err)
	}
}

func TestBuildWorkspaceNoErrors(t *testing.T) {
	dir := t.TempDir()
	res := &hybrid.Result{
		Templates: []string{"heartbeat ok"},
		TemplateLogs: map[string][]hybrid.ParsedLog{
			"heartbeat ok": {{Line: "heartbeat ok", Template: "heartbeat ok", Method: hybrid.MethodStructural, Confidence: 0.95}},
		},
		Metadata: hybrid.Metadata{StructuralCount: 1, AvgConfidence: 0.95},
	}
	if err := BuildWorkspace(dir, []string{"heartbeat ok"}, res); err != nil {
		t.Fatalf("BuildWorkspace: %v", err)
	}
	errTxt, err := os.ReadFile(filepath.Join(dir, "errors.txt"))
	if err != nil {
		t.Fatalf("read errors.txt: %v", err)
	}
	if !strings.Contains(string(errTxt), "No error or warning patterns detected") {
		t.Errorf("errors.txt: %s", errTxt)
	}
}

func TestDigest(t *testing.T) {
	text := Digest(sampleResult())

	for _, want := range []string{
		"Parsed 6 lines into 3 templates",
		"4 structural, 1 semantic, 1 failed",
		`"User <IP> logged in" (3 lines)`,
		`"connection <*> failed" (2 lines)`,
		"1 lines failed semantic classification",
		"Confidence: 0.5",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q:\n%s", want, text)
		}
	}
}

func TestParseReport(t *testing.T) {
	text := `Analysis of the batch.

1. Login activity looks normal.
2. Connection failures cluster around db-primary.
- Check the database host.

Confidence: 0.85
`
	r := parseReport(text)
	if len(r.Steps) != 3 {
		t.Fatalf("steps = %d, want 3: %v", len(r.Steps), r.Steps)
	}
	if r.Steps[1] != "Connection failures cluster around db-primary." {
		t.Errorf("step[1] = %q", r.Steps[1])
	}
	if r.Confidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", r.Confidence)
	}
	if r.Solution == "" || r.Explanation == "" {
		t.Error("solution/explanation should carry the text")
	}
}

func TestParseReportDefaults(t *testing.T) {
	r := parseReport("plain prose with no structure")
	if len(r.Steps) != 0 {
		t.Errorf("steps = %v, want none", r.Steps)
	}
	if r.Confidence != 0.7 {
		t.Errorf("confidence = %v, want default 0.7", r.Confidence)
	}
}

func TestAnalyzeWithoutAPIKeyUsesDigest(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	a := NewAnalyzer(Config{})
	report, err := a.Analyze(context.Background(), []string{"User 10.0.0.5 logged in"}, sampleResult(), "", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Stage != StageDigest {
		t.Errorf("stage = %q, want %q", report.Stage, StageDigest)
	}
	if !strings.Contains(report.Text, "rule-based") {
		t.Errorf("text = %q", report.Text)
	}
	if report.Confidence.Overall <= 0 {
		t.Errorf("overall confidence = %v, want > 0", report.Confidence.Overall)
	}
	if len(report.Reasoning.Steps) == 0 {
		t.Error("digest should parse into steps")
	}
}
