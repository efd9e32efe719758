package hybrid

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-errors/errors"

	"github.com/auditkit/logmine/pkg/classify"
	"github.com/auditkit/logmine/pkg/mine"
)

// fakeClassifier counts invocations and returns a canned category, or an
// error when failWith is set.
type fakeClassifier struct {
	category string
	calls    int
	failWith error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (classify.Classification, error) {
	f.calls++
	if f.failWith != nil {
		return classify.Classification{}, f.failWith
	}
	return classify.Classification{Category: f.category, Confidence: 0.9}, nil
}

func (f *fakeClassifier) GetConfidence(_ context.Context, _, _ string) (float64, error) {
	return 0.9, nil
}

func entries(lines ...string) []mine.LogEntry {
	out := make([]mine.LogEntry, len(lines))
	now := time.Now()
	for i, line := range lines {
		out[i] = mine.LogEntry{Message: line, Timestamp: now, Level: mine.LevelInformation}
	}
	return out
}

// wideBatch produces two lines that merge into one cluster with three
// wildcard positions, pushing its confidence to the lowest tier.
func wideBatch() []mine.LogEntry {
	return entries(
		"job runner executing task alpha node1 fast ok",
		"job runner executing task beta node2 slow ok",
	)
}

func TestParseLogs_HighConfidenceStaysStructural(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"}
	p := NewParser(fc)

	logs := entries(
		"User 10.0.0.5 logged in",
		"User 10.0.0.9 logged in",
		"User 10.0.0.5 logged out",
	)
	res, err := p.ParseLogs(context.Background(), logs, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}

	if fc.calls != 0 {
		t.Errorf("classifier called %d times for high-confidence clusters", fc.calls)
	}
	if len(res.Templates) != 2 {
		t.Fatalf("templates = %v, want 2 structural ones", res.Templates)
	}
	if res.Metadata.StructuralCount != 3 || res.Metadata.SemanticCount != 0 {
		t.Errorf("metadata = %+v", res.Metadata)
	}
	if got := len(res.TemplateLogs["User <IP> logged in"]); got != 2 {
		t.Errorf("login template members = %d, want 2", got)
	}
}

func TestParseLogs_LowConfidenceReclassified(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"}
	p := NewParser(fc)

	res, err := p.ParseLogs(context.Background(), wideBatch(), DefaultOptions())
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}

	if fc.calls != 2 {
		t.Fatalf("classifier calls = %d, want every member of the wide cluster", fc.calls)
	}
	// The structural template must not survive in the output; the
	// synthetic category template replaces it.
	for _, tmpl := range res.Templates {
		if strings.Contains(tmpl, "<*>") {
			t.Errorf("structural template %q leaked into output", tmpl)
		}
	}
	if got := len(res.TemplateLogs["semantic_jobs"]); got != 2 {
		t.Errorf("semantic_jobs members = %d, want 2", got)
	}
	if res.Metadata.SemanticCount != 2 || res.Metadata.StructuralCount != 0 {
		t.Errorf("metadata = %+v", res.Metadata)
	}
}

func TestParseLogs_SemanticDisabled(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"}
	p := NewParser(fc)

	opts := DefaultOptions()
	opts.EnableSemantic = false

	res, err := p.ParseLogs(context.Background(), wideBatch(), opts)
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}
	if fc.calls != 0 {
		t.Errorf("classifier called %d times with semantic disabled", fc.calls)
	}
	if res.Metadata.SemanticCount != 0 {
		t.Errorf("semantic count = %d, want 0", res.Metadata.SemanticCount)
	}
	if res.Metadata.StructuralCount != 2 {
		t.Errorf("structural count = %d, want 2 (best-effort structural result)", res.Metadata.StructuralCount)
	}
}

func TestParseLogs_SemanticBudget(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"}
	p := NewParser(fc)

	opts := DefaultOptions()
	opts.MaxSemanticLogs = 1

	res, err := p.ParseLogs(context.Background(), wideBatch(), opts)
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}
	if fc.calls != 1 {
		t.Errorf("classifier calls = %d, want budget of 1", fc.calls)
	}
	if res.Metadata.SemanticCount != 1 || res.Metadata.StructuralCount != 1 {
		t.Errorf("metadata = %+v, want 1 semantic + 1 structural", res.Metadata)
	}
}

func TestParseLogs_ClassifierFailureSurfacesPerLine(t *testing.T) {
	fc := &fakeClassifier{failWith: errors.New("classifier down")}
	p := NewParser(fc)

	res, err := p.ParseLogs(context.Background(), wideBatch(), DefaultOptions())
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}
	if res.Metadata.FailedCount != 2 {
		t.Fatalf("failed count = %d, want 2", res.Metadata.FailedCount)
	}
	total := 0
	for _, pls := range res.TemplateLogs {
		for _, pl := range pls {
			total++
			if pl.Method == MethodFailed && pl.Confidence != 0 {
				t.Errorf("failed line carries confidence %v, want 0", pl.Confidence)
			}
		}
	}
	if total != 2 {
		t.Errorf("lines in result = %d, want 2 (never silently dropped)", total)
	}
}

func TestParseLogs_TotalCoverage(t *testing.T) {
	fc := &fakeClassifier{category: "mixed"}
	p := NewParser(fc)

	logs := append(entries(
		"User 10.0.0.5 logged in",
		"User 10.0.0.9 logged in",
		"cache miss for key profile",
	), wideBatch()...)

	res, err := p.ParseLogs(context.Background(), logs, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}
	total := 0
	for _, pls := range res.TemplateLogs {
		total += len(pls)
	}
	if total != len(logs) {
		t.Errorf("result lines = %d, want %d", total, len(logs))
	}
	if got := res.Metadata.StructuralCount + res.Metadata.SemanticCount + res.Metadata.FailedCount; got != len(logs) {
		t.Errorf("metadata counts sum = %d, want %d", got, len(logs))
	}
}

func TestParseLogs_WeightedAverageConfidence(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"} // semantic confidence 0.9
	p := NewParser(fc)

	// Three structural lines at 0.95 plus two semantic lines at 0.9.
	logs := append(entries(
		"User 10.0.0.5 logged in",
		"User 10.0.0.9 logged in",
		"User 10.0.0.7 logged in",
	), wideBatch()...)

	res, err := p.ParseLogs(context.Background(), logs, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}
	want := (3*0.95 + 2*0.9) / 5
	if diff := res.Metadata.AvgConfidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg confidence = %v, want %v", res.Metadata.AvgConfidence, want)
	}
	if res.Metadata.Duration < 0 {
		t.Errorf("duration = %v", res.Metadata.Duration)
	}
}

func TestParseLogs_SignatureModeSkipsSimilarityMerge(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"}
	p := NewParser(fc)

	opts := DefaultOptions()
	opts.EnableTreeClustering = false

	res, err := p.ParseLogs(context.Background(), wideBatch(), opts)
	if err != nil {
		t.Fatalf("ParseLogs: %v", err)
	}
	// Without tree clustering the two lines keep distinct exact shapes
	// and no wildcards arise, so both stay structural.
	if len(res.Templates) != 2 {
		t.Errorf("templates = %v, want 2 exact signatures", res.Templates)
	}
	if fc.calls != 0 {
		t.Errorf("classifier called %d times in signature mode", fc.calls)
	}
}

func TestParseSingle_StructuralWhenConfident(t *testing.T) {
	p := NewParser(&fakeClassifier{category: "auth"})

	pl, err := p.ParseSingle(context.Background(), "User 10.0.0.5 logged in")
	if err != nil {
		t.Fatalf("ParseSingle: %v", err)
	}
	if pl.Method != MethodStructural {
		t.Errorf("method = %q, want structural", pl.Method)
	}
	if pl.Template != "User <IP> logged in" {
		t.Errorf("template = %q", pl.Template)
	}
}

func TestParseSingle_SemanticWhenTemplateIsWide(t *testing.T) {
	fc := &fakeClassifier{category: "jobs"}
	p := NewParser(fc)

	// Widen the template to three wildcards first.
	for _, e := range wideBatch() {
		_, _ = p.ParseSingle(context.Background(), e.Message)
	}
	fc.calls = 0

	pl, err := p.ParseSingle(context.Background(), "job runner executing task gamma node3 slow ok")
	if err != nil {
		t.Fatalf("ParseSingle: %v", err)
	}
	if pl.Method != MethodSemantic {
		t.Fatalf("method = %q, want semantic", pl.Method)
	}
	if pl.Template != "semantic_jobs" {
		t.Errorf("template = %q", pl.Template)
	}
	if fc.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", fc.calls)
	}
}

func TestParseSingle_ClassifierErrorReturnsFailed(t *testing.T) {
	fc := &fakeClassifier{failWith: errors.New("down")}
	p := NewParser(fc)

	for _, e := range wideBatch() {
		_, _ = p.ParseSingle(context.Background(), e.Message)
	}

	pl, err := p.ParseSingle(context.Background(), "job runner executing task delta node9 slow ok")
	if err == nil {
		t.Fatal("expected classifier error to propagate")
	}
	if pl.Method != MethodFailed || pl.Confidence != 0 {
		t.Errorf("parsed = %+v, want failed with confidence 0", pl)
	}
}
