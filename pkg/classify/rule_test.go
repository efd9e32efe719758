package classify

import (
	"context"
	"testing"
)

func TestRuleClassifier_Categories(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	cases := []struct {
		line string
		want string
	}{
		{"Authentication failed for user admin from 10.0.0.5", "authentication"},
		{"User alice logged in", "authentication"},
		{"request to upstream timed out after 30s", "timeout"},
		{"connection refused: backend unreachable", "network"},
		{"deadlock detected while committing transaction", "database"},
		{"killed: out of memory", "resource"},
		{"unexpected exception in handler", "error"},
		{"routine heartbeat tick", "unknown"},
	}
	for _, tc := range cases {
		got, err := c.Classify(ctx, tc.line)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tc.line, err)
		}
		if got.Category != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.line, got.Category, tc.want)
		}
		if got.Confidence <= 0 || got.Confidence > 1 {
			t.Errorf("Classify(%q) confidence = %v, want (0,1]", tc.line, got.Confidence)
		}
	}
}

func TestRuleClassifier_NeverFails(t *testing.T) {
	c := NewRuleClassifier()
	for _, line := range []string{"", "   ", "∆∆∆ binary ∆∆∆"} {
		got, err := c.Classify(context.Background(), line)
		if err != nil {
			t.Fatalf("Classify(%q): %v", line, err)
		}
		if got.Category == "" {
			t.Errorf("Classify(%q) returned empty category", line)
		}
	}
}

func TestRuleClassifier_GetConfidence(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	match, err := c.GetConfidence(ctx, "login denied for bob", "authentication")
	if err != nil {
		t.Fatalf("GetConfidence: %v", err)
	}
	if match <= 0 {
		t.Errorf("expected positive confidence for agreeing category, got %v", match)
	}

	mismatch, err := c.GetConfidence(ctx, "login denied for bob", "database")
	if err != nil {
		t.Fatalf("GetConfidence: %v", err)
	}
	if mismatch != 0 {
		t.Errorf("expected zero confidence for disagreeing category, got %v", mismatch)
	}
}

func TestParseClassification_StripsCodeFences(t *testing.T) {
	content := "```json\n{\"category\": \"network\", \"confidence\": 0.9}\n```"
	got, err := parseClassification(content)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if got.Category != "network" || got.Confidence != 0.9 {
		t.Errorf("parsed = %+v", got)
	}
}

func TestParseClassification_ClampsConfidence(t *testing.T) {
	got, err := parseClassification(`{"category": "error", "confidence": 1.7}`)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if got.Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", got.Confidence)
	}
}

func TestParseClassification_BadJSON(t *testing.T) {
	if _, err := parseClassification("not json at all"); err == nil {
		t.Error("expected error for malformed response")
	}
}

func TestParseConfidence_JSONObject(t *testing.T) {
	got, err := parseConfidence(`{"confidence": 0.85}`)
	if err != nil {
		t.Fatalf("parseConfidence: %v", err)
	}
	if got != 0.85 {
		t.Errorf("confidence = %v, want 0.85", got)
	}
}

func TestParseConfidence_BareNumber(t *testing.T) {
	got, err := parseConfidence(" 0.6 ")
	if err != nil {
		t.Fatalf("parseConfidence: %v", err)
	}
	if got != 0.6 {
		t.Errorf("confidence = %v, want 0.6", got)
	}
}

func TestParseConfidence_Clamps(t *testing.T) {
	got, err := parseConfidence(`{"confidence": -0.2}`)
	if err != nil {
		t.Fatalf("parseConfidence: %v", err)
	}
	if got != 0 {
		t.Errorf("confidence = %v, want clamped to 0", got)
	}
}

func TestParseConfidence_BadResponse(t *testing.T) {
	if _, err := parseConfidence("very confident"); err == nil {
		t.Error("expected error for malformed response")
	}
}
