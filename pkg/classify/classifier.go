// Package classify defines the semantic classifier consumed by the
// hybrid parsing coordinator, with a rule-based default implementation
// and an LLM-backed one. The implementation is chosen at construction
// time; callers only see the Classifier interface.
package classify

import "context"

// Classification is the classifier's verdict for one log line.
type Classification struct {
	Category    string            `json:"category"`
	SubCategory string            `json:"sub_category"`
	Confidence  float64           `json:"confidence"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Classifier assigns a semantic category to raw log text.
type Classifier interface {
	// Classify categorizes a single log line.
	Classify(ctx context.Context, text string) (Classification, error)
	// GetConfidence reports how confidently the text belongs to the
	// expected category, in [0,1].
	GetConfidence(ctx context.Context, text, expectedCategory string) (float64, error)
}
