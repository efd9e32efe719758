package classify

import (
	"context"
	"regexp"
	"strings"
)

// Rule is one matching variant of the rule-based classifier. Each kind
// carries its own typed fields; there is no generic parameter bag.
type Rule interface {
	match(text string) (Classification, bool)
}

// KeywordRule matches when any of its keywords appears in the lowercased
// line.
type KeywordRule struct {
	Category    string
	SubCategory string
	Keywords    []string
	Confidence  float64
}

func (r KeywordRule) match(text string) (Classification, bool) {
	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return Classification{
				Category:    r.Category,
				SubCategory: r.SubCategory,
				Confidence:  r.Confidence,
			}, true
		}
	}
	return Classification{}, false
}

// PatternRule matches a compiled regular expression; named capture
// groups become extracted fields.
type PatternRule struct {
	Category    string
	SubCategory string
	Pattern     *regexp.Regexp
	Confidence  float64
}

func (r PatternRule) match(text string) (Classification, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return Classification{}, false
	}
	var fields map[string]string
	for i, name := range r.Pattern.SubexpNames() {
		if name == "" || i >= len(m) || m[i] == "" {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[name] = m[i]
	}
	return Classification{
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Confidence:  r.Confidence,
		Fields:      fields,
	}, true
}

// RuleClassifier is the injectable default classifier: an ordered rule
// table evaluated first-match-wins. It never fails; unmatched lines get
// the unknown category with low confidence.
type RuleClassifier struct {
	rules []Rule
}

// DefaultRules covers the categories the audit pipeline cares about when
// no trained model is available.
func DefaultRules() []Rule {
	return []Rule{
		PatternRule{
			Category:    "authentication",
			SubCategory: "login_failure",
			Pattern:     regexp.MustCompile(`(?i)(?:auth|login|sign[- ]?in).*(?:fail|denied|invalid|rejected)`),
			Confidence:  0.8,
		},
		KeywordRule{
			Category:    "authentication",
			SubCategory: "access",
			Keywords:    []string{"logged in", "logged out", "login", "logout", "unauthorized", "forbidden"},
			Confidence:  0.7,
		},
		KeywordRule{
			Category:   "timeout",
			Keywords:   []string{"timeout", "timed out", "deadline exceeded"},
			Confidence: 0.75,
		},
		PatternRule{
			Category:    "network",
			SubCategory: "connection",
			Pattern:     regexp.MustCompile(`(?i)connection (?:refused|reset|closed|lost)|no route to host|dns`),
			Confidence:  0.75,
		},
		KeywordRule{
			Category:   "database",
			Keywords:   []string{"sql", "query", "transaction", "deadlock", "constraint violation"},
			Confidence: 0.7,
		},
		KeywordRule{
			Category:   "resource",
			Keywords:   []string{"out of memory", "oom", "disk full", "no space left", "too many open files"},
			Confidence: 0.8,
		},
		KeywordRule{
			Category:   "error",
			Keywords:   []string{"error", "exception", "panic", "fatal", "failed"},
			Confidence: 0.6,
		},
	}
}

// NewRuleClassifier builds a classifier over the given rules, falling
// back to DefaultRules when none are provided.
func NewRuleClassifier(rules ...Rule) *RuleClassifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &RuleClassifier{rules: rules}
}

var _ Classifier = (*RuleClassifier)(nil)

// Classify returns the first matching rule's verdict, or the unknown
// category when nothing matches.
func (c *RuleClassifier) Classify(_ context.Context, text string) (Classification, error) {
	for _, rule := range c.rules {
		if result, ok := rule.match(text); ok {
			return result, nil
		}
	}
	return Classification{Category: "unknown", Confidence: 0.3}, nil
}

// GetConfidence reports the classifier's confidence that text belongs to
// expectedCategory: the matched rule's confidence on agreement, zero
// otherwise.
func (c *RuleClassifier) GetConfidence(ctx context.Context, text, expectedCategory string) (float64, error) {
	result, err := c.Classify(ctx, text)
	if err != nil {
		return 0, err
	}
	if result.Category == expectedCategory {
		return result.Confidence, nil
	}
	return 0, nil
}
