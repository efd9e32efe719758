package hybrid

import (
	"time"

	"github.com/auditkit/logmine/pkg/classify"
)

// Method records how a line was resolved.
type Method string

const (
	// MethodStructural means the tree/similarity search result was kept.
	MethodStructural Method = "structural"
	// MethodSemantic means the semantic classifier's verdict was used.
	MethodSemantic Method = "semantic"
	// MethodFailed means the semantic classifier was consulted and failed.
	MethodFailed Method = "failed"
)

// ParsedLog is the per-line classification result. Immutable once
// returned.
type ParsedLog struct {
	Line           string
	Template       string
	Classification *classify.Classification
	Method         Method
	Confidence     float64
}

// Metadata aggregates one batch. Computed once at the end of ParseLogs.
type Metadata struct {
	StructuralCount int
	SemanticCount   int
	FailedCount     int
	AvgConfidence   float64
	Duration        time.Duration
}

// Options tunes batch parsing.
type Options struct {
	// ConfidenceThreshold gates semantic fallback: clusters at or above
	// it keep their structural template.
	ConfidenceThreshold float64
	// EnableSemantic turns the semantic classifier on or off entirely.
	EnableSemantic bool
	// EnableTreeClustering selects Drain-style tree clustering; when
	// false, lines group by exact masked signature with no similarity
	// merging.
	EnableTreeClustering bool
	// MaxSemanticLogs bounds how many lines per batch may be sent to the
	// semantic classifier.
	MaxSemanticLogs int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold:  0.7,
		EnableSemantic:       true,
		EnableTreeClustering: true,
		MaxSemanticLogs:      100,
	}
}

// Result is the outcome of one batch parse.
type Result struct {
	// Templates lists resolved template strings in first-use order.
	Templates []string
	// TemplateLogs groups parsed lines by their resolved template.
	TemplateLogs map[string][]ParsedLog
	// Metadata aggregates counts, confidence, and timing.
	Metadata Metadata
}
