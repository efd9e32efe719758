// Package score grades a reasoning result after the fact, blending
// retrieval quality, reasoning coherence, and completeness into one
// trust score with a human-readable justification.
package score

import "strings"

// ReasoningResult is the downstream artifact being graded: the model's
// answer, its explanation, its reasoning steps, and its self-reported
// confidence.
type ReasoningResult struct {
	Solution    string
	Explanation string
	Steps       []string
	Confidence  float64
}

// Document is one ranked retrieval hit that fed the reasoning stage.
type Document struct {
	Content   string
	Relevance float64
}

// Confidence is the computed multi-factor score. Immutable once
// returned.
type Confidence struct {
	Overall       float64
	Retrieval     float64
	Reasoning     float64
	Justification string
}

// Score combines retrieval confidence (40%), reasoning confidence (40%),
// and completeness (20%) into an overall score in [0,1].
func Score(result ReasoningResult, docs []Document) Confidence {
	retrieval := retrievalConfidence(docs)
	reasoning := reasoningConfidence(result)
	completeness := completenessBonus(result)

	overall := clamp01(0.4*retrieval + 0.4*reasoning + 0.2*completeness)

	return Confidence{
		Overall:       overall,
		Retrieval:     retrieval,
		Reasoning:     reasoning,
		Justification: justification(retrieval, reasoning, completeness),
	}
}

// retrievalConfidence averages the relevance of the top five documents
// and adds 0.05 per document with relevance above 0.7, capped at 0.2.
// No documents means no retrieval confidence.
func retrievalConfidence(docs []Document) float64 {
	if len(docs) == 0 {
		return 0
	}

	top := docs
	if len(top) > 5 {
		top = top[:5]
	}
	var sum float64
	for _, d := range top {
		sum += d.Relevance
	}
	avg := sum / float64(len(top))

	var bonus float64
	for _, d := range docs {
		if d.Relevance > 0.7 {
			bonus += 0.05
		}
	}
	if bonus > 0.2 {
		bonus = 0.2
	}

	return clamp01(avg + bonus)
}

// reasoningConfidence adjusts the model's self-reported confidence by
// structural signals of the answer.
func reasoningConfidence(r ReasoningResult) float64 {
	c := r.Confidence

	if len(r.Steps) >= 3 {
		c += 0.1
	}
	if len(r.Steps) == 0 {
		c -= 0.2
	}
	if len(r.Explanation) > 100 {
		c += 0.05
	}
	if strings.TrimSpace(r.Solution) == "" {
		c -= 0.3
	}
	if len(r.Solution) > 50 {
		c += 0.05
	}

	return clamp01(c)
}

// completenessBonus rewards the presence of each answer component,
// capped at 1.
func completenessBonus(r ReasoningResult) float64 {
	var b float64
	if strings.TrimSpace(r.Solution) != "" {
		b += 0.3
	}
	if strings.TrimSpace(r.Explanation) != "" {
		b += 0.3
	}
	if len(r.Steps) > 0 {
		b += 0.2
	}
	if len(r.Steps) >= 3 {
		b += 0.2
	}
	if b > 1 {
		b = 1
	}
	return b
}

func tier(v float64, high, moderate, limited string) string {
	switch {
	case v >= 0.7:
		return high
	case v >= 0.5:
		return moderate
	default:
		return limited
	}
}

// justification assembles one sentence from three tiered phrases
// describing evidence quality, reasoning coherence, and completeness.
func justification(retrieval, reasoning, completeness float64) string {
	parts := []string{
		tier(retrieval,
			"strong supporting evidence from retrieved context",
			"moderate supporting evidence from retrieved context",
			"limited supporting evidence from retrieved context"),
		tier(reasoning,
			"highly coherent reasoning",
			"moderately coherent reasoning",
			"limited reasoning coherence"),
		tier(completeness,
			"a complete solution",
			"a partially complete solution",
			"an incomplete solution"),
	}
	return "Based on " + strings.Join(parts, ", ") + "."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
