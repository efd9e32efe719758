// Package retrieval ranks context documents for the reasoning stage by
// embedding similarity. The embedding backend is an opaque network
// service; every call to it goes through a circuit breaker.
package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/go-errors/errors"

	"github.com/auditkit/logmine/pkg/resilience"
	"github.com/auditkit/logmine/pkg/score"
)

// Embedder converts text into a vector. Implementations are external
// services and may block; they must honor the context.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// in [-1,1]. Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type indexed struct {
	content string
	vector  []float32
}

// Index is an in-memory embedded-document store. Not safe for concurrent
// mutation; build it once, then search.
type Index struct {
	embedder Embedder
	breaker  *resilience.Breaker
	docs     []indexed
}

// NewIndex creates an Index whose embedding calls are guarded by the
// given breaker. A nil breaker gets default settings.
func NewIndex(embedder Embedder, breaker *resilience.Breaker) *Index {
	if breaker == nil {
		breaker = resilience.NewBreaker("embedder", resilience.DefaultSettings())
	}
	return &Index{embedder: embedder, breaker: breaker}
}

// Add embeds and stores one document.
func (ix *Index) Add(ctx context.Context, content string) error {
	vec, err := resilience.Do(ctx, ix.breaker, func(ctx context.Context) ([]float32, error) {
		return ix.embedder.Embed(ctx, content)
	})
	if err != nil {
		return errors.Errorf("embed document: %w", err)
	}
	ix.docs = append(ix.docs, indexed{content: content, vector: vec})
	return nil
}

// Len reports how many documents the index holds.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Search embeds the query and returns the k most similar documents as
// ranked retrieval hits, highest relevance first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]score.Document, error) {
	if len(ix.docs) == 0 || k <= 0 {
		return nil, nil
	}

	qvec, err := resilience.Do(ctx, ix.breaker, func(ctx context.Context) ([]float32, error) {
		return ix.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, errors.Errorf("embed query: %w", err)
	}

	ranked := make([]score.Document, 0, len(ix.docs))
	for _, d := range ix.docs {
		ranked = append(ranked, score.Document{
			Content:   d.content,
			Relevance: CosineSimilarity(qvec, d.vector),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}
