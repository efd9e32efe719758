package retrieval

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-errors/errors"

	"github.com/auditkit/logmine/pkg/resilience"
)

// hashEmbedder is a deterministic stand-in for a real embedding service:
// identical texts get identical vectors.
type hashEmbedder struct {
	calls    int
	failWith error
}

func (h *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h.calls++
	if h.failWith != nil {
		return nil, h.failWith
	}
	vec := make([]float32, 8)
	for i, r := range text {
		vec[i%8] += float32(r)
	}
	return vec, nil
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := CosineSimilarity(a, a); math.Abs(got-1) > 1e-6 {
		t.Errorf("identical vectors = %v, want 1", got)
	}
	if got := CosineSimilarity(a, []float32{0, 1, 0}); math.Abs(got) > 1e-6 {
		t.Errorf("orthogonal vectors = %v, want 0", got)
	}
	if got := CosineSimilarity(a, []float32{0, 1}); got != 0 {
		t.Errorf("mismatched lengths = %v, want 0", got)
	}
	if got := CosineSimilarity(a, []float32{0, 0, 0}); got != 0 {
		t.Errorf("zero vector = %v, want 0", got)
	}
}

func TestIndex_SearchRanksExactMatchFirst(t *testing.T) {
	ix := NewIndex(&hashEmbedder{}, nil)
	ctx := context.Background()

	docs := []string{
		"connection pool exhausted under load",
		"user login audit trail entry",
		"disk usage threshold warning",
	}
	for _, d := range docs {
		if err := ix.Add(ctx, d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	hits, err := ix.Search(ctx, "connection pool exhausted under load", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	if hits[0].Content != docs[0] {
		t.Errorf("top hit = %q, want exact match first", hits[0].Content)
	}
	if math.Abs(hits[0].Relevance-1) > 1e-6 {
		t.Errorf("top relevance = %v, want 1", hits[0].Relevance)
	}
	if hits[1].Relevance > hits[0].Relevance {
		t.Error("hits not sorted by relevance")
	}
}

func TestIndex_SearchEmptyIndex(t *testing.T) {
	ix := NewIndex(&hashEmbedder{}, nil)
	hits, err := ix.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %v, want nil for empty index", hits)
	}
}

func TestIndex_EmbedderFailuresTripBreaker(t *testing.T) {
	emb := &hashEmbedder{failWith: errors.New("embedding service down")}
	breaker := resilience.NewBreaker("embedder", resilience.Settings{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenDuration:     time.Minute,
	})
	ix := NewIndex(emb, breaker)
	ctx := context.Background()

	_ = ix.Add(ctx, "doc one")
	_ = ix.Add(ctx, "doc two")

	err := ix.Add(ctx, "doc three")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected circuit-open rejection, got %v", err)
	}
	if emb.calls != 2 {
		t.Errorf("embedder invoked %d times; the open circuit must fast-fail", emb.calls)
	}
}
