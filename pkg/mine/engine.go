// Package mine discovers log templates online with a depth-bounded
// prefix tree: lines are masked, tokenized, routed to the most similar
// existing cluster, and mismatched positions are generalized to
// wildcards.
package mine

import (
	"time"

	"github.com/auditkit/logmine/pkg/mask"
)

const (
	defaultDepth        = 4
	defaultSimThreshold = 0.5
	defaultMaxChildren  = 100
)

// node is one level of the cluster tree. The root level is keyed by
// token count (see Engine.roots); deeper levels are keyed by literal
// token value, with Wildcard as the overflow branch once maxChildren
// literal branches exist.
type node struct {
	children map[string]*node
	clusters []*Cluster
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Engine owns one cluster tree. It is not safe for concurrent use:
// callers serialize access or shard one Engine per mining session.
type Engine struct {
	depth        int
	simThreshold float64
	maxChildren  int

	roots    map[int]*node
	clusters []*Cluster
}

// Option configures an Engine.
type Option func(*Engine)

// WithDepth bounds how many token levels the tree descends before
// falling back to leaf-level similarity search.
func WithDepth(depth int) Option {
	return func(e *Engine) { e.depth = depth }
}

// WithSimilarityThreshold sets the minimum similarity for a line to
// join an existing cluster.
func WithSimilarityThreshold(th float64) Option {
	return func(e *Engine) { e.simThreshold = th }
}

// WithMaxChildren bounds each node's literal branching factor; further
// token values collapse into the wildcard branch.
func WithMaxChildren(n int) Option {
	return func(e *Engine) { e.maxChildren = n }
}

// NewEngine creates an Engine with default Drain-style parameters.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		depth:        defaultDepth,
		simThreshold: defaultSimThreshold,
		maxChildren:  defaultMaxChildren,
		roots:        make(map[int]*node),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process routes one entry to its cluster, creating a fresh cluster when
// no existing template is similar enough. It never fails: every line
// lands in some cluster, worst case a new singleton.
func (e *Engine) Process(entry LogEntry) *Cluster {
	tokens := mask.Tokenize(entry.Message)

	leaf := e.search(tokens)
	if leaf != nil {
		if best := bestMatch(leaf.clusters, tokens, e.simThreshold); best != nil {
			best.absorb(tokens, entry)
			return best
		}
	}

	c := newCluster(tokens, entry)
	e.insert(tokens, c)
	e.clusters = append(e.clusters, c)
	return c
}

// search descends the tree along the token path, preferring the literal
// branch and falling back to the wildcard branch, stopping at the depth
// bound or where no branch exists.
func (e *Engine) search(tokens []string) *node {
	cur := e.roots[len(tokens)]
	if cur == nil {
		return nil
	}
	for i := 0; i < len(tokens) && i < e.depth; i++ {
		next := cur.children[tokens[i]]
		if next == nil {
			next = cur.children[Wildcard]
		}
		if next == nil {
			return cur
		}
		cur = next
	}
	return cur
}

func bestMatch(clusters []*Cluster, tokens []string, threshold float64) *Cluster {
	var best *Cluster
	bestSim := 0.0
	for _, c := range clusters {
		if sim := c.similarity(tokens); sim > bestSim {
			best, bestSim = c, sim
		}
	}
	if bestSim >= threshold {
		return best
	}
	return nil
}

// insert walks the same path used by search, creating literal branches
// up to the depth bound and collapsing into the wildcard branch once a
// node's branching factor is exhausted.
func (e *Engine) insert(tokens []string, c *Cluster) {
	cur := e.roots[len(tokens)]
	if cur == nil {
		cur = newNode()
		e.roots[len(tokens)] = cur
	}
	for i := 0; i < len(tokens) && i < e.depth; i++ {
		key := tokens[i]
		next := cur.children[key]
		if next == nil {
			if len(cur.children) >= e.maxChildren {
				key = Wildcard
				next = cur.children[key]
			}
			if next == nil {
				next = newNode()
				cur.children[key] = next
			}
		}
		cur = next
	}
	cur.clusters = append(cur.clusters, c)
}

// Clusters returns every cluster discovered so far, in insertion order.
func (e *Engine) Clusters() []*Cluster {
	return e.clusters
}

// Feed processes a batch of raw lines, timestamping them as they arrive.
// It exists for callers that only have text, such as the CLI's template
// discovery path.
func (e *Engine) Feed(lines []string) error {
	now := time.Now()
	for _, line := range lines {
		e.Process(LogEntry{Message: line, Timestamp: now})
	}
	return nil
}

// Templates summarizes discovered clusters in insertion order.
func (e *Engine) Templates() ([]TemplateSummary, error) {
	out := make([]TemplateSummary, 0, len(e.clusters))
	for _, c := range e.clusters {
		out = append(out, TemplateSummary{ID: c.ID, Template: c.Template(), Count: c.Count})
	}
	return out, nil
}
