package mine

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Wildcard marks a template position that has absorbed differing token
// values. A position demoted to Wildcard never reverts to a literal.
const Wildcard = "<*>"

// Cluster tracks one discovered template and its match statistics.
// The token slice length is fixed at creation; only token values may be
// replaced by the wildcard marker.
type Cluster struct {
	ID        uuid.UUID
	Tokens    []string
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
	Severity  Level
}

func newCluster(tokens []string, entry LogEntry) *Cluster {
	own := make([]string, len(tokens))
	copy(own, tokens)
	return &Cluster{
		ID:        uuid.New(),
		Tokens:    own,
		Count:     1,
		FirstSeen: entry.Timestamp,
		LastSeen:  entry.Timestamp,
		Severity:  entry.Level,
	}
}

// Template renders the cluster's token sequence as a single pattern string.
func (c *Cluster) Template() string {
	return strings.Join(c.Tokens, " ")
}

// WildcardCount returns the number of wildcard positions in the template.
func (c *Cluster) WildcardCount() int {
	n := 0
	for _, tok := range c.Tokens {
		if tok == Wildcard {
			n++
		}
	}
	return n
}

// similarity scores how well a token sequence fits this cluster:
// matching-or-wildcard positions divided by template length. Sequences
// of a different length never match. Two empty sequences are identical.
func (c *Cluster) similarity(tokens []string) float64 {
	if len(tokens) != len(c.Tokens) {
		return 0
	}
	if len(tokens) == 0 {
		return 1
	}
	same := 0
	for i, tok := range c.Tokens {
		if tok == Wildcard || tok == tokens[i] {
			same++
		}
	}
	return float64(same) / float64(len(c.Tokens))
}

// absorb folds a matched entry into the cluster: differing positions
// become wildcards, the count grows, the seen window widens, and the
// severity rises if the entry's level outweighs the current one.
func (c *Cluster) absorb(tokens []string, entry LogEntry) {
	for i, tok := range c.Tokens {
		if tok != Wildcard && tok != tokens[i] {
			c.Tokens[i] = Wildcard
		}
	}
	c.Count++
	if entry.Timestamp.Before(c.FirstSeen) {
		c.FirstSeen = entry.Timestamp
	}
	if entry.Timestamp.After(c.LastSeen) {
		c.LastSeen = entry.Timestamp
	}
	if entry.Level.Weight() > c.Severity.Weight() {
		c.Severity = entry.Level
	}
}
