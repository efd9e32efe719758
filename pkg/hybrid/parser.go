// Package hybrid coordinates structural template mining with a semantic
// classifier: per cluster (batch mode) or per line (single-line mode) it
// decides whether the fast structural match is trustworthy or the slower
// classifier must be consulted.
package hybrid

import (
	"context"
	"strings"
	"time"

	"github.com/auditkit/logmine/pkg/classify"
	"github.com/auditkit/logmine/pkg/mask"
	"github.com/auditkit/logmine/pkg/mine"
)

// singleThreshold gates semantic fallback in single-line mode.
const singleThreshold = 0.7

// syntheticPrefix keys templates created from classifier categories.
const syntheticPrefix = "semantic_"

// Parser is the hybrid classification coordinator. It owns one mining
// engine (one session, one cluster tree) and an injected classifier.
// Not safe for concurrent use; callers serialize or shard one Parser per
// consumer.
type Parser struct {
	engine     *mine.Engine
	classifier classify.Classifier
}

// NewParser creates a coordinator around a fresh mining session. The
// classifier is required; use classify.NewRuleClassifier() when no
// trained model is available.
func NewParser(classifier classify.Classifier, opts ...mine.Option) *Parser {
	return &Parser{
		engine:     mine.NewEngine(opts...),
		classifier: classifier,
	}
}

// Clusters exposes the mining engine's clusters, in creation order, for
// persistence after a batch parse. Empty when signature grouping was
// used instead of the tree.
func (p *Parser) Clusters() []*mine.Cluster {
	return p.engine.Clusters()
}

// group is one unit of the batch gate: a structural template, its
// confidence, and its member logs in original batch order.
type group struct {
	template   string
	confidence float64
	logs       []mine.LogEntry
}

// ParseLogs runs the batch through the clustering engine, keeps
// structural templates whose confidence clears the threshold, and
// reclassifies the rest line-by-line through the semantic classifier
// within the per-batch budget. Classifier failures surface as per-line
// Failed results, never silently dropped.
func (p *Parser) ParseLogs(ctx context.Context, logs []mine.LogEntry, opts Options) (*Result, error) {
	start := time.Now()

	groups := p.groupLogs(logs, opts)

	res := &Result{TemplateLogs: make(map[string][]ParsedLog)}
	var meta Metadata
	var confidenceSum float64
	semanticUsed := 0

	record := func(template string, pl ParsedLog) {
		if _, seen := res.TemplateLogs[template]; !seen {
			res.Templates = append(res.Templates, template)
		}
		res.TemplateLogs[template] = append(res.TemplateLogs[template], pl)
	}

	for _, g := range groups {
		keepStructural := g.confidence >= opts.ConfidenceThreshold ||
			!opts.EnableSemantic ||
			semanticUsed >= opts.MaxSemanticLogs

		for _, entry := range g.logs {
			if keepStructural || semanticUsed >= opts.MaxSemanticLogs {
				record(g.template, ParsedLog{
					Line:       entry.Message,
					Template:   g.template,
					Method:     MethodStructural,
					Confidence: g.confidence,
				})
				meta.StructuralCount++
				confidenceSum += g.confidence
				continue
			}

			semanticUsed++
			cls, err := p.classifier.Classify(ctx, entry.Message)
			if err != nil {
				record(g.template, ParsedLog{
					Line:       entry.Message,
					Template:   g.template,
					Method:     MethodFailed,
					Confidence: 0,
				})
				meta.FailedCount++
				continue
			}

			template := syntheticPrefix + cls.Category
			c := cls
			record(template, ParsedLog{
				Line:           entry.Message,
				Template:       template,
				Classification: &c,
				Method:         MethodSemantic,
				Confidence:     cls.Confidence,
			})
			meta.SemanticCount++
			confidenceSum += cls.Confidence
		}
	}

	if resolved := meta.StructuralCount + meta.SemanticCount; resolved > 0 {
		meta.AvgConfidence = confidenceSum / float64(resolved)
	}
	meta.Duration = time.Since(start)
	res.Metadata = meta
	return res, nil
}

// groupLogs buckets the batch either through the clustering engine
// (insertion order of clusters) or, with tree clustering disabled, by
// exact masked signature in first-seen order.
func (p *Parser) groupLogs(logs []mine.LogEntry, opts Options) []group {
	if opts.EnableTreeClustering {
		members := make(map[*mine.Cluster][]mine.LogEntry)
		for _, entry := range logs {
			c := p.engine.Process(entry)
			members[c] = append(members[c], entry)
		}
		var groups []group
		for _, c := range p.engine.Clusters() {
			batchLogs, ok := members[c]
			if !ok {
				continue
			}
			groups = append(groups, group{
				template:   c.Template(),
				confidence: mine.Confidence(c),
				logs:       batchLogs,
			})
		}
		return groups
	}

	// Signature mode: exact masked shapes, no wildcard widening, so every
	// group sits at the zero-wildcard confidence tier.
	members := make(map[string][]mine.LogEntry)
	var order []string
	for _, entry := range logs {
		sig := strings.Join(mask.Tokenize(entry.Message), " ")
		if _, seen := members[sig]; !seen {
			order = append(order, sig)
		}
		members[sig] = append(members[sig], entry)
	}
	groups := make([]group, 0, len(order))
	for _, sig := range order {
		groups = append(groups, group{template: sig, confidence: 0.95, logs: members[sig]})
	}
	return groups
}

// ParseSingle classifies one line in real time: it keeps the structural
// result when the cluster's confidence clears the fixed threshold and
// consults the classifier otherwise. It is a read path for per-line
// decisions and creates no synthetic template state.
func (p *Parser) ParseSingle(ctx context.Context, line string) (ParsedLog, error) {
	cluster := p.engine.Process(mine.LogEntry{Message: line, Timestamp: time.Now()})
	confidence := mine.Confidence(cluster)

	if confidence >= singleThreshold {
		return ParsedLog{
			Line:       line,
			Template:   cluster.Template(),
			Method:     MethodStructural,
			Confidence: confidence,
		}, nil
	}

	cls, err := p.classifier.Classify(ctx, line)
	if err != nil {
		return ParsedLog{
			Line:       line,
			Template:   cluster.Template(),
			Method:     MethodFailed,
			Confidence: 0,
		}, err
	}

	return ParsedLog{
		Line:           line,
		Template:       syntheticPrefix + cls.Category,
		Classification: &cls,
		Method:         MethodSemantic,
		Confidence:     cls.Confidence,
	}, nil
}
