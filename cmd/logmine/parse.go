package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/classify"
	"github.com/auditkit/logmine/pkg/config"
	"github.com/auditkit/logmine/pkg/hybrid"
	"github.com/auditkit/logmine/pkg/ingestor"
	"github.com/auditkit/logmine/pkg/mine"
	"github.com/auditkit/logmine/pkg/store"
)

var (
	parseThreshold   float64
	parseMaxSemantic int
	parseNoSemantic  bool
	parseSignature   bool
	parseModel       string
	parseSession     string
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <logfile>",
		Short: "Parse a log file through the hybrid pipeline into the store",
		Long: `Read a log file, cluster lines into templates, escalate low-confidence
clusters to the semantic classifier, and store results in DuckDB.

Pass "-" to read from stdin. Without OPENROUTER_API_KEY the semantic
stage uses the built-in rule classifier.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	cmd.Flags().Float64Var(&parseThreshold, "threshold", 0, "confidence threshold for semantic escalation (default 0.7, env CONFIDENCE_THRESHOLD)")
	cmd.Flags().IntVar(&parseMaxSemantic, "max-semantic", 0, "per-batch semantic budget (default 100, env MAX_SEMANTIC_LOGS)")
	cmd.Flags().BoolVar(&parseNoSemantic, "no-semantic", false, "disable the semantic stage entirely")
	cmd.Flags().BoolVar(&parseSignature, "signature", false, "group by exact masked signature instead of tree clustering")
	cmd.Flags().StringVar(&parseModel, "model", "", "override LLM model (env MODEL_NAME)")
	cmd.Flags().StringVar(&parseSession, "session", "", "session ID for stored rows (default: random)")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	lines, err := ingestor.ReadLines(ctx, args[0])
	if err != nil {
		return errors.Errorf("read log file: %w", err)
	}
	entries := ingestor.ToEntries(lines)
	slog.Info("read logs", "lines", len(lines))

	opts := hybrid.DefaultOptions()
	opts.ConfidenceThreshold = config.ResolveFloat(parseThreshold, "CONFIDENCE_THRESHOLD", opts.ConfidenceThreshold)
	opts.MaxSemanticLogs = config.ResolveInt(parseMaxSemantic, "MAX_SEMANTIC_LOGS", opts.MaxSemanticLogs)
	opts.EnableSemantic = !parseNoSemantic
	opts.EnableTreeClustering = !parseSignature

	parser := hybrid.NewParser(buildClassifier(parseModel))
	res, err := parser.ParseLogs(ctx, entries, opts)
	if err != nil {
		return err
	}

	session := parseSession
	if session == "" {
		session = uuid.NewString()
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := persistResult(ctx, s, parser, res, entries, session); err != nil {
		return err
	}

	md := res.Metadata
	fmt.Fprintf(os.Stderr, "Parsed %d lines into %d templates (%d structural, %d semantic, %d failed)\n",
		md.StructuralCount+md.SemanticCount+md.FailedCount, len(res.Templates),
		md.StructuralCount, md.SemanticCount, md.FailedCount)
	fmt.Fprintf(os.Stderr, "Average confidence %.2f, took %s\n", md.AvgConfidence, md.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Session: %s\nDatabase: %s\n", session, dbPath)
	return nil
}

// persistResult stores one template row per resolved template and one
// parsed_logs row per line. Tree clusters contribute their mining
// metadata; synthetic and signature templates get fresh IDs.
func persistResult(ctx context.Context, s store.Store, parser *hybrid.Parser, res *hybrid.Result, entries []mine.LogEntry, session string) error {
	byTemplate := make(map[string]*mine.Cluster)
	for _, c := range parser.Clusters() {
		byTemplate[c.Template()] = c
	}

	var templates []store.Template
	for _, tmpl := range res.Templates {
		logs := res.TemplateLogs[tmpl]
		row := store.Template{
			TemplateID: uuid.NewString(),
			Template:   tmpl,
			Count:      len(logs),
			Wildcards:  strings.Count(tmpl, mine.Wildcard),
			Method:     string(hybrid.MethodStructural),
		}
		if strings.HasPrefix(tmpl, "semantic_") {
			row.Method = string(hybrid.MethodSemantic)
		} else if c, ok := byTemplate[tmpl]; ok {
			row.TemplateID = c.ID.String()
			row.Count = c.Count
			row.Wildcards = c.WildcardCount()
			row.Severity = string(c.Severity)
			row.FirstSeen = c.FirstSeen
			row.LastSeen = c.LastSeen
		}
		templates = append(templates, row)
	}
	if err := s.InsertTemplates(ctx, templates); err != nil {
		return errors.Errorf("insert templates: %w", err)
	}

	timestamps := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		if _, seen := timestamps[e.Message]; !seen {
			timestamps[e.Message] = e.Timestamp
		}
	}

	now := time.Now()
	var batch []store.ParsedLog
	for _, tmpl := range res.Templates {
		for _, l := range res.TemplateLogs[tmpl] {
			ts := timestamps[l.Line]
			if ts.IsZero() {
				ts = now
			}
			row := store.ParsedLog{
				SessionID:  session,
				Line:       l.Line,
				Template:   l.Template,
				Method:     string(l.Method),
				Confidence: l.Confidence,
				Timestamp:  ts,
			}
			if l.Classification != nil {
				row.Category = l.Classification.Category
			}
			batch = append(batch, row)

			if len(batch) >= 500 {
				if err := s.InsertParsedBatch(ctx, batch); err != nil {
					return errors.Errorf("insert batch: %w", err)
				}
				batch = batch[:0]
			}
		}
	}
	if len(batch) > 0 {
		if err := s.InsertParsedBatch(ctx, batch); err != nil {
			return errors.Errorf("insert batch: %w", err)
		}
	}
	return nil
}

// buildClassifier returns the LLM classifier when an API key is
// configured and the rule classifier otherwise.
func buildClassifier(model string) classify.Classifier {
	apiKey := config.ResolveAPIKey("")
	if apiKey == "" {
		slog.Debug("no API key, using rule classifier")
		return classify.NewRuleClassifier(classify.DefaultRules()...)
	}
	return classify.NewLLMClassifier(classify.Config{APIKey: apiKey, Model: model})
}

func openStore(ctx context.Context) (*store.DuckDBStore, error) {
	s, err := store.NewDuckDBStore(dbPath)
	if err != nil {
		return nil, errors.Errorf("store: %w", err)
	}
	if err := s.Init(ctx); err != nil {
		_ = s.Close()
		return nil, errors.Errorf("store init: %w", err)
	}
	return s, nil
}
