// Package reason runs post-mining analysis over a parsed batch: an
// agentic investigation when an LLM is available, degrading through a
// single-shot summary call down to a rule-based digest that always
// succeeds.
package reason

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-errors/errors"

	"github.com/auditkit/logmine/pkg/config"
	"github.com/auditkit/logmine/pkg/hybrid"
	"github.com/auditkit/logmine/pkg/resilience"
	"github.com/auditkit/logmine/pkg/score"
)

const (
	defaultTimeout       = 2 * time.Minute
	defaultMaxIterations = 15
)

// Stage labels which fallback stage produced a report.
const (
	StageAgentic    = "agentic"
	StageSingleShot = "single-shot"
	StageDigest     = "digest"
)

// Config holds configuration for the analyzer.
type Config struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxIterations int
}

// Report is the outcome of one analysis run.
type Report struct {
	// Text is the full analysis output.
	Text string
	// Stage names the fallback stage that produced the text.
	Stage string
	// Reasoning is the structured form of the output.
	Reasoning score.ReasoningResult
	// Confidence grades the output against the retrieval context.
	Confidence score.Confidence
}

// Analyzer drives the analysis fallback chain. LLM stages share one
// circuit breaker so a failing provider is skipped quickly.
type Analyzer struct {
	cfg     Config
	breaker *resilience.Breaker
}

// NewAnalyzer creates an Analyzer with defaults filled in from the
// environment.
func NewAnalyzer(cfg Config) *Analyzer {
	cfg.APIKey = config.ResolveAPIKey(cfg.APIKey)
	cfg.Model = config.ResolveModel(cfg.Model)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	return &Analyzer{
		cfg:     cfg,
		breaker: resilience.NewBreaker("llm-analysis", resilience.DefaultSettings()),
	}
}

type stageOutput struct {
	text  string
	stage string
}

// Analyze builds a temp workspace from the parsed batch and runs the
// fallback chain: agentic investigation, then a single-shot summary
// call, then the rule-based digest. docs are optional retrieval hits
// used for confidence grading; pass nil when no index is available.
func (a *Analyzer) Analyze(ctx context.Context, lines []string, res *hybrid.Result, question string, docs []score.Document) (*Report, error) {
	tmpDir, err := os.MkdirTemp("", "logmine-analyze-*")
	if err != nil {
		return nil, errors.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	absDir, err := filepath.Abs(tmpDir)
	if err != nil {
		return nil, errors.Errorf("resolve temp dir: %w", err)
	}
	if err := BuildWorkspace(absDir, lines, res); err != nil {
		return nil, errors.Errorf("build workspace: %w", err)
	}

	var agentic, singleShot resilience.Strategy[stageOutput]
	if a.cfg.APIKey != "" {
		agentic = func(ctx context.Context) (stageOutput, error) {
			text, err := resilience.Do(ctx, a.breaker, func(ctx context.Context) (string, error) {
				return resilience.WithTimeout(ctx, a.cfg.Timeout, func(ctx context.Context) (string, error) {
					return a.runAgent(ctx, absDir, question)
				})
			})
			return stageOutput{text: text, stage: StageAgentic}, err
		}
		singleShot = func(ctx context.Context) (stageOutput, error) {
			text, err := resilience.Do(ctx, a.breaker, func(ctx context.Context) (string, error) {
				return resilience.WithTimeout(ctx, a.cfg.Timeout, func(ctx context.Context) (string, error) {
					return a.runSingleShot(ctx, absDir, question)
				})
			})
			return stageOutput{text: text, stage: StageSingleShot}, err
		}
	} else {
		slog.Debug("no API key, analysis limited to rule-based digest")
	}

	digest := func(ctx context.Context) (stageOutput, error) {
		return stageOutput{text: Digest(res), stage: StageDigest}, nil
	}

	out, err := resilience.ExecuteWithFallback(ctx, agentic, singleShot, digest)
	if err != nil {
		return nil, err
	}

	reasoning := parseReport(out.text)
	return &Report{
		Text:       out.text,
		Stage:      out.stage,
		Reasoning:  reasoning,
		Confidence: score.Score(reasoning, docs),
	}, nil
}

// Digest produces a rule-based analysis from batch statistics alone. It
// is the last fallback stage and never fails.
func Digest(res *hybrid.Result) string {
	var buf strings.Builder
	buf.WriteString("Log analysis digest (rule-based).\n\n")

	md := res.Metadata
	total := md.StructuralCount + md.SemanticCount + md.FailedCount
	fmt.Fprintf(&buf, "1. Parsed %d lines into %d templates (%d structural, %d semantic, %d failed), average confidence %.2f.\n",
		total, len(res.Templates), md.StructuralCount, md.SemanticCount, md.FailedCount, md.AvgConfidence)

	step := 2
	if top := topTemplates(res, 3); len(top) > 0 {
		fmt.Fprintf(&buf, "%d. Most frequent templates: %s.\n", step, strings.Join(top, "; "))
		step++
	}

	var errTemplates []string
	for _, tmpl := range res.Templates {
		if errorPattern.MatchString(tmpl) {
			errTemplates = append(errTemplates, fmt.Sprintf("%q (%d lines)", tmpl, len(res.TemplateLogs[tmpl])))
		}
	}
	if len(errTemplates) > 0 {
		fmt.Fprintf(&buf, "%d. Error-looking templates: %s.\n", step, strings.Join(errTemplates, "; "))
		step++
	} else {
		fmt.Fprintf(&buf, "%d. No error or warning templates detected.\n", step)
		step++
	}

	if md.FailedCount > 0 {
		fmt.Fprintf(&buf, "%d. %d lines failed semantic classification and kept their structural template; inspect them manually.\n",
			step, md.FailedCount)
	}

	buf.WriteString("\nConfidence: 0.5\n")
	return buf.String()
}

func topTemplates(res *hybrid.Result, n int) []string {
	type entry struct {
		tmpl  string
		count int
	}
	var all []entry
	for _, tmpl := range res.Templates {
		all = append(all, entry{tmpl, len(res.TemplateLogs[tmpl])})
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].count > all[i].count {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, 0, len(all))
	for _, e := range all {
		out = append(out, fmt.Sprintf("%q (%d lines)", e.tmpl, e.count))
	}
	return out
}

var (
	stepLine       = regexp.MustCompile(`^\s*(\d+[.)]|[-*])\s+(.*)`)
	confidenceLine = regexp.MustCompile(`(?i)^confidence:\s*([0-9.]+)\s*$`)
)

// parseReport extracts structure from free-form analysis text: numbered
// or bulleted lines become steps, a trailing "Confidence: X" line
// becomes the self-reported confidence (default 0.7 when absent).
func parseReport(text string) score.ReasoningResult {
	result := score.ReasoningResult{
		Solution:    strings.TrimSpace(text),
		Explanation: strings.TrimSpace(text),
		Confidence:  0.7,
	}

	for _, line := range strings.Split(text, "\n") {
		if m := stepLine.FindStringSubmatch(line); m != nil {
			result.Steps = append(result.Steps, strings.TrimSpace(m[2]))
			continue
		}
		if m := confidenceLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
				result.Confidence = v
			}
		}
	}
	return result
}
