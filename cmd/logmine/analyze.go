package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/hybrid"
	"github.com/auditkit/logmine/pkg/ingestor"
	"github.com/auditkit/logmine/pkg/reason"
)

var analyzeModel string

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <logfile> [question]",
		Short: "Analyze a log file to find root causes",
		Long: `Read a log file, parse it through the hybrid pipeline, then analyze the
result. With OPENROUTER_API_KEY set an AI agent explores the processed
logs; without it a rule-based digest is produced.

Examples:
  logmine analyze app.log
  logmine analyze app.log "why is my service returning 502?"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runAnalyze,
	}
	cmd.Flags().StringVar(&analyzeModel, "model", "", "override LLM model (env MODEL_NAME)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var question string
	if len(args) > 1 {
		question = args[1]
	}

	lines, err := ingestor.ReadLines(ctx, args[0])
	if err != nil {
		return errors.Errorf("read log file: %w", err)
	}
	slog.Info("read logs", "lines", len(lines))

	parser := hybrid.NewParser(buildClassifier(analyzeModel))
	res, err := parser.ParseLogs(ctx, ingestor.ToEntries(lines), hybrid.DefaultOptions())
	if err != nil {
		return err
	}

	analyzer := reason.NewAnalyzer(reason.Config{Model: analyzeModel})
	report, err := analyzer.Analyze(ctx, lines, res, question, nil)
	if err != nil {
		return err
	}

	fmt.Println(report.Text)
	fmt.Fprintf(os.Stderr, "\nstage=%s confidence=%.2f (%s)\n",
		report.Stage, report.Confidence.Overall, report.Confidence.Justification)
	return nil
}
