package main

import (
	"encoding/json"
	"fmt"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/hybrid"
)

var singleModel string

func singleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "single <line>",
		Short: "Classify a single log line",
		Long: `Run one line through the hybrid pipeline and print the result as JSON.
The line mines into a fresh cluster, so the structural template wins at
high confidence; the semantic classifier is consulted only when mining
produces a low-confidence match.`,
		Args: cobra.ExactArgs(1),
		RunE: runSingle,
	}
	cmd.Flags().StringVar(&singleModel, "model", "", "override LLM model (env MODEL_NAME)")
	return cmd
}

func runSingle(cmd *cobra.Command, args []string) error {
	parser := hybrid.NewParser(buildClassifier(singleModel))

	parsed, err := parser.ParseSingle(cmd.Context(), args[0])
	if err != nil {
		return errors.Errorf("classify line: %w", err)
	}

	out, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return errors.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
