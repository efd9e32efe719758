package main

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/querier"
	"github.com/auditkit/logmine/pkg/store"
)

func queryCmd() *cobra.Command {
	var opts store.QueryOpts

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored parsed logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Template, "template", "", "filter by resolved template")
	cmd.Flags().StringVar(&opts.Method, "method", "", "filter by method (structural, semantic, failed)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "filter by session ID")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to return")
	return cmd
}

func runQuery(cmd *cobra.Command, opts store.QueryOpts) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	q := querier.NewQuerier(s)
	logs, err := q.Search(ctx, opts)
	if err != nil {
		return errors.Errorf("query: %w", err)
	}

	for _, l := range logs {
		fmt.Printf("[%s %.2f] %s | %s\n", l.Method, l.Confidence, l.Template, l.Line)
	}
	fmt.Fprintf(os.Stderr, "\n%d rows\n", len(logs))
	return nil
}
