package main

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/querier"
)

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List stored templates",
		RunE:  runTemplates,
	}
}

func runTemplates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	q := querier.NewQuerier(s)
	summaries, err := q.Summary(ctx)
	if err != nil {
		return errors.Errorf("query: %w", err)
	}

	fmt.Printf("%-8s %-12s %-12s %-6s %s\n", "COUNT", "METHOD", "SEVERITY", "CONF", "TEMPLATE")
	fmt.Println("-------- ------------ ------------ ------ ----------------------------------------")
	for _, ts := range summaries {
		fmt.Printf("%-8d %-12s %-12s %-6.2f %s\n", ts.Count, ts.Method, ts.Severity, ts.Confidence, ts.Template)
	}
	return nil
}
