package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/tracing"
)

var dbPath string

func main() {
	// Load .env file if present (does not override existing env vars)
	_ = godotenv.Load()

	tracing.InitLogger()
	flush := tracing.InitLangfuse()

	root := &cobra.Command{
		Use:   "logmine",
		Short: "Hybrid log template mining",
		Long: "logmine discovers log templates with online clustering, escalates low-confidence\n" +
			"clusters to a semantic classifier, and stores structured results for querying.",
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "logmine.duckdb", "path to DuckDB database")

	root.AddCommand(parseCmd())
	root.AddCommand(mineCmd())
	root.AddCommand(singleCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(templatesCmd())
	root.AddCommand(queryCmd())

	err := root.Execute()
	flush()

	if err != nil {
		os.Exit(1)
	}
}
