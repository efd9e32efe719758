package main

import (
	"fmt"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/auditkit/logmine/pkg/ingestor"
	"github.com/auditkit/logmine/pkg/mine"
)

var mineEngine string

func mineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine <logfile>",
		Short: "Mine templates from a log file without classification",
		Long: `Run the clustering engine over a log file and print the discovered
templates. --engine drain uses the go-drain3 miner instead of the
built-in tree, useful for cross-checking template quality.`,
		Args: cobra.ExactArgs(1),
		RunE: runMine,
	}
	cmd.Flags().StringVar(&mineEngine, "engine", "tree", "mining engine: tree or drain")
	return cmd
}

func runMine(cmd *cobra.Command, args []string) error {
	lines, err := ingestor.ReadLines(cmd.Context(), args[0])
	if err != nil {
		return errors.Errorf("read log file: %w", err)
	}

	var miner mine.Miner
	switch mineEngine {
	case "tree":
		miner = mine.NewEngine()
	case "drain":
		miner, err = mine.NewDrainMiner()
		if err != nil {
			return errors.Errorf("drain miner: %w", err)
		}
	default:
		return errors.Errorf("unknown engine %q (want tree or drain)", mineEngine)
	}

	if err := miner.Feed(lines); err != nil {
		return errors.Errorf("feed lines: %w", err)
	}
	templates, err := miner.Templates()
	if err != nil {
		return errors.Errorf("collect templates: %w", err)
	}

	fmt.Printf("%-36s %-8s %s\n", "ID", "COUNT", "TEMPLATE")
	fmt.Println("------------------------------------ -------- ----------------------------------------")
	for _, t := range templates {
		fmt.Printf("%-36s %-8d %s\n", t.ID, t.Count, t.Template)
	}
	fmt.Printf("\n%d templates from %d lines (engine=%s)\n", len(templates), len(lines), mineEngine)
	return nil
}
