// Package loghub loads Loghub benchmark datasets (structured CSV form)
// for integration testing the mining pipeline against known templates.
package loghub

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/go-errors/errors"
)

// LogEntry is a single labeled log record from a Loghub CSV file: the
// raw content plus the ground-truth template it belongs to.
type LogEntry struct {
	Content       string
	EventTemplate string
	EventID       string
}

// LoadDataset reads a Loghub structured CSV file and returns labeled
// entries. Column indices are determined from the header row.
func LoadDataset(csvPath string) ([]LogEntry, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, errors.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{"Content": -1, "EventTemplate": -1, "EventId": -1}
	for i, name := range header {
		if _, want := cols[name]; want {
			cols[name] = i
		}
	}
	for name, idx := range cols {
		if idx == -1 {
			return nil, errors.Errorf("missing required column: %s", name)
		}
	}

	var entries []LogEntry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Errorf("read csv row: %w", err)
		}
		if len(row) <= cols["Content"] || len(row) <= cols["EventTemplate"] || len(row) <= cols["EventId"] {
			continue
		}
		entries = append(entries, LogEntry{
			Content:       row[cols["Content"]],
			EventTemplate: row[cols["EventTemplate"]],
			EventID:       row[cols["EventId"]],
		})
	}
	if len(entries) == 0 {
		return nil, errors.New("csv has no data rows")
	}
	return entries, nil
}

// Lines extracts the raw content of each entry, in file order.
func Lines(entries []LogEntry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Content
	}
	return lines
}

// GroundTruthCount returns the number of distinct ground-truth templates
// in the dataset.
func GroundTruthCount(entries []LogEntry) int {
	seen := make(map[string]struct{})
	for _, e := range entries {
		seen[e.EventID] = struct{}{}
	}
	return len(seen)
}
