package ingestor

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-errors/errors"

	"github.com/auditkit/logmine/pkg/mine"
)

// LogLine represents a single raw log line read from input.
type LogLine struct {
	LineNumber int
	Content    string
}

// Result wraps either a successfully read value or a read error,
// similar to Result<T, E> in Rust.
type Result[T any] struct {
	Value T
	Err   error
}

// Ingestor reads log lines from a source and streams them as Results.
type Ingestor interface {
	Ingest(ctx context.Context) (<-chan Result[*LogLine], error)
}

var _ Ingestor = (*FileIngestor)(nil)

// FileIngestor reads log lines from a file path or stdin.
type FileIngestor struct {
	Path string
}

// Ingest reads log lines from the file (or stdin if Path is "-").
// Cancel the context to stop reading early; the goroutine will exit promptly.
func (f *FileIngestor) Ingest(ctx context.Context) (<-chan Result[*LogLine], error) {
	var file *os.File
	if f.Path == "-" {
		file = os.Stdin
	} else {
		var err error
		file, err = os.Open(f.Path)
		if err != nil {
			return nil, errors.Errorf("open log file: %w", err)
		}
	}

	ownFile := f.Path != "-"
	ch := make(chan Result[*LogLine], 100)
	go func() {
		defer close(ch)

		var fileErr error
		defer func() {
			if ownFile {
				if cerr := file.Close(); cerr != nil {
					fileErr = errors.Join(fileErr, errors.Errorf("close log file: %w", cerr))
				}
			}
			if fileErr != nil {
				select {
				case ch <- Result[*LogLine]{Err: fileErr}:
				case <-ctx.Done():
				}
			}
		}()

		scanner := bufio.NewScanner(file)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			select {
			case ch <- Result[*LogLine]{Value: &LogLine{LineNumber: lineNum, Content: scanner.Text()}}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			fileErr = errors.Errorf("read log file: %w", err)
		}
	}()

	return ch, nil
}

// Ingest is a convenience function that creates a FileIngestor and reads from it.
// Pass "-" to read from stdin.
func Ingest(ctx context.Context, filePath string) (<-chan Result[*LogLine], error) {
	return (&FileIngestor{Path: filePath}).Ingest(ctx)
}

// Collect drains the ingest channel into a slice, stopping at the first
// read error or context cancellation.
func Collect(ctx context.Context, ch <-chan Result[*LogLine]) ([]string, error) {
	var lines []string
	for {
		select {
		case res, ok := <-ch:
			if !ok {
				return lines, nil
			}
			if res.Err != nil {
				return lines, res.Err
			}
			lines = append(lines, res.Value.Content)
		case <-ctx.Done():
			return lines, ctx.Err()
		}
	}
}

// ReadLines reads the whole file (or stdin for "-"), merging continuation
// lines into their parent record.
func ReadLines(ctx context.Context, filePath string) ([]string, error) {
	ch, err := Ingest(ctx, filePath)
	if err != nil {
		return nil, err
	}
	lines, err := Collect(ctx, ch)
	if err != nil {
		return nil, err
	}
	return MergeContinuations(lines), nil
}

var continuationRe = regexp.MustCompile(`^\s*(at\s|Caused by:|\.\.\.\s)`)

// MergeContinuations folds stack-trace style continuation lines (indented
// lines, "at ..." frames, "Caused by:" chains) into the preceding record
// so one log event stays one line.
func MergeContinuations(lines []string) []string {
	var merged []string
	for _, line := range lines {
		isCont := len(merged) > 0 &&
			(continuationRe.MatchString(line) ||
				(line != "" && (line[0] == ' ' || line[0] == '\t')))
		if isCont {
			merged[len(merged)-1] += " " + strings.TrimSpace(line)
			continue
		}
		merged = append(merged, line)
	}
	return merged
}

var (
	levelRe = regexp.MustCompile(`(?i)\b(fatal|critical|error|err|warning|warn|information|info|debug|dbg|trace)\b`)
	// RFC3339 and the common "2006-01-02 15:04:05" syslog-ish shape.
	timestampRes = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`),
	}
	timestampLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
)

// ToEntry extracts level and timestamp hints from a raw line. Lines with no
// recognizable level default to information; lines with no recognizable
// timestamp get the zero time.
func ToEntry(line string) mine.LogEntry {
	entry := mine.LogEntry{Message: line, Level: mine.LevelInformation}

	if m := levelRe.FindString(line); m != "" {
		entry.Level = mine.ParseLevel(m)
	}
	for _, re := range timestampRes {
		m := re.FindString(line)
		if m == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, m); err == nil {
				entry.Timestamp = ts
				break
			}
		}
		break
	}
	return entry
}

// ToEntries converts raw lines into log entries for the mining engine.
func ToEntries(lines []string) []mine.LogEntry {
	entries := make([]mine.LogEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, ToEntry(line))
	}
	return entries
}
