package store

import (
	"context"
	"time"
)

// Template is one persisted log template with its mining statistics.
type Template struct {
	TemplateID string
	Template   string
	Count      int
	Wildcards  int
	Severity   string
	FirstSeen  time.Time
	LastSeen   time.Time
	Method     string
}

// ParsedLog is one persisted per-line classification result.
type ParsedLog struct {
	ID         int64
	SessionID  string
	Line       string
	Template   string
	Method     string
	Category   string
	Confidence float64
	Timestamp  time.Time
}

// TemplateSummary joins a template with its observed line count in the
// parsed_logs table.
type TemplateSummary struct {
	Template   string
	Count      int
	Method     string
	Severity   string
	Confidence float64
}

// QueryOpts filters parsed-log queries.
type QueryOpts struct {
	Template  string
	Method    string
	SessionID string
	From      time.Time
	To        time.Time
	Limit     int
}

// Store persists mining sessions: discovered templates and per-line
// parse results.
type Store interface {
	// Init creates tables if they don't exist.
	Init(ctx context.Context) error
	// InsertTemplates upserts discovered templates.
	InsertTemplates(ctx context.Context, templates []Template) error
	// InsertParsedBatch stores per-line parse results.
	InsertParsedBatch(ctx context.Context, logs []ParsedLog) error
	// TemplateSummaries returns stored templates with their parsed-line
	// counts, most frequent first.
	TemplateSummaries(ctx context.Context) ([]TemplateSummary, error)
	// QueryByTemplate returns parsed logs resolved to a template.
	QueryByTemplate(ctx context.Context, template string) ([]ParsedLog, error)
	// QueryLogs returns parsed logs matching the given options.
	QueryLogs(ctx context.Context, opts QueryOpts) ([]ParsedLog, error)
	// Close releases resources.
	Close() error
}
