package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DuckDBStore implements Store using DuckDB.
type DuckDBStore struct {
	db *sql.DB
}

var _ Store = (*DuckDBStore)(nil)

// NewDuckDBStore creates a new DuckDB-backed store.
// Pass dsn="" for in-memory, or a file path for persistent storage.
func NewDuckDBStore(dsn string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &DuckDBStore{db: db}, nil
}

// Init creates the templates and parsed_logs tables if they do not exist.
func (s *DuckDBStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS templates (
			template_id VARCHAR PRIMARY KEY,
			template VARCHAR,
			count INTEGER,
			wildcards INTEGER,
			severity VARCHAR,
			first_seen TIMESTAMP,
			last_seen TIMESTAMP,
			method VARCHAR
		)
	`)
	if err != nil {
		return fmt.Errorf("create templates table: %w", err)
	}

	_, _ = s.db.ExecContext(ctx, `CREATE SEQUENCE IF NOT EXISTS parsed_logs_id_seq START 1`)
	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS parsed_logs (
			id BIGINT DEFAULT nextval('parsed_logs_id_seq'),
			session_id VARCHAR,
			line VARCHAR,
			template VARCHAR,
			method VARCHAR,
			category VARCHAR,
			confidence DOUBLE,
			timestamp TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create parsed_logs table: %w", err)
	}
	return nil
}

// InsertTemplates upserts discovered templates.
func (s *DuckDBStore) InsertTemplates(ctx context.Context, templates []Template) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO templates (template_id, template, count, wildcards, severity, first_seen, last_seen, method)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range templates {
		_, err = stmt.ExecContext(ctx, t.TemplateID, t.Template, t.Count, t.Wildcards, t.Severity, t.FirstSeen, t.LastSeen, t.Method)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// InsertParsedBatch stores per-line parse results in a single transaction.
func (s *DuckDBStore) InsertParsedBatch(ctx context.Context, logs []ParsedLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parsed_logs (session_id, line, template, method, category, confidence, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, l := range logs {
		_, err = stmt.ExecContext(ctx, l.SessionID, l.Line, l.Template, l.Method, l.Category, l.Confidence, l.Timestamp)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TemplateSummaries returns templates with parsed-line counts, joined
// with template metadata where a stored template exists.
func (s *DuckDBStore) TemplateSummaries(ctx context.Context) ([]TemplateSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pl.template, COUNT(*) as cnt,
		        COALESCE(t.method, ''), COALESCE(t.severity, ''), AVG(pl.confidence)
		 FROM parsed_logs pl
		 LEFT JOIN templates t ON pl.template = t.template
		 GROUP BY pl.template, t.method, t.severity
		 ORDER BY cnt DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("template summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []TemplateSummary
	for rows.Next() {
		var ts TemplateSummary
		if err := rows.Scan(&ts.Template, &ts.Count, &ts.Method, &ts.Severity, &ts.Confidence); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return summaries, nil
}

// QueryByTemplate returns parsed logs resolved to the given template.
func (s *DuckDBStore) QueryByTemplate(ctx context.Context, template string) ([]ParsedLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, line, template, method, category, confidence, timestamp
		 FROM parsed_logs WHERE template = ?`,
		template,
	)
	if err != nil {
		return nil, fmt.Errorf("query by template: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanParsed(rows)
}

// QueryLogs returns parsed logs matching the given options.
func (s *DuckDBStore) QueryLogs(ctx context.Context, opts QueryOpts) ([]ParsedLog, error) {
	var conditions []string
	var args []any

	if opts.Template != "" {
		conditions = append(conditions, "template = ?")
		args = append(args, opts.Template)
	}
	if opts.Method != "" {
		conditions = append(conditions, "method = ?")
		args = append(args, opts.Method)
	}
	if opts.SessionID != "" {
		conditions = append(conditions, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	if !opts.From.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, opts.From)
	}
	if !opts.To.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, opts.To)
	}

	query := "SELECT id, session_id, line, template, method, category, confidence, timestamp FROM parsed_logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanParsed(rows)
}

// Close closes the underlying database connection.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func scanParsed(rows *sql.Rows) ([]ParsedLog, error) {
	var logs []ParsedLog
	for rows.Next() {
		var l ParsedLog
		var ts time.Time
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Line, &l.Template, &l.Method, &l.Category, &l.Confidence, &ts); err != nil {
			return nil, fmt.Errorf("scan parsed log: %w", err)
		}
		l.Timestamp = ts
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return logs, nil
}
