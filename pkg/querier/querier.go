package querier

import (
	"context"

	"github.com/auditkit/logmine/pkg/store"
)

// Querier provides a high-level interface for querying parsed logs.
type Querier struct {
	store store.Store
}

// NewQuerier creates a new Querier backed by the given store.
func NewQuerier(s store.Store) *Querier {
	return &Querier{store: s}
}

// ByTemplate returns parsed logs resolved to the given template.
func (q *Querier) ByTemplate(ctx context.Context, template string) ([]store.ParsedLog, error) {
	return q.store.QueryByTemplate(ctx, template)
}

// Summary returns all templates with their occurrence counts.
func (q *Querier) Summary(ctx context.Context) ([]store.TemplateSummary, error) {
	return q.store.TemplateSummaries(ctx)
}

// Search returns parsed logs matching the given query options.
func (q *Querier) Search(ctx context.Context, opts store.QueryOpts) ([]store.ParsedLog, error) {
	return q.store.QueryLogs(ctx, opts)
}
