// Package store persists classified queries into the analytical warehouse
// using a staging-then-merge upsert that is safe to re-run.
package store

import (
	"context"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

// Tables names the per-dataset tables the store touches.
type Tables struct {
	// Source is the table distinct queries are read from.
	Source string
	// Target is the destination sentiment table.
	Target string
}

// DefaultTables returns the production table names.
func DefaultTables() Tables {
	return Tables{
		Source: "google_search_console_web_url_query",
		Target: "search_query_sentiment",
	}
}

// Store is the warehouse interface for one pipeline run. Implementations
// scope both operations to a dataset so clients stay isolated.
type Store interface {
	// FetchQueries returns the distinct non-empty query strings for a dataset.
	FetchQueries(ctx context.Context, dataset string) ([]string, error)

	// Upsert applies a staged batch to the dataset's target table: ensure
	// schema, load a uniquely named staging table, merge keyed on query,
	// drop staging. Re-running an identical batch is a no-op beyond the
	// merge's timestamp semantics. Returns the number of rows processed.
	Upsert(ctx context.Context, dataset string, rows []model.StagedRow) (int, error)

	Close() error
}
