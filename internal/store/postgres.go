package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ems-codex/brand-sentiment/internal/db"
	"github.com/ems-codex/brand-sentiment/internal/model"
)

// stagedColumns is the column order shared by the staging DDL and the COPY.
var stagedColumns = []string{"query", "sentiment_score", "sentiment_category", "run_date", "inserted_at", "updated_at"}

// PostgresStore implements Store against PostgreSQL. Each dataset maps to a
// schema; the merge statement provides the write atomicity the upsert
// relies on.
type PostgresStore struct {
	pool    db.Pool
	tables  Tables
	closeFn func()

	// suffixFn generates the staging-table suffix; injectable for tests.
	suffixFn func() string
}

// NewPostgres connects a pooled PostgresStore.
func NewPostgres(ctx context.Context, connString string, tables Tables) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := NewPostgresFromPool(pool, tables)
	s.closeFn = pool.Close
	return s, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool, tables Tables) *PostgresStore {
	return &PostgresStore{
		pool:     pool,
		tables:   tables,
		suffixFn: func() string { return uuid.NewString()[:8] },
	}
}

// FetchQueries returns the distinct non-empty queries in the dataset's
// source table.
func (s *PostgresStore) FetchQueries(ctx context.Context, dataset string) ([]string, error) {
	sql := fmt.Sprintf(
		`SELECT DISTINCT query FROM %s WHERE query IS NOT NULL AND query <> ''`,
		pgx.Identifier{dataset, s.tables.Source}.Sanitize(),
	)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: fetch queries for %s", dataset)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan query for %s", dataset)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate queries for %s", dataset)
	}
	return queries, nil
}

// Upsert runs the staging-then-merge sequence. Schema ensure, staging load
// and merge failures are fatal; dropping the staging table is best-effort
// cleanup only.
func (s *PostgresStore) Upsert(ctx context.Context, dataset string, rows []model.StagedRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.ensureSchema(ctx, dataset); err != nil {
		return 0, err
	}

	staging := pgx.Identifier{dataset, fmt.Sprintf("_staging_%s_%s", s.tables.Target, s.suffixFn())}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(createStagingSQL, staging.Sanitize())); err != nil {
		return 0, eris.Wrapf(err, "postgres: create staging table %s", staging.Sanitize())
	}
	defer s.dropStaging(ctx, staging)

	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, []any{r.Query, r.Score, r.Category, r.RunDate, r.InsertedAt, r.UpdatedAt})
	}
	if _, err := db.CopyInto(ctx, s.pool, staging, stagedColumns, values); err != nil {
		return 0, eris.Wrapf(err, "postgres: load staging for %s", dataset)
	}

	target := pgx.Identifier{dataset, s.tables.Target}
	merge := fmt.Sprintf(mergeSQL, target.Sanitize(), staging.Sanitize())
	if _, err := s.pool.Exec(ctx, merge); err != nil {
		return 0, eris.Wrapf(err, "postgres: merge into %s", target.Sanitize())
	}

	zap.L().Info("postgres: upserted batch",
		zap.String("dataset", dataset), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// ensureSchema guarantees the target table exists with the full column set.
// It is additive: existing tables only ever gain the audit columns, never
// lose or retype anything. Table existence is never probed by catching a
// failure; every statement is idempotent.
func (s *PostgresStore) ensureSchema(ctx context.Context, dataset string) error {
	target := pgx.Identifier{dataset, s.tables.Target}.Sanitize()

	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{dataset}.Sanitize()),
		fmt.Sprintf(createTargetSQL, target),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS inserted_at TIMESTAMPTZ`, target),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ`, target),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "postgres: ensure schema for %s", target)
		}
	}
	return nil
}

// dropStaging discards the staging table. Failure is logged and swallowed;
// a leftover staging table costs storage, not correctness.
func (s *PostgresStore) dropStaging(ctx context.Context, staging pgx.Identifier) {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, staging.Sanitize())); err != nil {
		zap.L().Warn("postgres: drop staging table failed",
			zap.String("table", staging.Sanitize()), zap.Error(err))
	}
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const createTargetSQL = `CREATE TABLE IF NOT EXISTS %s (
	query              TEXT PRIMARY KEY,
	sentiment_score    DOUBLE PRECISION,
	sentiment_category TEXT,
	run_date           DATE,
	inserted_at        TIMESTAMPTZ,
	updated_at         TIMESTAMPTZ
)`

// Staging carries run_date and the provisional audit stamps as text; the
// merge casts the date and stamps real timestamps server-side.
const createStagingSQL = `CREATE TABLE %s (
	query              TEXT,
	sentiment_score    DOUBLE PRECISION,
	sentiment_category TEXT,
	run_date           TEXT,
	inserted_at        TEXT,
	updated_at         TEXT
)`

// mergeSQL updates only when the sentiment actually changed, so updated_at
// moves iff score or category differ, and inserted_at is set exactly once.
const mergeSQL = `MERGE INTO %s AS t
USING %s AS s
ON t.query = s.query
WHEN MATCHED AND (
	   t.sentiment_score IS DISTINCT FROM s.sentiment_score
	OR t.sentiment_category IS DISTINCT FROM s.sentiment_category
) THEN UPDATE SET
	sentiment_score    = s.sentiment_score,
	sentiment_category = s.sentiment_category,
	updated_at         = now()
WHEN NOT MATCHED THEN INSERT
	(query, sentiment_score, sentiment_category, run_date, inserted_at, updated_at)
	VALUES (s.query, s.sentiment_score, s.sentiment_category, CAST(s.run_date AS DATE), now(), now())`
