package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

// SQLiteStore implements Store on modernc.org/sqlite for local runs and
// tests. SQLite has no schemas, so dataset scoping happens through a
// "<dataset>_<table>" naming convention.
type SQLiteStore struct {
	db *sql.DB

	tables   Tables
	suffixFn func() string
}

// NewSQLite opens (or creates) the database at dsn and enables WAL mode.
func NewSQLite(dsn string, tables Tables) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{
		db:       sqldb,
		tables:   tables,
		suffixFn: func() string { return uuid.NewString()[:8] },
	}, nil
}

// DB exposes the handle for test seeding.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// FetchQueries returns the distinct non-empty queries in the dataset's
// source table.
func (s *SQLiteStore) FetchQueries(ctx context.Context, dataset string) ([]string, error) {
	q := fmt.Sprintf(
		`SELECT DISTINCT query FROM %s WHERE query IS NOT NULL AND query <> ''`,
		s.tableName(dataset, s.tables.Source),
	)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: fetch queries for %s", dataset)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan query for %s", dataset)
		}
		queries = append(queries, query)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate queries for %s", dataset)
	}
	return queries, nil
}

// Upsert mirrors the postgres staging-then-merge sequence. SQLite has no
// MERGE statement; INSERT ... SELECT ... ON CONFLICT with a differ guard
// gives the same conditional semantics in one atomic statement.
func (s *SQLiteStore) Upsert(ctx context.Context, dataset string, rows []model.StagedRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.ensureSchema(ctx, dataset); err != nil {
		return 0, err
	}

	staging := s.tableName(dataset, fmt.Sprintf("_staging_%s_%s", s.tables.Target, s.suffixFn()))
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteCreateStagingSQL, staging)); err != nil {
		return 0, eris.Wrapf(err, "sqlite: create staging table %s", staging)
	}
	defer s.dropStaging(ctx, staging)

	if err := s.loadStaging(ctx, staging, rows); err != nil {
		return 0, err
	}

	target := s.tableName(dataset, s.tables.Target)
	merge := fmt.Sprintf(sqliteMergeSQL, target, staging, target, target)
	if _, err := s.db.ExecContext(ctx, merge); err != nil {
		return 0, eris.Wrapf(err, "sqlite: merge into %s", target)
	}

	zap.L().Info("sqlite: upserted batch",
		zap.String("dataset", dataset), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// loadStaging inserts the batch inside one transaction.
func (s *SQLiteStore) loadStaging(ctx context.Context, staging string, rows []model.StagedRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin staging load")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (query, sentiment_score, sentiment_category, run_date, inserted_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`, staging))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare staging insert")
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Query, r.Score, r.Category, r.RunDate, r.InsertedAt, r.UpdatedAt); err != nil {
			return eris.Wrapf(err, "sqlite: stage row %q", r.Query)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit staging load")
	}
	return nil
}

// ensureSchema creates the target table when absent and additively adds the
// audit columns to pre-existing tables. SQLite's ALTER TABLE has no IF NOT
// EXISTS, so the column set is inspected via PRAGMA first.
func (s *SQLiteStore) ensureSchema(ctx context.Context, dataset string) error {
	target := s.tableName(dataset, s.tables.Target)

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteCreateTargetSQL, target)); err != nil {
		return eris.Wrapf(err, "sqlite: ensure table %s", target)
	}

	existing, err := s.columnNames(ctx, target)
	if err != nil {
		return err
	}
	for _, col := range []string{"inserted_at", "updated_at"} {
		if existing[col] {
			continue
		}
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`, target, col)
		if _, err := s.db.ExecContext(ctx, alter); err != nil {
			return eris.Wrapf(err, "sqlite: add column %s to %s", col, target)
		}
	}
	return nil
}

func (s *SQLiteStore) columnNames(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: table_info %s", table)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan table_info %s", table)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// dropStaging discards the staging table, logging and swallowing failures.
func (s *SQLiteStore) dropStaging(ctx context.Context, staging string) {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, staging)); err != nil {
		zap.L().Warn("sqlite: drop staging table failed",
			zap.String("table", staging), zap.Error(err))
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// tableName quotes the dataset-prefixed table name.
func (s *SQLiteStore) tableName(dataset, table string) string {
	return fmt.Sprintf(`"%s_%s"`, dataset, table)
}

const sqliteCreateTargetSQL = `CREATE TABLE IF NOT EXISTS %s (
	query              TEXT PRIMARY KEY,
	sentiment_score    REAL,
	sentiment_category TEXT,
	run_date           TEXT,
	inserted_at        TEXT,
	updated_at         TEXT
)`

const sqliteCreateStagingSQL = `CREATE TABLE %s (
	query              TEXT,
	sentiment_score    REAL,
	sentiment_category TEXT,
	run_date           TEXT,
	inserted_at        TEXT,
	updated_at         TEXT
)`

// sqliteMergeSQL stamps real timestamps at merge time; the provisional ones
// in staging are ignored. The WHERE guard on the conflict branch keeps
// updated_at untouched when nothing changed. "WHERE true" disambiguates the
// upsert clause from a join, as the SQLite docs require for INSERT ... SELECT.
const sqliteMergeSQL = `INSERT INTO %s (query, sentiment_score, sentiment_category, run_date, inserted_at, updated_at)
SELECT query, sentiment_score, sentiment_category, run_date, datetime('now'), datetime('now')
FROM %s WHERE true
ON CONFLICT(query) DO UPDATE SET
	sentiment_score    = excluded.sentiment_score,
	sentiment_category = excluded.sentiment_category,
	updated_at         = datetime('now')
WHERE %s.sentiment_score IS NOT excluded.sentiment_score
   OR %s.sentiment_category IS NOT excluded.sentiment_category`
