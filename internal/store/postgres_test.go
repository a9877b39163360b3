package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

const testSuffix = "abcd1234"

func newMockedStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s := NewPostgresFromPool(mock, DefaultTables())
	s.suffixFn = func() string { return testSuffix }
	return s, mock
}

func stagedBatch() []model.StagedRow {
	return []model.StagedRow{
		{Query: "safari in kenya", Score: 0.0, Category: "neutral", RunDate: "2024-01-01", InsertedAt: "2024-01-03 12:00:00", UpdatedAt: "2024-01-03 12:00:00"},
		{Query: "worst experience ever", Score: -1.0, Category: "negative", RunDate: "2024-01-01", InsertedAt: "2024-01-03 12:00:00", UpdatedAt: "2024-01-03 12:00:00"},
	}
}

func expectEnsureSchema(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "acme"`)).
		WillReturnResult(pgxmock.NewResult("CREATE SCHEMA", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "acme"."search_query_sentiment"`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`ADD COLUMN IF NOT EXISTS inserted_at`)).
		WillReturnResult(pgxmock.NewResult("ALTER TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`ADD COLUMN IF NOT EXISTS updated_at`)).
		WillReturnResult(pgxmock.NewResult("ALTER TABLE", 0))
}

func stagingIdent() pgx.Identifier {
	return pgx.Identifier{"acme", "_staging_search_query_sentiment_" + testSuffix}
}

func TestPostgresUpsert_FullSequence(t *testing.T) {
	s, mock := newMockedStore(t)

	expectEnsureSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "acme"."_staging_search_query_sentiment_` + testSuffix + `"`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(stagingIdent(), stagedColumns).WillReturnResult(2)
	mock.ExpectExec(regexp.QuoteMeta(`MERGE INTO "acme"."search_query_sentiment"`)).
		WillReturnResult(pgxmock.NewResult("MERGE", 2))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "acme"."_staging_search_query_sentiment_` + testSuffix + `"`)).
		WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))

	n, err := s.Upsert(context.Background(), "acme", stagedBatch())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_EmptyBatchIsNoop(t *testing.T) {
	s, mock := newMockedStore(t)

	n, err := s.Upsert(context.Background(), "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_SchemaFailureIsFatal(t *testing.T) {
	s, mock := newMockedStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "acme"`)).
		WillReturnError(assert.AnError)

	_, err := s.Upsert(context.Background(), "acme", stagedBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_StagingLoadFailureIsFatal(t *testing.T) {
	s, mock := newMockedStore(t)

	expectEnsureSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "acme"."_staging_`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(stagingIdent(), stagedColumns).WillReturnError(assert.AnError)
	// Cleanup still runs after the failed load.
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS`)).
		WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))

	_, err := s.Upsert(context.Background(), "acme", stagedBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load staging")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_MergeFailureIsFatal(t *testing.T) {
	s, mock := newMockedStore(t)

	expectEnsureSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "acme"."_staging_`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(stagingIdent(), stagedColumns).WillReturnResult(2)
	mock.ExpectExec(regexp.QuoteMeta(`MERGE INTO`)).WillReturnError(assert.AnError)
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS`)).
		WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))

	_, err := s.Upsert(context.Background(), "acme", stagedBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge into")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsert_CleanupFailureIsSwallowed(t *testing.T) {
	s, mock := newMockedStore(t)

	expectEnsureSchema(mock)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "acme"."_staging_`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(stagingIdent(), stagedColumns).WillReturnResult(2)
	mock.ExpectExec(regexp.QuoteMeta(`MERGE INTO`)).
		WillReturnResult(pgxmock.NewResult("MERGE", 2))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS`)).WillReturnError(assert.AnError)

	n, err := s.Upsert(context.Background(), "acme", stagedBatch())
	require.NoError(t, err, "staging cleanup failure must not fail the upsert")
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFetchQueries(t *testing.T) {
	s, mock := newMockedStore(t)

	rows := pgxmock.NewRows([]string{"query"}).
		AddRow("safari in kenya").
		AddRow("best beach in st lucia")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT query FROM "acme"."google_search_console_web_url_query"`)).
		WillReturnRows(rows)

	queries, err := s.FetchQueries(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"safari in kenya", "best beach in st lucia"}, queries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFetchQueries_Error(t *testing.T) {
	s, mock := newMockedStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT query`)).WillReturnError(assert.AnError)

	_, err := s.FetchQueries(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch queries")
	assert.NoError(t, mock.ExpectationsWereMet())
}
