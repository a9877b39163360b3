// Package pipeline sequences one sentiment run per client: fetch queries,
// assemble keyword sets, classify, upsert.
package pipeline

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ems-codex/brand-sentiment/internal/keywords"
	"github.com/ems-codex/brand-sentiment/internal/model"
	"github.com/ems-codex/brand-sentiment/internal/resilience"
	"github.com/ems-codex/brand-sentiment/internal/sentiment"
	"github.com/ems-codex/brand-sentiment/internal/store"
)

// Runner executes the pipeline for a set of client scopes, strictly
// sequentially. The only shared mutable resource is the warehouse target
// table, and only the store's merge touches it.
type Runner struct {
	store   store.Store
	bucket  keywords.Bucket
	clients []model.ClientScope

	// Retry governs the query-fetch retries.
	Retry resilience.RetryConfig

	// Export, when set, receives the staged batch as NDJSON instead of it
	// being upserted (dry-run).
	Export io.Writer

	// nowFn is injectable for tests.
	nowFn func() time.Time
}

// NewRunner wires a Runner over the given store and keyword bucket.
func NewRunner(st store.Store, bucket keywords.Bucket, clients []model.ClientScope) *Runner {
	return &Runner{
		store:   st,
		bucket:  bucket,
		clients: clients,
		Retry:   resilience.DefaultRetryConfig(),
		nowFn:   time.Now,
	}
}

// RunAll processes every client in order. A client's failure is captured in
// its report and never stops the remaining clients.
func (r *Runner) RunAll(ctx context.Context) []model.RunReport {
	reports := make([]model.RunReport, 0, len(r.clients))
	for _, scope := range r.clients {
		zap.L().Info("pipeline: processing client", zap.String("dataset", scope.Dataset))
		reports = append(reports, r.RunClient(ctx, scope))
	}
	return reports
}

// RunClient runs the full sequence for one client scope. Classification of
// the whole batch completes before any row is staged; there are no
// partial-batch upserts.
func (r *Runner) RunClient(ctx context.Context, scope model.ClientScope) model.RunReport {
	log := zap.L().With(zap.String("dataset", scope.Dataset))

	queries := r.fetchQueries(ctx, scope, log)
	if len(queries) == 0 {
		log.Warn("pipeline: no queries to process")
		return model.RunReport{Dataset: scope.Dataset, Rows: 0, Note: "no queries to process"}
	}
	log.Info("pipeline: fetched queries", zap.Int("count", len(queries)))

	ctxKeywords := r.loadKeywords(ctx, scope, log, "context", r.bucket.ContextKeywords)
	negKeywords := r.loadKeywords(ctx, scope, log, "negatives", r.bucket.NegativeKeywords)

	cls := sentiment.NewClassifier(sentiment.Assemble(ctxKeywords, negKeywords))
	rows := BuildRows(queries, cls, RunDate(r.nowFn()))
	staged := model.StageRows(rows, r.nowFn())

	if r.Export != nil {
		if err := WriteNDJSON(r.Export, staged); err != nil {
			log.Error("pipeline: export failed", zap.Error(err))
			return model.RunReport{Dataset: scope.Dataset, Err: err.Error()}
		}
		return model.RunReport{Dataset: scope.Dataset, Rows: len(staged), OK: true, Note: "exported, not upserted"}
	}

	n, err := r.store.Upsert(ctx, scope.Dataset, staged)
	if err != nil {
		log.Error("pipeline: upsert failed", zap.Error(err))
		return model.RunReport{Dataset: scope.Dataset, Err: err.Error()}
	}

	log.Info("pipeline: client complete", zap.Int("rows", n))
	return model.RunReport{Dataset: scope.Dataset, Rows: n, OK: true}
}

// fetchQueries pulls the distinct queries with retries. A final failure
// degrades to an empty batch with a warning; an unreachable source for one
// client is not fatal to the run.
func (r *Runner) fetchQueries(ctx context.Context, scope model.ClientScope, log *zap.Logger) []string {
	var queries []string
	err := resilience.Do(ctx, r.Retry, func(ctx context.Context) error {
		var fetchErr error
		queries, fetchErr = r.store.FetchQueries(ctx, scope.Dataset)
		return fetchErr
	})
	if err != nil {
		log.Warn("pipeline: query fetch failed, treating as empty", zap.Error(err))
		return nil
	}
	return queries
}

// loadKeywords fetches one optional keyword list. Absence is handled inside
// the bucket; genuine read failures degrade to an empty list here, matching
// the keyword files' advisory role.
func (r *Runner) loadKeywords(ctx context.Context, scope model.ClientScope, log *zap.Logger,
	kind string, load func(context.Context, model.ClientScope) ([]string, error)) []string {

	kws, err := load(ctx, scope)
	if err != nil {
		log.Warn("pipeline: keyword load failed, continuing without",
			zap.String("kind", kind), zap.Error(err))
		return nil
	}
	return kws
}
