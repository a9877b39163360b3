package pipeline

import (
	"time"

	"github.com/ems-codex/brand-sentiment/internal/model"
	"github.com/ems-codex/brand-sentiment/internal/sentiment"
)

// RunDate returns the most recent Monday on or before now; now itself when
// it falls on a Monday. Every row in a batch carries this one stamp, even
// if the wall clock rolls over mid-batch.
func RunDate(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(now.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// BuildRows classifies a batch of queries into immutable rows sharing one
// run date. Duplicate query strings are collapsed to their first
// occurrence before classification; the classifier is deterministic, so
// which duplicate survives cannot change the stored result, but deduping
// here keeps the staged batch free of same-key rows with unspecified merge
// ordering.
func BuildRows(queries []string, cls *sentiment.Classifier, runDate time.Time) []model.ClassifiedRow {
	seen := make(map[string]bool, len(queries))
	rows := make([]model.ClassifiedRow, 0, len(queries))
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true

		score := cls.Score(q)
		rows = append(rows, model.ClassifiedRow{
			Query:    q,
			Score:    score,
			Category: sentiment.Categorize(score),
			RunDate:  runDate,
		})
	}
	return rows
}
