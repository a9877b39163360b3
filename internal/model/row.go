package model

import "time"

// Category is the discrete sentiment label derived from a score.
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNegative Category = "negative"
	CategoryNeutral  Category = "neutral"
)

// StagedTimeLayout is the provisional timestamp format carried in staging
// payloads. The merge replaces these with server-side timestamps.
const StagedTimeLayout = "2006-01-02 15:04:05"

// ClassifiedRow is one scored query, immutable once built. Query keeps its
// original casing; all matching decisions were made on the folded form.
type ClassifiedRow struct {
	Query    string    `json:"query"`
	Score    float64   `json:"sentiment_score"`
	Category Category  `json:"sentiment_category"`
	RunDate  time.Time `json:"run_date"`
}

// StagedRow is the wire shape loaded into a staging table (and written by
// NDJSON export). Dates and timestamps are strings: run_date as YYYY-MM-DD,
// the audit columns as provisional UTC timestamps that only survive until
// the merge stamps real ones.
type StagedRow struct {
	Query      string  `json:"query"`
	Score      float64 `json:"sentiment_score"`
	Category   string  `json:"sentiment_category"`
	RunDate    string  `json:"run_date"`
	InsertedAt string  `json:"inserted_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// StageRows converts a classified batch into its staging payload, stamping
// every row with the same provisional timestamp.
func StageRows(rows []ClassifiedRow, now time.Time) []StagedRow {
	ts := now.UTC().Format(StagedTimeLayout)
	staged := make([]StagedRow, 0, len(rows))
	for _, r := range rows {
		staged = append(staged, StagedRow{
			Query:      r.Query,
			Score:      r.Score,
			Category:   string(r.Category),
			RunDate:    r.RunDate.Format("2006-01-02"),
			InsertedAt: ts,
			UpdatedAt:  ts,
		})
	}
	return staged
}

// ClientScope identifies one tenant's data boundaries for a pipeline run:
// which dataset to read queries from and where its keyword files live.
type ClientScope struct {
	Dataset       string `json:"dataset" yaml:"dataset" mapstructure:"dataset"`
	Project       string `json:"project" yaml:"project" mapstructure:"project"`
	KeywordBucket string `json:"keyword_bucket" yaml:"keyword_bucket" mapstructure:"keyword_bucket"`
}

// RunReport is the per-client outcome. One client failing never aborts the
// batch, so errors are carried here instead of propagating.
type RunReport struct {
	Dataset string `json:"dataset"`
	Rows    int    `json:"rows"`
	OK      bool   `json:"ok"`
	Note    string `json:"note,omitempty"`
	Err     string `json:"error,omitempty"`
}
