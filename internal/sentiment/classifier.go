// Package sentiment scores search queries with keyword-precedence rules in
// front of a VADER lexicon fallback.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

// weakScoreGate suppresses lexicon scores at or below this magnitude to
// neutral unless the query names a destination. It deliberately coincides
// with the categorization threshold.
const weakScoreGate = 0.3

// Classifier maps one query string to a sentiment score. It is pure: no
// I/O, no state carried between calls beyond the immutable keyword sets.
type Classifier struct {
	sets  Sets
	vader *govader.SentimentIntensityAnalyzer
}

// NewClassifier builds a classifier over the given keyword sets.
func NewClassifier(sets Sets) *Classifier {
	return &Classifier{
		sets:  sets,
		vader: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Score evaluates the precedence rules against query and returns a score in
// [-1.0, 1.0]. First matching rule wins:
//
//  1. "st lucia" with no negative keyword present forces 0.0: the place
//     name lexically reads as negative and would otherwise false-positive.
//  2. Any exclusion substring forces 0.0 (topic out of scope).
//  3. Any negative keyword forces -1.0, but only when the negatives set is
//     non-empty. A failed negatives load therefore changes scoring for
//     queries that contain a negative term; that behavior is inherited and
//     kept as is.
//  4. Otherwise the VADER compound score, suppressed to 0.0 when weak and
//     no destination is named.
//
// Substring matching happens on the case-folded query; VADER sees the
// original casing because capitalization carries emphasis.
func (c *Classifier) Score(query string) float64 {
	folded := strings.ToLower(query)

	if strings.Contains(folded, "st lucia") && !containsAny(folded, c.sets.Negatives) {
		return 0.0
	}
	if containsAny(folded, c.sets.Exclusions) {
		return 0.0
	}
	if len(c.sets.Negatives) > 0 && containsAny(folded, c.sets.Negatives) {
		return -1.0
	}

	compound := c.vader.PolarityScores(query).Compound
	if compound > weakScoreGate || compound < -weakScoreGate || containsAny(folded, c.sets.Destinations) {
		return compound
	}
	return 0.0
}

// Categorize derives the discrete label from a score. The thresholds are
// exclusive: exactly ±0.3 is still neutral.
func Categorize(score float64) model.Category {
	switch {
	case score > weakScoreGate:
		return model.CategoryPositive
	case score < -weakScoreGate:
		return model.CategoryNegative
	default:
		return model.CategoryNeutral
	}
}
