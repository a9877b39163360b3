package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemble_MergesContextIntoExclusions(t *testing.T) {
	sets := Assemble([]string{" Spa ", "GOLF", ""}, nil)

	assert.Contains(t, sets.Exclusions, "beach")
	assert.Contains(t, sets.Exclusions, "spa")
	assert.Contains(t, sets.Exclusions, "golf")
	assert.NotContains(t, sets.Exclusions, "")
	assert.Len(t, sets.Exclusions, len(exclusionBase)+2)
}

func TestAssemble_EmptyInputsAreNormal(t *testing.T) {
	sets := Assemble(nil, nil)

	assert.Len(t, sets.Exclusions, len(exclusionBase))
	assert.Empty(t, sets.Negatives)
	assert.Len(t, sets.Destinations, len(defaultDestinations))
}

func TestAssemble_FoldsNegatives(t *testing.T) {
	sets := Assemble(nil, []string{"Worst", "  BAD  "})

	assert.Equal(t, []string{"worst", "bad"}, sets.Negatives)
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		folded   string
		keywords []string
		want     bool
	}{
		{"substring match", "sandy beaches nearby", []string{"beach"}, true},
		{"no match", "city break", []string{"beach"}, false},
		{"empty keyword list never matches", "anything", nil, false},
		{"multi-word keyword", "the bitter end yacht club", []string{"bitter end"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containsAny(tt.folded, tt.keywords))
		})
	}
}
