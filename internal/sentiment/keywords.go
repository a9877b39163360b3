package sentiment

import "strings"

// exclusionBase lists generic travel-amenity terms whose presence marks a
// query as out of scope for sentiment.
var exclusionBase = []string{
	"beach", "restaurant", "hotel", "museum", "park",
	"bitter end", "kia ora", "lonely planet", "yacht",
}

// defaultDestinations is the travel-destination gazetteer used as a
// secondary gate on weak lexicon scores.
var defaultDestinations = []string{
	"botswana", "kenya", "mozambique", "rwanda", "south africa", "tanzania", "zambia", "zanzibar",
	"australia", "new zealand", "cambodia", "hong kong", "indonesia", "laos", "malaysia",
	"philippines", "singapore", "thailand", "vietnam", "anguilla", "antigua and barbuda",
	"barbados", "bermuda", "british virgin islands", "grenada", "jamaica", "sint eustatius",
	"st barths", "st kitts & nevis", "st vincent & the grenadines", "turks & caicos",
	"maldives", "mauritius", "réunion", "seychelles", "sri lanka", "greece", "ibiza", "italy",
	"quintana roo", "yucatán", "oaxaca", "mexico city", "jalisco", "baja california sur",
	"los cabos", "veracruz", "abu dhabi", "ajman", "dubai", "oman", "ras al khaimah", "canada",
	"usa", "cook islands", "fiji", "tahiti", "bora bora",
}

// Sets holds the three case-folded keyword sets a Classifier matches
// against. All matching is substring containment, not token matching.
type Sets struct {
	Exclusions   []string
	Negatives    []string
	Destinations []string
}

// Assemble builds the keyword sets for one batch: the static exclusion base
// merged with externally supplied context keywords, the supplied negative
// keywords, and the static destination gazetteer. Either external list may
// be empty; that is the normal no-override-file case.
func Assemble(contextKeywords, negativeKeywords []string) Sets {
	return Sets{
		Exclusions:   fold(append(append([]string{}, exclusionBase...), contextKeywords...)),
		Negatives:    fold(negativeKeywords),
		Destinations: fold(defaultDestinations),
	}
}

// fold lowercases and trims every entry, dropping blanks.
func fold(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// containsAny reports whether folded contains any of the keywords as a
// substring. An empty keyword list never matches.
func containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
