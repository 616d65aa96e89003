package risk

import (
	"math"
	"sort"
	"strings"

	"crea-bienestar/internal/domain/models"
)

// KeywordDetector scans messages against the weighted lexicon
type KeywordDetector struct {
	entries []Entry
}

// NewKeywordDetector builds a detector over the default lexicon
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{entries: AllEntries()}
}

// Detect returns the distinct lexicon terms present in the message,
// sorted by weight descending. Matching is case-insensitive substring
// containment; a term counts once no matter how often it repeats.
func (d *KeywordDetector) Detect(message string) []models.KeywordMatch {
	lower := strings.ToLower(message)

	seen := make(map[string]bool)
	var matches []models.KeywordMatch
	for _, e := range d.entries {
		if seen[e.Term] {
			continue
		}
		if strings.Contains(lower, e.Term) {
			seen[e.Term] = true
			matches = append(matches, models.KeywordMatch{
				Term:     e.Term,
				Weight:   e.Weight,
				Category: e.Category,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Weight > matches[j].Weight
	})
	return matches
}

// Score converts a match list into a 0-100 sub-score. Weights decay
// geometrically (factor 0.8) in weight order so a pile of minor terms
// cannot outrank a single severe one.
func (d *KeywordDetector) Score(matches []models.KeywordMatch) int {
	if len(matches) == 0 {
		return 0
	}

	total := 0.0
	for i, m := range matches {
		total += float64(m.Weight) * math.Pow(0.8, float64(i))
	}

	score := total / 50.0 * 100.0
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
