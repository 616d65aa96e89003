package risk

import (
	"regexp"
	"strings"
)

var shoutRe = regexp.MustCompile(`[A-ZÁÉÍÓÚÑ]{4,}`)

// ContextAnalyzer scores conversational signals that keyword and
// sentiment passes miss: message length extremes, punctuation bursts,
// shouting, and a worsening score trend across the conversation.
type ContextAnalyzer struct{}

func NewContextAnalyzer() *ContextAnalyzer {
	return &ContextAnalyzer{}
}

// Analyze returns a 0-100 context sub-score for the message given the
// prior per-message risk scores of the same conversation, oldest first.
func (a *ContextAnalyzer) Analyze(message string, priorScores []int) int {
	score := 0
	wordCount := len(strings.Fields(message))

	// Very short messages can signal withdrawal, very long ones venting
	if wordCount < 5 {
		score += 10
	} else if wordCount > 150 {
		score += 15
	}

	if strings.Count(message, "!") > 3 || strings.Count(message, "?") > 3 {
		score += 10
	}

	if shoutRe.MatchString(message) {
		score += 10
	}

	// Escalating trend: last three scores non-decreasing and elevated
	if len(priorScores) >= 2 {
		recent := priorScores
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		rising := true
		for i := 1; i < len(recent); i++ {
			if recent[i] < recent[i-1] {
				rising = false
				break
			}
		}
		if rising && recent[len(recent)-1] > 50 {
			score += 20
		}
	}

	// First contact that is barely a sentence
	if len(priorScores) == 0 && wordCount < 10 {
		score += 5
	}

	return clampInt(score, 0, 100)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
