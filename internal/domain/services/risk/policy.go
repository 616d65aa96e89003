package risk

import (
	"math"

	"crea-bienestar/internal/domain/models"
)

// ShouldEscalate decides whether a new alert must be raised for the
// analysis. An existing active alert for the same student suppresses
// new ones so counselors see one alert per ongoing situation.
func ShouldEscalate(analysis *models.RiskAnalysis, hasActiveAlert bool) bool {
	if hasActiveAlert {
		return false
	}
	return analysis.RequiresEscalation
}

// AggregateConversationScore folds per-message scores (oldest first)
// into a conversation-level score. Recent messages weigh more: the
// i-th message (1-based) carries weight i.
func AggregateConversationScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	if len(scores) == 1 {
		return scores[0]
	}

	sum := 0
	totalWeight := 0
	for i, s := range scores {
		w := i + 1
		sum += s * w
		totalWeight += w
	}
	return int(math.Round(float64(sum) / float64(totalWeight)))
}
