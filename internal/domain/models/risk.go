package models

import "time"

// RiskLevel represents the severity tier of an analyzed message or conversation
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskCategory classifies which concern a matched term belongs to
type RiskCategory string

const (
	CategorySuicide    RiskCategory = "suicide"
	CategorySelfHarm   RiskCategory = "self_harm"
	CategoryDepression RiskCategory = "depression"
	CategoryAnxiety    RiskCategory = "anxiety"
	CategoryStress     RiskCategory = "stress"
	CategoryFamily     RiskCategory = "family"
	CategoryAcademic   RiskCategory = "academic"
	CategoryEconomic   RiskCategory = "economic"
)

// KeywordMatch is a single lexicon term found in a message
type KeywordMatch struct {
	Term     string       `json:"term"`
	Weight   int          `json:"weight"`
	Category RiskCategory `json:"category"`
}

// Emotion identifies one of the tracked emotion families
type Emotion string

const (
	EmotionSadness      Emotion = "tristeza"
	EmotionAnxiety      Emotion = "ansiedad"
	EmotionAnger        Emotion = "enojo"
	EmotionHappiness    Emotion = "felicidad"
	EmotionHopelessness Emotion = "desesperanza"
	EmotionNeutral      Emotion = "neutral"
)

// SentimentResult is the emotional reading of a single message.
// Score runs 0-100 where 0 is maximally negative and 100 maximally
// positive; 50 is neutral.
type SentimentResult struct {
	Score           int                 `json:"score"`
	DominantEmotion Emotion             `json:"dominant_emotion"`
	EmotionCounts   map[Emotion]float64 `json:"emotion_counts"`
	Confidence      float64             `json:"confidence"`
}

// RiskFactors breaks the composite score into its weighted components.
// SentimentScore is the inverted valence (100 - sentiment), so all
// three factors point the same way: higher means more risk.
type RiskFactors struct {
	KeywordScore   int `json:"keyword_score"`
	SentimentScore int `json:"sentiment_score"`
	ContextScore   int `json:"context_score"`
}

// RiskAnalysis is the full result of analyzing one message
type RiskAnalysis struct {
	Score               int            `json:"score"`
	Level               RiskLevel      `json:"level"`
	Factors             RiskFactors    `json:"factors"`
	Matches             []KeywordMatch `json:"matches"`
	Sentiment           SentimentResult `json:"sentiment"`
	Recommendation      string         `json:"recommendation"`
	RequiresEscalation  bool           `json:"requires_escalation"`
	AnalyzedAt          time.Time      `json:"analyzed_at"`
}

// LevelForScore maps a composite score to its severity tier
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// HasCategory reports whether any match belongs to one of the given categories
func (a *RiskAnalysis) HasCategory(categories ...RiskCategory) bool {
	for _, m := range a.Matches {
		for _, c := range categories {
			if m.Category == c {
				return true
			}
		}
	}
	return false
}
