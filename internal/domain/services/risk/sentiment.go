package risk

import (
	"math"
	"strings"

	"crea-bienestar/internal/domain/models"
)

// emotionLexicon maps each tracked emotion to its marker words.
// Tokens match markers bidirectionally ("cansado" hits "cansado de")
// so single-token scanning still catches short phrases.
var emotionLexicon = map[models.Emotion][]string{
	models.EmotionSadness: {
		"triste", "deprimido", "melancólico", "llorar", "lloro", "lágrimas",
		"decaído", "desanimado", "desesperanzado", "vacío", "solo",
	},
	models.EmotionAnxiety: {
		"ansioso", "nervioso", "preocupado", "angustiado", "estresado",
		"pánico", "miedo", "terror", "inquieto", "intranquilo", "tenso",
	},
	models.EmotionAnger: {
		"enojado", "molesto", "furioso", "irritado", "frustrado",
		"rabia", "ira", "indignado", "harto", "cansado de",
	},
	models.EmotionHappiness: {
		"feliz", "contento", "alegre", "emocionado", "bien", "genial",
		"excelente", "mejor", "animado", "optimista",
	},
	models.EmotionHopelessness: {
		"imposible", "sin salida", "perdido", "inútil", "fracaso",
		"no puedo", "nunca", "siempre mal", "todo mal", "no vale la pena",
	},
}

var intensifiers = map[string]bool{
	"muy": true, "mucho": true, "demasiado": true,
	"extremadamente": true, "bastante": true, "super": true, "súper": true,
}

var negations = map[string]bool{
	"no": true, "nunca": true, "jamás": true, "tampoco": true, "sin": true,
}

// SentimentAnalyzer produces a heuristic emotional reading of Spanish text
type SentimentAnalyzer struct{}

func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{}
}

// Analyze scores the message 0-100 (50 neutral, lower is more
// negative). Intensifiers amplify the following word's emotional
// weight, negations dampen it rather than inverting it.
func (a *SentimentAnalyzer) Analyze(message string) models.SentimentResult {
	words := strings.Fields(strings.ToLower(message))

	counts := map[models.Emotion]float64{
		models.EmotionSadness:      0,
		models.EmotionAnxiety:      0,
		models.EmotionAnger:        0,
		models.EmotionHappiness:    0,
		models.EmotionHopelessness: 0,
	}

	intensity := 1.0
	negated := false
	for _, word := range words {
		if intensifiers[word] {
			intensity = 1.5
			continue
		}
		if negations[word] {
			negated = true
			continue
		}

		weight := intensity
		if negated {
			weight = 0.3
		}
		for emotion, markers := range emotionLexicon {
			for _, marker := range markers {
				if strings.Contains(word, marker) || strings.Contains(marker, word) {
					counts[emotion] += weight
					break
				}
			}
		}

		// Modifiers only reach the word right after them
		intensity = 1.0
		negated = false
	}

	raw := 50.0 -
		counts[models.EmotionSadness]*8 -
		counts[models.EmotionAnxiety]*6 -
		counts[models.EmotionAnger]*5 -
		counts[models.EmotionHopelessness]*10 +
		counts[models.EmotionHappiness]*8

	score := int(math.Round(clampFloat(raw, 0, 100)))

	dominant := models.EmotionNeutral
	maxCount := 0.0
	total := 0.0
	for _, e := range []models.Emotion{
		models.EmotionSadness, models.EmotionAnxiety, models.EmotionAnger,
		models.EmotionHappiness, models.EmotionHopelessness,
	} {
		total += counts[e]
		if counts[e] > maxCount {
			maxCount = counts[e]
			dominant = e
		}
	}

	confidence := total / 3.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	confidence = math.Round(confidence*100) / 100

	return models.SentimentResult{
		Score:           score,
		DominantEmotion: dominant,
		EmotionCounts:   counts,
		Confidence:      confidence,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
