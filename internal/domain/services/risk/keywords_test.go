package risk

import (
	"testing"

	"crea-bienestar/internal/domain/models"
)

func TestKeywordDetectorDetect(t *testing.T) {
	d := NewKeywordDetector()

	tests := []struct {
		name      string
		message   string
		wantTerms []string
	}{
		{
			name:      "empty message",
			message:   "",
			wantTerms: nil,
		},
		{
			name:      "no risk terms",
			message:   "hola, quería preguntar por los horarios de la biblioteca",
			wantTerms: nil,
		},
		{
			name:      "single high risk phrase",
			message:   "a veces pienso en el suicidio",
			wantTerms: []string{"suicidio"},
		},
		{
			name:      "case insensitive",
			message:   "SUICIDIO",
			wantTerms: []string{"suicidio"},
		},
		{
			name:      "repeated term counts once",
			message:   "estresado, muy estresado, demasiado estresado",
			wantTerms: []string{"estresado"},
		},
		{
			name:      "multiple terms sorted by weight desc",
			message:   "estoy deprimido, tengo una deuda y pienso en el suicidio",
			wantTerms: []string{"suicidio", "deprimido", "deuda"},
		},
		{
			name:      "substring match without word boundary",
			message:   "me siento superdeprimido",
			wantTerms: []string{"deprimido"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := d.Detect(tt.message)
			if len(matches) != len(tt.wantTerms) {
				t.Fatalf("Detect() returned %d matches, want %d: %+v", len(matches), len(tt.wantTerms), matches)
			}
			for i, term := range tt.wantTerms {
				if matches[i].Term != term {
					t.Errorf("match[%d] = %q, want %q", i, matches[i].Term, term)
				}
			}
		})
	}
}

func TestKeywordScore(t *testing.T) {
	d := NewKeywordDetector()

	m := func(weights ...int) []models.KeywordMatch {
		out := make([]models.KeywordMatch, len(weights))
		for i, w := range weights {
			out[i] = models.KeywordMatch{Term: "x", Weight: w}
		}
		return out
	}

	tests := []struct {
		name    string
		matches []models.KeywordMatch
		want    int
	}{
		{"no matches", nil, 0},
		{"single critical term", m(10), 20},                // 10/50*100
		{"two high terms decay", m(10, 9), 34},             // (10 + 9*0.8)/50*100 = 34.4
		{"three terms decay", m(10, 9, 8), 45},             // 10 + 7.2 + 5.12 = 22.32
		{"normalization cap", m(60), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Score(tt.matches); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Adding a match never lowers the score, but its marginal contribution
// shrinks compared to a first match of the same weight.
func TestKeywordScoreDiminishingReturns(t *testing.T) {
	d := NewKeywordDetector()

	base := []models.KeywordMatch{{Term: "a", Weight: 10}}
	extended := append(append([]models.KeywordMatch{}, base...), models.KeywordMatch{Term: "b", Weight: 2})

	firstAlone := d.Score([]models.KeywordMatch{{Term: "b", Weight: 2}})
	baseScore := d.Score(base)
	extScore := d.Score(extended)

	if extScore < baseScore {
		t.Fatalf("adding a match decreased the score: %d -> %d", baseScore, extScore)
	}
	marginal := extScore - baseScore
	if marginal >= firstAlone {
		t.Errorf("marginal contribution %d should be smaller than first-match contribution %d", marginal, firstAlone)
	}
}
