package risk

import (
	"math"
	"strings"
	"sync"
	"time"

	"crea-bienestar/internal/domain/models"
	"crea-bienestar/pkg/logger"
)

// Component weights of the composite score
const (
	keywordWeight   = 0.50
	sentimentWeight = 0.35
	contextWeight   = 0.15

	escalationThreshold = 60
)

// Analyzer combines keyword, sentiment and context analysis into a
// single risk reading per message.
type Analyzer struct {
	keywords  *KeywordDetector
	sentiment *SentimentAnalyzer
	context   *ContextAnalyzer
	logger    *logger.Logger
}

// NewAnalyzer creates an analyzer with the default lexicons
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{
		keywords:  NewKeywordDetector(),
		sentiment: NewSentimentAnalyzer(),
		context:   NewContextAnalyzer(),
		logger:    log.WithComponent("risk-analyzer"),
	}
}

// Analyze runs the three analysis passes concurrently and folds them
// into a weighted composite. priorScores are the per-message scores of
// earlier student messages in the same conversation, oldest first.
func (a *Analyzer) Analyze(message string, priorScores []int) *models.RiskAnalysis {
	if strings.TrimSpace(message) == "" {
		// Fail toward the lowest classification on empty input
		analysis := &models.RiskAnalysis{
			Score:   0,
			Level:   models.RiskLow,
			Matches: []models.KeywordMatch{},
			Sentiment: models.SentimentResult{
				Score:           50,
				DominantEmotion: models.EmotionNeutral,
			},
			AnalyzedAt: time.Now().UTC(),
		}
		analysis.Recommendation = recommendation(analysis)
		return analysis
	}

	var (
		wg        sync.WaitGroup
		matches   []models.KeywordMatch
		sentiment models.SentimentResult
		ctxScore  int
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		matches = a.keywords.Detect(message)
	}()
	go func() {
		defer wg.Done()
		sentiment = a.sentiment.Analyze(message)
	}()
	go func() {
		defer wg.Done()
		ctxScore = a.context.Analyze(message, priorScores)
	}()
	wg.Wait()

	kwScore := a.keywords.Score(matches)

	// Sentiment is inverted: low sentiment means high risk
	sentScore := 100 - sentiment.Score
	total := int(math.Round(
		float64(kwScore)*keywordWeight +
			float64(sentScore)*sentimentWeight +
			float64(ctxScore)*contextWeight,
	))
	total = clampInt(total, 0, 100)

	severe := hasSevereCategory(matches)

	// A suicide or self-harm match is never reported below HIGH, even
	// when the composite score alone would land lower.
	level := models.LevelForScore(total)
	if severe && (level == models.RiskLow || level == models.RiskMedium) {
		level = models.RiskHigh
	}

	analysis := &models.RiskAnalysis{
		Score: total,
		Level: level,
		Factors: models.RiskFactors{
			KeywordScore:   kwScore,
			SentimentScore: sentScore,
			ContextScore:   ctxScore,
		},
		Matches:    matches,
		Sentiment:  sentiment,
		AnalyzedAt: time.Now().UTC(),
	}
	analysis.RequiresEscalation = total >= escalationThreshold || severe
	analysis.Recommendation = recommendation(analysis)

	a.logger.Debug().
		Int("score", total).
		Str("level", string(level)).
		Int("matches", len(matches)).
		Bool("escalate", analysis.RequiresEscalation).
		Msg("Message analyzed")

	return analysis
}

func hasSevereCategory(matches []models.KeywordMatch) bool {
	for _, m := range matches {
		if m.Category == models.CategorySuicide || m.Category == models.CategorySelfHarm {
			return true
		}
	}
	return false
}

// recommendation produces the counselor-facing guidance text in
// Spanish, branching on severity first and category second.
func recommendation(a *models.RiskAnalysis) string {
	severe := a.HasCategory(models.CategorySuicide, models.CategorySelfHarm)

	switch a.Level {
	case models.RiskCritical:
		if severe {
			return "URGENTE: Contactar INMEDIATAMENTE con profesional. Riesgo de autolesión o suicidio detectado. Activar protocolo de crisis."
		}
		return "URGENTE: Derivar a psicología inmediatamente. Nivel de riesgo crítico requiere intervención profesional sin demora."
	case models.RiskHigh:
		if severe {
			return "PRIORITARIO: Agendar cita urgente con psicología. Monitorear de cerca. Informar a tutor."
		}
		return "PRIORITARIO: Agendar cita con psicología en las próximas 24-48 horas. Seguimiento cercano recomendado."
	case models.RiskMedium:
		if a.HasCategory(models.CategoryAcademic) {
			return "Sugerir cita con psicología educativa. Ofrecer recursos de técnicas de estudio. Informar a tutor si persiste."
		}
		if a.HasCategory(models.CategoryEconomic) {
			return "Derivar a bienestar estudiantil para apoyo económico. Considerar cita con psicología si afecta rendimiento."
		}
		return "Sugerir agendar cita con psicología preventiva. Ofrecer recursos de afrontamiento y talleres grupales."
	default:
		return "Ofrecer recursos educativos de bienestar. Invitar a talleres grupales. Seguimiento opcional."
	}
}
