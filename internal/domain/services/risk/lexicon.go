package risk

import "crea-bienestar/internal/domain/models"

// Entry is one weighted lexicon term. Weight runs 1-10; terms are
// matched case-insensitively as substrings so inflected forms and
// embedded phrases still hit.
type Entry struct {
	Term     string
	Weight   int
	Category models.RiskCategory
}

// highRiskTerms flag immediate danger. Any suicide or self-harm match
// forces escalation regardless of the composite score.
var highRiskTerms = []Entry{
	{Term: "suicidio", Weight: 10, Category: models.CategorySuicide},
	{Term: "suicidarme", Weight: 10, Category: models.CategorySuicide},
	{Term: "quitarme la vida", Weight: 10, Category: models.CategorySuicide},
	{Term: "matarme", Weight: 10, Category: models.CategorySuicide},
	{Term: "acabar con todo", Weight: 9, Category: models.CategorySuicide},
	{Term: "no quiero vivir", Weight: 9, Category: models.CategorySuicide},
	{Term: "mejor muerto", Weight: 9, Category: models.CategorySuicide},
	{Term: "cortarme", Weight: 9, Category: models.CategorySelfHarm},
	{Term: "autolesión", Weight: 9, Category: models.CategorySelfHarm},
	{Term: "lastimarme", Weight: 8, Category: models.CategorySelfHarm},
	{Term: "hacerme daño", Weight: 8, Category: models.CategorySelfHarm},
	{Term: "no hay salida", Weight: 8, Category: models.CategoryDepression},
	{Term: "no tiene sentido", Weight: 8, Category: models.CategoryDepression},
	{Term: "todo está perdido", Weight: 8, Category: models.CategoryDepression},
	{Term: "no puedo más", Weight: 8, Category: models.CategoryDepression},
}

// mediumRiskTerms cover sustained distress that warrants attention
// but not automatic escalation.
var mediumRiskTerms = []Entry{
	{Term: "deprimido", Weight: 7, Category: models.CategoryDepression},
	{Term: "depresión", Weight: 7, Category: models.CategoryDepression},
	{Term: "desesperado", Weight: 7, Category: models.CategoryDepression},
	{Term: "sin esperanza", Weight: 7, Category: models.CategoryDepression},
	{Term: "tristeza profunda", Weight: 6, Category: models.CategoryDepression},
	{Term: "vacío", Weight: 6, Category: models.CategoryDepression},
	{Term: "aislado", Weight: 6, Category: models.CategoryDepression},
	{Term: "solo", Weight: 5, Category: models.CategoryDepression},
	{Term: "pánico", Weight: 7, Category: models.CategoryAnxiety},
	{Term: "ataque de ansiedad", Weight: 7, Category: models.CategoryAnxiety},
	{Term: "angustia", Weight: 6, Category: models.CategoryAnxiety},
	{Term: "miedo constante", Weight: 6, Category: models.CategoryAnxiety},
	{Term: "terror", Weight: 6, Category: models.CategoryAnxiety},
	{Term: "desertar", Weight: 7, Category: models.CategoryAcademic},
	{Term: "dejar la carrera", Weight: 6, Category: models.CategoryAcademic},
	{Term: "abandonar estudios", Weight: 6, Category: models.CategoryAcademic},
	{Term: "no puedo seguir estudiando", Weight: 6, Category: models.CategoryAcademic},
	{Term: "abuso", Weight: 7, Category: models.CategoryFamily},
	{Term: "violencia familiar", Weight: 7, Category: models.CategoryFamily},
	{Term: "maltrato", Weight: 7, Category: models.CategoryFamily},
}

// lowRiskTerms are everyday stressors. They matter mostly in
// accumulation and for trend tracking.
var lowRiskTerms = []Entry{
	{Term: "estresado", Weight: 4, Category: models.CategoryStress},
	{Term: "estrés", Weight: 4, Category: models.CategoryStress},
	{Term: "agobiado", Weight: 4, Category: models.CategoryStress},
	{Term: "agotado", Weight: 4, Category: models.CategoryStress},
	{Term: "cansado", Weight: 3, Category: models.CategoryStress},
	{Term: "ansioso", Weight: 4, Category: models.CategoryAnxiety},
	{Term: "nervioso", Weight: 3, Category: models.CategoryAnxiety},
	{Term: "preocupado", Weight: 3, Category: models.CategoryAnxiety},
	{Term: "intranquilo", Weight: 3, Category: models.CategoryAnxiety},
	{Term: "reprobar", Weight: 4, Category: models.CategoryAcademic},
	{Term: "suspender", Weight: 4, Category: models.CategoryAcademic},
	{Term: "bajo rendimiento", Weight: 4, Category: models.CategoryAcademic},
	{Term: "dificultad para estudiar", Weight: 3, Category: models.CategoryAcademic},
	{Term: "no entiendo", Weight: 2, Category: models.CategoryAcademic},
	{Term: "deuda", Weight: 4, Category: models.CategoryEconomic},
	{Term: "dinero", Weight: 3, Category: models.CategoryEconomic},
	{Term: "económico", Weight: 3, Category: models.CategoryEconomic},
	{Term: "pagar", Weight: 2, Category: models.CategoryEconomic},
	{Term: "conflicto familiar", Weight: 4, Category: models.CategoryFamily},
	{Term: "problemas en casa", Weight: 3, Category: models.CategoryFamily},
	{Term: "familia", Weight: 2, Category: models.CategoryFamily},
	{Term: "padres", Weight: 2, Category: models.CategoryFamily},
}

// AllEntries returns the full lexicon, high tier first
func AllEntries() []Entry {
	out := make([]Entry, 0, len(highRiskTerms)+len(mediumRiskTerms)+len(lowRiskTerms))
	out = append(out, highRiskTerms...)
	out = append(out, mediumRiskTerms...)
	out = append(out, lowRiskTerms...)
	return out
}
