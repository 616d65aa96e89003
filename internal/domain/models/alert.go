package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertStatus tracks an alert through its intervention lifecycle
type AlertStatus string

const (
	AlertPending    AlertStatus = "pending"
	AlertInProgress AlertStatus = "in_progress"
	AlertResolved   AlertStatus = "resolved"
	AlertClosed     AlertStatus = "closed"
)

// IsActive reports whether the alert still needs attention
func (s AlertStatus) IsActive() bool {
	return s == AlertPending || s == AlertInProgress
}

// ProblemType is the intervention taxonomy counselors work with
type ProblemType string

const (
	ProblemEmotional  ProblemType = "emotional"
	ProblemAcademic   ProblemType = "academic"
	ProblemEconomic   ProblemType = "economic"
	ProblemVocational ProblemType = "vocational"
	ProblemFamily     ProblemType = "family"
	ProblemHealth     ProblemType = "health"
)

// ProblemTypeForCategory maps a risk category to the counselor-facing
// problem taxonomy. Everything emotional in nature collapses into
// ProblemEmotional.
func ProblemTypeForCategory(c RiskCategory) ProblemType {
	switch c {
	case CategoryAcademic:
		return ProblemAcademic
	case CategoryEconomic:
		return ProblemEconomic
	case CategoryFamily:
		return ProblemFamily
	default:
		return ProblemEmotional
	}
}

// Alert is an escalation raised for a student conversation
type Alert struct {
	ID                  uuid.UUID   `json:"id" db:"id"`
	StudentID           uuid.UUID   `json:"student_id" db:"student_id"`
	ConversationID      uuid.UUID   `json:"conversation_id" db:"conversation_id"`
	Status              AlertStatus `json:"status" db:"status"`
	Level               RiskLevel   `json:"level" db:"level"`
	Score               int         `json:"score" db:"score"`
	ProblemType         ProblemType `json:"problem_type" db:"problem_type"`
	ConversationExcerpt string      `json:"conversation_excerpt" db:"conversation_excerpt"`
	AssignedTo          *uuid.UUID  `json:"assigned_to,omitempty" db:"assigned_to"`
	InterventionNotes   string      `json:"intervention_notes,omitempty" db:"intervention_notes"`
	InterventionAt      *time.Time  `json:"intervention_at,omitempty" db:"intervention_at"`
	ResolvedAt          *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// AlertFilter narrows alert listings. Zero values mean "any";
// Unassigned wins over AssignedTo.
type AlertFilter struct {
	Status     AlertStatus
	Level      RiskLevel
	AssignedTo *uuid.UUID
	Unassigned bool
}

// AlertStats summarizes the alert queue for dashboards
type AlertStats struct {
	Total      int                 `json:"total"`
	ByStatus   map[AlertStatus]int `json:"by_status"`
	ByLevel    map[RiskLevel]int   `json:"by_level"`
	ByProblem  map[ProblemType]int `json:"by_problem"`
	ActiveNow  int                 `json:"active_now"`
	LastUpdate time.Time           `json:"last_update"`
}
