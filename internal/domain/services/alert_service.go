package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services/risk"
	"crea-bienestar/internal/infrastructure/cache"
	"crea-bienestar/pkg/logger"
)

const (
	excerptMessageCount = 5
	statsCacheTTL       = time.Minute
)

// ErrInvalidAlertStatus is returned for status values outside the
// alert lifecycle
var ErrInvalidAlertStatus = errors.New("invalid alert status")

// AlertStore is the persistence surface the alert service needs
type AlertStore interface {
	Create(ctx context.Context, a *models.Alert) (*models.Alert, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*models.Alert, error)
	ActiveExistsForStudent(ctx context.Context, studentID uuid.UUID) (bool, error)
	Assign(ctx context.Context, id, counselorID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus, notes string) error
	Stats(ctx context.Context) (*models.AlertStats, error)
}

// ExcerptSource provides the recent student messages summarized into
// an alert
type ExcerptSource interface {
	RecentStudentContents(ctx context.Context, conversationID uuid.UUID, n int) ([]string, error)
}

// AlertService manages the escalation lifecycle: creation from risk
// analyses, assignment, intervention tracking and queue stats.
type AlertService struct {
	cfg      config.ChatConfig
	alerts   AlertStore
	excerpts ExcerptSource
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewAlertService creates the alert service
func NewAlertService(cfg config.ChatConfig, alerts AlertStore, excerpts ExcerptSource, redis *cache.RedisCache, log *logger.Logger) *AlertService {
	return &AlertService{
		cfg:      cfg,
		alerts:   alerts,
		excerpts: excerpts,
		cache:    redis,
		logger:   log.WithComponent("alert-service"),
	}
}

// EscalateIfNeeded applies the escalation policy to a fresh analysis
// and creates an alert when it fires. Returns nil when no alert is
// warranted.
func (s *AlertService) EscalateIfNeeded(ctx context.Context, conv *models.Conversation, analysis *models.RiskAnalysis) (*models.Alert, error) {
	activeExists, err := s.alerts.ActiveExistsForStudent(ctx, conv.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active alerts: %w", err)
	}

	if !risk.ShouldEscalate(analysis, activeExists) {
		return nil, nil
	}

	excerpt := ""
	if s.excerpts != nil {
		recent, err := s.excerpts.RecentStudentContents(ctx, conv.ID, excerptMessageCount)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to build conversation excerpt")
		} else {
			excerpt = buildExcerpt(recent, s.cfg.ExcerptMaxRunes)
		}
	}

	alert, err := s.alerts.Create(ctx, &models.Alert{
		StudentID:           conv.StudentID,
		ConversationID:      conv.ID,
		Status:              models.AlertPending,
		Level:               analysis.Level,
		Score:               analysis.Score,
		ProblemType:         problemTypeFor(analysis),
		ConversationExcerpt: excerpt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.invalidateStats(ctx)

	s.logger.Info().
		Str("alert_id", alert.ID.String()).
		Str("student_id", conv.StudentID.String()).
		Str("level", string(alert.Level)).
		Int("score", alert.Score).
		Msg("Alert created")

	return alert, nil
}

// Get returns one alert, nil when it does not exist
func (s *AlertService) Get(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

// List returns alerts narrowed by the filter, newest first
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error) {
	return s.alerts.List(ctx, filter, limit, offset)
}

// ListByStudent returns a student's alerts, newest first
func (s *AlertService) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*models.Alert, error) {
	return s.alerts.ListByStudent(ctx, studentID, limit, offset)
}

// Assign hands an alert to a counselor
func (s *AlertService) Assign(ctx context.Context, id, counselorID uuid.UUID) error {
	if err := s.alerts.Assign(ctx, id, counselorID); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// UpdateStatus transitions an alert, recording intervention notes
func (s *AlertService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus, notes string) error {
	switch status {
	case models.AlertPending, models.AlertInProgress, models.AlertResolved, models.AlertClosed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAlertStatus, status)
	}

	if err := s.alerts.UpdateStatus(ctx, id, status, notes); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// Stats returns the dashboard aggregate, served from cache when fresh
func (s *AlertService) Stats(ctx context.Context) (*models.AlertStats, error) {
	if s.cache != nil {
		var cached models.AlertStats
		if err := s.cache.GetJSON(ctx, cache.KeyAlertStats, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.alerts.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.KeyAlertStats, stats, statsCacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache alert stats")
		}
	}
	return stats, nil
}

func (s *AlertService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.KeyAlertStats); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}

// problemTypeFor maps the strongest matched category into the
// counselor taxonomy; a message with no lexicon match escalated on
// score alone is treated as emotional.
func problemTypeFor(analysis *models.RiskAnalysis) models.ProblemType {
	if len(analysis.Matches) == 0 {
		return models.ProblemEmotional
	}
	return models.ProblemTypeForCategory(analysis.Matches[0].Category)
}

// buildExcerpt joins recent student messages into a bounded summary
func buildExcerpt(messages []string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 500
	}
	joined := strings.Join(messages, " | ")
	runes := []rune(joined)
	if len(runes) <= maxRunes {
		return joined
	}
	return string(runes[:maxRunes-3]) + "..."
}
