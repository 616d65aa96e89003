package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/infrastructure/database"
)

// AlertRepository handles alert persistence
type AlertRepository struct {
	db database.DBTX
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db database.DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new alert
func (r *AlertRepository) Create(ctx context.Context, a *models.Alert) (*models.Alert, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = models.AlertPending
	}

	query := `
		INSERT INTO alerts (
			id, student_id, conversation_id, status, level, score,
			problem_type, conversation_excerpt, assigned_to,
			intervention_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.StudentID, a.ConversationID, a.Status, a.Level, a.Score,
		a.ProblemType, a.ConversationExcerpt, a.AssignedTo,
		a.InterventionNotes, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	return a, nil
}

// GetByID retrieves an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	query := selectAlert + ` WHERE id = $1`
	return r.scanAlert(r.db.QueryRow(ctx, query, id))
}

// List retrieves alerts, newest first, narrowed by the filter
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.Unassigned {
		conds = append(conds, "assigned_to IS NULL")
	} else if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}

	query := selectAlert
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a, err := r.scanAlertFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByStudent retrieves a student's alerts, newest first
func (r *AlertRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := selectAlert + ` WHERE student_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list student alerts: %w", err)
	}
	defer rows.Close()

	var out []*models.Alert
	for rows.Next() {
		a, err := r.scanAlertFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ActiveExistsForStudent reports whether the student has a pending or
// in-progress alert. The escalation policy relies on this to keep at
// most one active alert per student.
func (r *AlertRepository) ActiveExistsForStudent(ctx context.Context, studentID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE student_id = $1 AND status IN ($2, $3)
		)`

	err := r.db.QueryRow(ctx, query, studentID, models.AlertPending, models.AlertInProgress).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active alerts: %w", err)
	}
	return exists, nil
}

// Assign sets the counselor responsible for the alert and moves it to
// in-progress if still pending
func (r *AlertRepository) Assign(ctx context.Context, id, counselorID uuid.UUID) error {
	query := `
		UPDATE alerts
		SET assigned_to = $2,
			status = CASE WHEN status = $3 THEN $4 ELSE status END,
			updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, counselorID,
		models.AlertPending, models.AlertInProgress, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

// UpdateStatus transitions an alert and records intervention details
func (r *AlertRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus, notes string) error {
	now := time.Now()

	var resolvedAt *time.Time
	if status == models.AlertResolved || status == models.AlertClosed {
		resolvedAt = &now
	}
	var interventionAt *time.Time
	if notes != "" {
		interventionAt = &now
	}

	query := `
		UPDATE alerts
		SET status = $2,
			intervention_notes = CASE WHEN $3 <> '' THEN $3 ELSE intervention_notes END,
			intervention_at = COALESCE($4, intervention_at),
			resolved_at = COALESCE($5, resolved_at),
			updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status, notes, interventionAt, resolvedAt, now)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

// Stats aggregates the alert queue for dashboards
func (r *AlertRepository) Stats(ctx context.Context) (*models.AlertStats, error) {
	stats := &models.AlertStats{
		ByStatus:   make(map[models.AlertStatus]int),
		ByLevel:    make(map[models.RiskLevel]int),
		ByProblem:  make(map[models.ProblemType]int),
		LastUpdate: time.Now(),
	}

	query := `SELECT status, level, problem_type, COUNT(*) FROM alerts GROUP BY status, level, problem_type`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status  models.AlertStatus
			level   models.RiskLevel
			problem models.ProblemType
			count   int
		)
		if err := rows.Scan(&status, &level, &problem, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert stats: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByLevel[level] += count
		stats.ByProblem[problem] += count
		if status.IsActive() {
			stats.ActiveNow += count
		}
	}
	return stats, rows.Err()
}

const selectAlert = `
	SELECT id, student_id, conversation_id, status, level, score,
		   problem_type, conversation_excerpt, assigned_to,
		   COALESCE(intervention_notes, ''), intervention_at, resolved_at,
		   created_at, updated_at
	FROM alerts`

func (r *AlertRepository) scanAlert(row pgx.Row) (*models.Alert, error) {
	a := &models.Alert{}
	err := row.Scan(
		&a.ID, &a.StudentID, &a.ConversationID, &a.Status, &a.Level, &a.Score,
		&a.ProblemType, &a.ConversationExcerpt, &a.AssignedTo,
		&a.InterventionNotes, &a.InterventionAt, &a.ResolvedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}
	return a, nil
}

func (r *AlertRepository) scanAlertFromRows(rows pgx.Rows) (*models.Alert, error) {
	a := &models.Alert{}
	err := rows.Scan(
		&a.ID, &a.StudentID, &a.ConversationID, &a.Status, &a.Level, &a.Score,
		&a.ProblemType, &a.ConversationExcerpt, &a.AssignedTo,
		&a.InterventionNotes, &a.InterventionAt, &a.ResolvedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}
	return a, nil
}
