package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services"
	"crea-bienestar/pkg/logger"
)

type memAlertStore struct {
	alerts []*models.Alert
}

func (s *memAlertStore) Create(_ context.Context, a *models.Alert) (*models.Alert, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.AlertPending
	}
	s.alerts = append(s.alerts, a)
	return a, nil
}

func (s *memAlertStore) GetByID(_ context.Context, id uuid.UUID) (*models.Alert, error) {
	for _, a := range s.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (s *memAlertStore) List(_ context.Context, filter models.AlertFilter, _, _ int) ([]*models.Alert, error) {
	var out []*models.Alert
	for _, a := range s.alerts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Level != "" && a.Level != filter.Level {
			continue
		}
		if filter.Unassigned && a.AssignedTo != nil {
			continue
		}
		if filter.AssignedTo != nil && (a.AssignedTo == nil || *a.AssignedTo != *filter.AssignedTo) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memAlertStore) ListByStudent(_ context.Context, studentID uuid.UUID, _, _ int) ([]*models.Alert, error) {
	var out []*models.Alert
	for _, a := range s.alerts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAlertStore) ActiveExistsForStudent(_ context.Context, studentID uuid.UUID) (bool, error) {
	for _, a := range s.alerts {
		if a.StudentID == studentID && a.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memAlertStore) Assign(_ context.Context, id, counselorID uuid.UUID) error {
	for _, a := range s.alerts {
		if a.ID == id {
			a.AssignedTo = &counselorID
			if a.Status == models.AlertPending {
				a.Status = models.AlertInProgress
			}
		}
	}
	return nil
}

func (s *memAlertStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.AlertStatus, notes string) error {
	for _, a := range s.alerts {
		if a.ID == id {
			a.Status = status
			if notes != "" {
				a.InterventionNotes = notes
			}
		}
	}
	return nil
}

func (s *memAlertStore) Stats(_ context.Context) (*models.AlertStats, error) {
	stats := &models.AlertStats{
		ByStatus:  make(map[models.AlertStatus]int),
		ByLevel:   make(map[models.RiskLevel]int),
		ByProblem: make(map[models.ProblemType]int),
	}
	for _, a := range s.alerts {
		stats.Total++
		stats.ByStatus[a.Status]++
		stats.ByLevel[a.Level]++
		stats.ByProblem[a.ProblemType]++
		if a.Status.IsActive() {
			stats.ActiveNow++
		}
	}
	return stats, nil
}

type emptyExcerptSource struct{}

func (emptyExcerptSource) RecentStudentContents(_ context.Context, _ uuid.UUID, _ int) ([]string, error) {
	return nil, nil
}

func newAlertsTestRouter(store *memAlertStore) http.Handler {
	log := logger.NewDefault()
	svc := services.NewAlertService(config.ChatConfig{ExcerptMaxRunes: 500}, store, emptyExcerptSource{}, nil, log)
	h := NewAlertsHandler(svc, log)

	r := chi.NewRouter()
	r.Route("/api/v1/alerts", func(alerts chi.Router) {
		alerts.Get("/", h.List)
		alerts.Get("/stats", h.Stats)
		alerts.Get("/{id}", h.Get)
		alerts.Post("/{id}/assign", h.Assign)
		alerts.Post("/{id}/status", h.UpdateStatus)
	})
	return r
}

func seededAlert(studentID uuid.UUID) *models.Alert {
	return &models.Alert{
		ID:             uuid.New(),
		StudentID:      studentID,
		ConversationID: uuid.New(),
		Status:         models.AlertPending,
		Level:          models.RiskHigh,
		Score:          72,
		ProblemType:    models.ProblemEmotional,
	}
}

func TestListAlertsEndpoint(t *testing.T) {
	store := &memAlertStore{}
	store.alerts = append(store.alerts, seededAlert(uuid.New()), seededAlert(uuid.New()))
	store.alerts[1].Status = models.AlertResolved

	router := newAlertsTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?status=pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Alert `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("len(data) = %d, want 1", len(resp.Data))
	}
}

func TestListAlertsFilters(t *testing.T) {
	counselorID := uuid.New()
	store := &memAlertStore{}
	assigned := seededAlert(uuid.New())
	assigned.AssignedTo = &counselorID
	critical := seededAlert(uuid.New())
	critical.Level = models.RiskCritical
	store.alerts = append(store.alerts, assigned, critical)

	router := newAlertsTestRouter(store)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"by level", "?level=CRITICAL", 1},
		{"unassigned", "?assigned_to=none", 1},
		{"by counselor", "?assigned_to=" + counselorID.String(), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts"+tc.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			var resp struct {
				Data []*models.Alert `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response body: %v", err)
			}
			if len(resp.Data) != tc.want {
				t.Errorf("len(data) = %d, want %d", len(resp.Data), tc.want)
			}
		})
	}
}

func TestListAlertsByStudent(t *testing.T) {
	studentID := uuid.New()
	store := &memAlertStore{}
	store.alerts = append(store.alerts, seededAlert(studentID), seededAlert(uuid.New()))

	router := newAlertsTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?student_id="+studentID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*models.Alert `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].StudentID != studentID {
		t.Errorf("expected exactly the student's alert, got %d", len(resp.Data))
	}
}

func TestGetAlertNotFound(t *testing.T) {
	router := newAlertsTestRouter(&memAlertStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAssignAlertEndpoint(t *testing.T) {
	store := &memAlertStore{}
	alert := seededAlert(uuid.New())
	store.alerts = append(store.alerts, alert)

	router := newAlertsTestRouter(store)

	body, _ := json.Marshal(AssignRequest{CounselorID: uuid.New()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alert.ID.String()+"/assign", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if alert.Status != models.AlertInProgress {
		t.Errorf("Status = %s, want %s", alert.Status, models.AlertInProgress)
	}
}

func TestUpdateAlertStatusEndpoint(t *testing.T) {
	store := &memAlertStore{}
	alert := seededAlert(uuid.New())
	store.alerts = append(store.alerts, alert)

	router := newAlertsTestRouter(store)

	body, _ := json.Marshal(UpdateStatusRequest{Status: models.AlertResolved, Notes: "derivado a psicología"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alert.ID.String()+"/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if alert.Status != models.AlertResolved {
		t.Errorf("Status = %s, want %s", alert.Status, models.AlertResolved)
	}
	if alert.InterventionNotes == "" {
		t.Error("intervention notes not recorded")
	}
}

func TestUpdateAlertStatusRejectsUnknown(t *testing.T) {
	store := &memAlertStore{}
	alert := seededAlert(uuid.New())
	store.alerts = append(store.alerts, alert)

	router := newAlertsTestRouter(store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alert.ID.String()+"/status", bytes.NewReader([]byte(`{"status":"archived"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAlertStatsEndpoint(t *testing.T) {
	store := &memAlertStore{}
	store.alerts = append(store.alerts, seededAlert(uuid.New()), seededAlert(uuid.New()))

	router := newAlertsTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var stats models.AlertStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if stats.Total != 2 || stats.ActiveNow != 2 {
		t.Errorf("stats = %+v, want total 2 active 2", stats)
	}
}
