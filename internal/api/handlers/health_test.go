package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crea-bienestar/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(_ context.Context) error { return f.err }

func TestReadyWithHealthyDatabase(t *testing.T) {
	h := NewHealthHandler(nil, fakePinger{}, logger.NewDefault())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Checks["postgres"] != "healthy" {
		t.Errorf("postgres check = %q, want healthy", resp.Checks["postgres"])
	}
}

func TestReadyReportsDatabaseDown(t *testing.T) {
	h := NewHealthHandler(nil, fakePinger{err: errors.New("connection refused")}, logger.NewDefault())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "not ready" {
		t.Errorf("status = %q, want not ready", resp.Status)
	}
	if !strings.HasPrefix(resp.Checks["postgres"], "unhealthy") {
		t.Errorf("postgres check = %q, want unhealthy", resp.Checks["postgres"])
	}
}
