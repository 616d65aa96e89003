package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"crea-bienestar/pkg/logger"
)

func newCaptureLogger(buf *bytes.Buffer) *logger.Logger {
	return &logger.Logger{Logger: zerolog.New(buf)}
}

func TestLoggerAttachesResourceID(t *testing.T) {
	var buf bytes.Buffer
	router := chi.NewRouter()
	router.Use(Logger(newCaptureLogger(&buf)))
	router.Get("/conversations/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/abc-123", nil))

	out := buf.String()
	if !strings.Contains(out, `"resource_id":"abc-123"`) {
		t.Errorf("log line missing resource id: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("log line not at info level: %s", out)
	}
}

func TestLoggerRaisesServerErrors(t *testing.T) {
	var buf bytes.Buffer
	router := chi.NewRouter()
	router.Use(Logger(newCaptureLogger(&buf)))
	router.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("server error not logged at error level: %s", out)
	}
	if !strings.Contains(out, `"status":500`) {
		t.Errorf("status missing from log line: %s", out)
	}
}
