package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(path, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker()
	rec := get(t, h.LivenessHandler(), "/healthz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("status = %q, want %q", resp.Status, healthStatusOK)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		batches    []error
		wantStatus int
		wantReady  bool
	}{
		{"before first batch", nil, http.StatusServiceUnavailable, false},
		{"after success", []error{nil}, http.StatusOK, true},
		{"after failure", []error{nil, errors.New("gmail unreachable")}, http.StatusServiceUnavailable, false},
		{"recovered", []error{errors.New("gmail unreachable"), nil}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			for _, err := range tt.batches {
				h.RecordBatch(err)
			}

			if h.IsReady() != tt.wantReady {
				t.Errorf("IsReady() = %v, want %v", h.IsReady(), tt.wantReady)
			}
			rec := get(t, h.ReadinessHandler(), "/readyz")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	h := NewHealthChecker()
	h.startTime = start
	h.now = func() time.Time { return now }

	now = now.Add(90 * time.Second)
	h.RecordBatch(errors.New("failed to list messages"))

	rec := get(t, h.DetailedHealthHandler(), "/healthz/detailed")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var resp DetailedHealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthStatusFailing {
		t.Errorf("status = %q, want %q", resp.Status, healthStatusFailing)
	}
	if resp.Uptime != "1m30s" {
		t.Errorf("uptime = %q, want 1m30s", resp.Uptime)
	}
	if resp.Batches != 1 {
		t.Errorf("batches = %d, want 1", resp.Batches)
	}
	if resp.LastRun != "2024-05-01T09:01:30Z" {
		t.Errorf("last_run = %q", resp.LastRun)
	}
	if resp.LastError != "failed to list messages" {
		t.Errorf("last_error = %q", resp.LastError)
	}
}
