package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Health status constants for health check responses.
const (
	healthStatusOK       = "ok"
	healthStatusNotReady = "not ready"
	healthStatusFailing  = "failing"
)

// HealthChecker tracks the outcome of watch batches for the health endpoints.
// The process is ready once a batch has completed; a batch that aborts (for
// example because Gmail could not be reached) marks it as failing until the
// next batch succeeds.
type HealthChecker struct {
	startTime time.Time
	now       func() time.Time

	mu        sync.RWMutex
	batches   int
	lastRun   time.Time
	lastError string
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// RecordBatch records the outcome of one batch. err is nil on success.
func (h *HealthChecker) RecordBatch(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches++
	h.lastRun = h.now()
	if err != nil {
		h.lastError = err.Error()
	} else {
		h.lastError = ""
	}
}

// IsReady returns whether at least one batch ran and the last one succeeded.
func (h *HealthChecker) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.batches > 0 && h.lastError == ""
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Batches   int    `json:"batches"`
	LastRun   string `json:"last_run,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
// It only reports that the process is running.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h.mu.RLock()
		batches, lastError := h.batches, h.lastError
		h.mu.RUnlock()

		checks := make(map[string]string)
		status := http.StatusOK

		if batches == 0 {
			checks["first_batch"] = healthStatusNotReady
			status = http.StatusServiceUnavailable
		} else {
			checks["first_batch"] = healthStatusOK
		}
		if lastError != "" {
			checks["last_batch"] = healthStatusFailing
			status = http.StatusServiceUnavailable
		} else {
			checks["last_batch"] = healthStatusOK
		}

		response := HealthResponse{Status: healthStatusOK, Checks: checks}
		if status != http.StatusOK {
			response.Status = healthStatusNotReady
		}
		writeJSON(w, status, response)
	})
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		h.mu.RLock()
		response := DetailedHealthResponse{
			Status:    healthStatusOK,
			Uptime:    h.now().Sub(h.startTime).Truncate(time.Second).String(),
			Batches:   h.batches,
			LastError: h.lastError,
		}
		if !h.lastRun.IsZero() {
			response.LastRun = h.lastRun.UTC().Format(time.RFC3339)
		}
		h.mu.RUnlock()

		status := http.StatusOK
		switch {
		case response.Batches == 0:
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		case response.LastError != "":
			response.Status = healthStatusFailing
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
