package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type HealthHandler struct {
	checker ports.HealthChecker
	backend string
}

func NewHealthHandler(checker ports.HealthChecker, backend string) *HealthHandler {
	return &HealthHandler{checker: checker, backend: backend}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// Readiness pings the store.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := h.checker.Ping(ctx)
	elapsed := time.Since(start)

	body := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database": map[string]string{
			"backend": h.backend,
			"ping":    elapsed.String(),
		},
	}
	if err != nil {
		body["status"] = "error"
		body["error"] = "Database connection failed"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ok"
	writeJSON(w, http.StatusOK, body)
}
