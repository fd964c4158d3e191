package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/medipulse/medipulse/internal/accident"
	"github.com/medipulse/medipulse/internal/lifesupport"
	"github.com/medipulse/medipulse/internal/models"
	"github.com/medipulse/medipulse/internal/orchestrator"
	"github.com/medipulse/medipulse/internal/route"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// AuditHistory reads the persisted audit mirror.
type AuditHistory interface {
	List(ctx context.Context, limit int, emergencyID string) ([]models.AuditEntry, error)
}

// Handler serves every coordinator endpoint.
type Handler struct {
	orch      *orchestrator.Orchestrator
	accident  *accident.Responder
	life      *lifesupport.Coordinator
	routes    *route.Advisor
	history   AuditHistory
	health    func(context.Context) error
	logger    *slog.Logger
	now       func() time.Time
	startTime time.Time
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LogResponse lists audit lines.
type LogResponse struct {
	Entries []string `json:"entries"`
	Count   int      `json:"count"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Monitoring bool   `json:"monitoring"`
	Database   string `json:"database,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	writeJSON(w, h.logger, status, body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}

// decode reads a JSON body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ValidationError{Field: "body", Message: "request body is required"}
		}
		return ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// writePipeline reports a pipeline outcome. A failed pipeline still returns
// its agent responses so the caller can see which step failed.
func (h *Handler) writePipeline(w http.ResponseWriter, resp models.OrchestratorResponse) {
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, resp)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Monitoring: h.orch.IsMonitoring(),
	}
	if h.health != nil {
		resp.Database = "ok"
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("Database health check failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			h.writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}
