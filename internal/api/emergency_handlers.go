package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/medipulse/medipulse/internal/models"
	"github.com/medipulse/medipulse/internal/orchestrator"
)

// AccidentRequest reports an accident at a location.
type AccidentRequest struct {
	Location    *models.Coordinate `json:"location"`
	Description string             `json:"description"`
}

// BloodEmergencyRequest asks for blood for a patient.
type BloodEmergencyRequest struct {
	BloodType   string             `json:"blood_type"`
	PatientName string             `json:"patient_name"`
	Location    *models.Coordinate `json:"location"`
	Urgency     string             `json:"urgency"`
}

// MaternityEmergencyRequest asks for a maternity ward.
type MaternityEmergencyRequest struct {
	PatientName string             `json:"patient_name"`
	Age         int                `json:"age"`
	Location    *models.Coordinate `json:"location"`
	Description string             `json:"description"`
}

// StatusUpdateRequest moves an emergency along its lifecycle.
type StatusUpdateRequest struct {
	Status models.EmergencyStatus `json:"status"`
}

// EmergenciesResponse lists handled emergencies.
type EmergenciesResponse struct {
	Emergencies []models.EmergencyEvent `json:"emergencies"`
	Count       int                     `json:"count"`
}

// StatusReportResponse carries a status summary.
type StatusReportResponse struct {
	EmergencyID string `json:"emergency_id"`
	Report      string `json:"report"`
}

// MonitoringResponse reports the collision monitor state.
type MonitoringResponse struct {
	Monitoring bool `json:"monitoring"`
}

// ReportAccident handles POST /api/accidents
func (h *Handler) ReportAccident(w http.ResponseWriter, r *http.Request) {
	var req AccidentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateCoordinate("location", req.Location); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writePipeline(w, h.orch.ReportAccident(r.Context(), *req.Location, req.Description))
}

// RequestBlood handles POST /api/emergencies/blood
func (h *Handler) RequestBlood(w http.ResponseWriter, r *http.Request) {
	var req BloodEmergencyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateCoordinate("location", req.Location); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateBloodType(req.BloodType); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	urgency, err := models.ParsePriority(req.Urgency)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ValidationError{Field: "urgency", Message: err.Error()}.Error())
		return
	}

	h.writePipeline(w, h.orch.RequestBloodEmergency(r.Context(), req.BloodType, req.PatientName, *req.Location, urgency))
}

// RequestMaternity handles POST /api/emergencies/maternity
func (h *Handler) RequestMaternity(w http.ResponseWriter, r *http.Request) {
	var req MaternityEmergencyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateCoordinate("location", req.Location); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateAge(req.Age); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writePipeline(w, h.orch.RequestMaternityEmergency(r.Context(), req.PatientName, req.Age, *req.Location, req.Description))
}

// ListEmergencies handles GET /api/emergencies
func (h *Handler) ListEmergencies(w http.ResponseWriter, r *http.Request) {
	emergencies := h.orch.ActiveEmergencies()
	if emergencies == nil {
		emergencies = []models.EmergencyEvent{}
	}
	h.writeJSON(w, http.StatusOK, EmergenciesResponse{Emergencies: emergencies, Count: len(emergencies)})
}

// GetEmergency handles GET /api/emergencies/{id}
func (h *Handler) GetEmergency(w http.ResponseWriter, r *http.Request) {
	event, ok := h.orch.Emergency(r.PathValue("id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Emergency not found")
		return
	}
	h.writeJSON(w, http.StatusOK, event)
}

// UpdateStatus handles PUT /api/emergencies/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req StatusUpdateRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.orch.UpdateEmergencyStatus(r.Context(), id, req.Status)
	switch {
	case err == nil:
	case !req.Status.Valid():
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, orchestrator.ErrEmergencyNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, orchestrator.ErrInvalidTransition):
		h.writeError(w, http.StatusConflict, err.Error())
		return
	default:
		h.logger.Error("Failed to update emergency status", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	event, _ := h.orch.Emergency(id)
	h.writeJSON(w, http.StatusOK, event)
}

// StatusReport handles GET /api/emergencies/{id}/report
func (h *Handler) StatusReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := h.orch.StatusReport(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, report)
		return
	}
	h.writeJSON(w, http.StatusOK, StatusReportResponse{EmergencyID: id, Report: report})
}

// GetLog handles GET /api/log. ?all=true returns the full log.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	var lines []string
	if all {
		for _, entry := range h.orch.FullLog() {
			lines = append(lines, entry.Line())
		}
	} else {
		lines = h.orch.RecentLog()
	}
	if lines == nil {
		lines = []string{}
	}
	h.writeJSON(w, http.StatusOK, LogResponse{Entries: lines, Count: len(lines)})
}

// GetLogHistory handles GET /api/log/history, reading the persisted mirror.
func (h *Handler) GetLogHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, http.StatusNotFound, "Audit history is not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, ValidationError{Field: "limit", Message: "must be a non-negative integer"}.Error())
			return
		}
		limit = parsed
	}

	entries, err := h.history.List(r.Context(), limit, r.URL.Query().Get("emergency_id"))
	if err != nil {
		h.logger.Error("Failed to list audit history", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// ClearLog handles DELETE /api/log
func (h *Handler) ClearLog(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.ClearLog(r.Context()); err != nil {
		h.logger.Warn("Audit mirror clear failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartMonitoring handles POST /api/monitoring/start
func (h *Handler) StartMonitoring(w http.ResponseWriter, r *http.Request) {
	h.orch.StartAccidentMonitoring(r.Context())
	h.writeJSON(w, http.StatusOK, MonitoringResponse{Monitoring: h.orch.IsMonitoring()})
}

// StopMonitoring handles POST /api/monitoring/stop
func (h *Handler) StopMonitoring(w http.ResponseWriter, r *http.Request) {
	h.orch.StopAccidentMonitoring(r.Context())
	h.writeJSON(w, http.StatusOK, MonitoringResponse{Monitoring: h.orch.IsMonitoring()})
}
