package api

import (
	"net/http"

	"github.com/medipulse/medipulse/internal/models"
	"github.com/medipulse/medipulse/internal/route"
)

// RouteRequest asks for a route between two points.
type RouteRequest struct {
	Origin      *models.Coordinate `json:"origin"`
	Destination *models.Coordinate `json:"destination"`
	Priority    string             `json:"priority"`
}

// TrafficIncidentRequest reports an incident near an address.
type TrafficIncidentRequest struct {
	Location     *models.Coordinate `json:"location"`
	IncidentType string             `json:"incident_type"`
	Severity     string             `json:"severity"`
}

// TrafficPrediction is the forecast level for an area at an hour.
type TrafficPrediction struct {
	Area  string              `json:"area"`
	Hour  int                 `json:"hour"`
	Level models.TrafficLevel `json:"level"`
}

func (req RouteRequest) validate() (models.Priority, error) {
	if err := ValidateCoordinate("origin", req.Origin); err != nil {
		return "", err
	}
	if err := ValidateCoordinate("destination", req.Destination); err != nil {
		return "", err
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		return "", ValidationError{Field: "priority", Message: err.Error()}
	}
	return priority, nil
}

// agentStatus maps a sub-agent outcome to an HTTP status.
func agentStatus(resp models.AgentResponse) int {
	if resp.Success {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

// ComputeRoute handles POST /api/routes
func (h *Handler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	priority, err := req.validate()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.routes.ComputeRoute(r.Context(), *req.Origin, *req.Destination, priority)
	h.writeJSON(w, agentStatus(resp), resp)
}

// AlternativeRoutes handles POST /api/routes/alternatives
func (h *Handler) AlternativeRoutes(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	priority, err := req.validate()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.routes.AlternativeRoutes(*req.Origin, *req.Destination, priority)
	h.writeJSON(w, agentStatus(resp), resp)
}

// TrafficConditions handles GET /api/traffic
func (h *Handler) TrafficConditions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.routes.TrafficConditions())
}

// ReportTrafficIncident handles POST /api/traffic/incidents
func (h *Handler) ReportTrafficIncident(w http.ResponseWriter, r *http.Request) {
	var req TrafficIncidentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateCoordinate("location", req.Location); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.routes.ReportTrafficIncident(*req.Location, req.IncidentType, req.Severity)
	h.writeJSON(w, agentStatus(resp), resp)
}

// PredictTraffic handles GET /api/traffic/predict?area=&hour=
func (h *Handler) PredictTraffic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	area, ok := route.ResolveArea(q.Get("area"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Unknown area")
		return
	}
	hour, err := parseHour(q.Get("hour"), h.now().Hour())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, TrafficPrediction{
		Area:  area,
		Hour:  hour,
		Level: route.PredictTraffic(area, hour),
	})
}
