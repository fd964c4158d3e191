package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medipulse/medipulse/internal/models"
)

// heartbeatInterval keeps idle SSE connections open through proxies.
const heartbeatInterval = 30 * time.Second

// startStream sets SSE headers and lifts the server write deadline for the
// lifetime of the connection.
func (h *Handler) startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return nil, false
	}
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return flusher, true
}

func (h *Handler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE payload", "event", event, "error", err)
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Stream handles GET /api/stream, pushing an orchestrator snapshot after
// every change.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := h.startStream(w)
	if !ok {
		return
	}

	snapshots, cancel := h.orch.Subscribe()
	defer cancel()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("Client disconnected from snapshot stream")
			return
		case <-ticker.C:
			if err := h.sendEvent(w, flusher, "heartbeat", map[string]time.Time{"timestamp": h.now()}); err != nil {
				return
			}
		case snap, open := <-snapshots:
			if !open {
				return
			}
			if err := h.sendEvent(w, flusher, "snapshot", snap); err != nil {
				return
			}
		}
	}
}

// MonitorRoute handles GET /api/routes/monitor. The route is computed from
// origin_lat, origin_lng, dest_lat, dest_lng and the optional dest_address
// and priority, then its simulated progress is streamed until arrival or
// disconnect.
func (h *Handler) MonitorRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var coords [4]float64
	for i, field := range []string{"origin_lat", "origin_lng", "dest_lat", "dest_lng"} {
		v, err := parseFloatParam(q.Get(field), field)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		coords[i] = v
	}

	req := RouteRequest{
		Origin:      &models.Coordinate{Latitude: coords[0], Longitude: coords[1]},
		Destination: &models.Coordinate{Latitude: coords[2], Longitude: coords[3], Address: q.Get("dest_address")},
		Priority:    q.Get("priority"),
	}
	priority, err := req.validate()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.routes.ComputeRoute(r.Context(), *req.Origin, *req.Destination, priority)
	payload, ok := resp.Data.(models.RoutePayload)
	if !resp.Success || !ok {
		h.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	flusher, ok := h.startStream(w)
	if !ok {
		return
	}
	if err := h.sendEvent(w, flusher, "route", payload.Route); err != nil {
		return
	}

	for update := range h.routes.MonitorRoute(r.Context(), payload.Route) {
		if err := h.sendEvent(w, flusher, "progress", update); err != nil {
			return
		}
	}
	if r.Context().Err() == nil {
		_ = h.sendEvent(w, flusher, "complete", map[string]int{"progress": 100})
	}
}
