package api

import (
	"math"
	"net/http"

	"github.com/medipulse/medipulse/internal/models"
)

// AxisSample is one three-axis sensor reading.
type AxisSample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AccelerationResponse reports whether the sample tripped the detector.
type AccelerationResponse struct {
	Collision  bool    `json:"collision"`
	Magnitude  float64 `json:"magnitude"`
	Monitoring bool    `json:"monitoring"`
}

// LocationRequest updates the device location.
type LocationRequest struct {
	Location *models.Coordinate `json:"location"`
}

func (s AxisSample) valid() bool {
	for _, v := range []float64{s.X, s.Y, s.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// PushAcceleration handles POST /api/sensors/acceleration
func (h *Handler) PushAcceleration(w http.ResponseWriter, r *http.Request) {
	var sample AxisSample
	if err := decode(r, &sample); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sample.valid() {
		h.writeError(w, http.StatusBadRequest, ValidationError{Field: "sample", Message: "axes must be finite"}.Error())
		return
	}

	collision := h.accident.OnAcceleration(sample.X, sample.Y, sample.Z)
	h.writeJSON(w, http.StatusOK, AccelerationResponse{
		Collision:  collision,
		Magnitude:  math.Sqrt(sample.X*sample.X + sample.Y*sample.Y + sample.Z*sample.Z),
		Monitoring: h.accident.IsMonitoring(),
	})
}

// PushGyroscope handles POST /api/sensors/gyroscope
func (h *Handler) PushGyroscope(w http.ResponseWriter, r *http.Request) {
	var sample AxisSample
	if err := decode(r, &sample); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sample.valid() {
		h.writeError(w, http.StatusBadRequest, ValidationError{Field: "sample", Message: "axes must be finite"}.Error())
		return
	}

	h.accident.OnAngularRate(sample.X, sample.Y, sample.Z)
	w.WriteHeader(http.StatusNoContent)
}

// PushLocation handles POST /api/sensors/location
func (h *Handler) PushLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateCoordinate("location", req.Location); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.accident.UpdateLocation(*req.Location)
	w.WriteHeader(http.StatusNoContent)
}
