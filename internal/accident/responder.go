// Package accident owns the hospital directory, the ambulance fleet and
// collision detection.
package accident

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/geo"
	"github.com/medipulse/medipulse/internal/models"
)

// AgentName identifies this component in agent responses.
const AgentName = "AccidentResponder"

// DefaultDetectionBuffer is the capacity of the detection channel.
const DefaultDetectionBuffer = 16

// Options configures a Responder. Zero values select the defaults.
type Options struct {
	Hospitals       []models.Hospital
	Ambulances      []models.Ambulance
	DetectionBuffer int
	Advisor         *completion.Advisor
	Logger          *slog.Logger
	Now             func() time.Time
}

// Responder answers hospital and dispatch queries and turns acceleration
// samples into collision events.
type Responder struct {
	mu         sync.Mutex
	hospitals  []models.Hospital
	ambulances []models.Ambulance

	monitoring   bool
	location     models.Coordinate
	sensor       models.SensorSnapshot
	lastDetected *models.EmergencyEvent
	detections   chan models.EmergencyEvent

	advisor *completion.Advisor
	logger  *slog.Logger
	now     func() time.Time
}

// NewResponder builds a responder seeded from opts, or from the built-in
// directory and fleet when they are empty.
func NewResponder(opts Options) *Responder {
	hospitals := opts.Hospitals
	if len(hospitals) == 0 {
		hospitals = SeedHospitals()
	}
	ambulances := opts.Ambulances
	if len(ambulances) == 0 {
		ambulances = SeedAmbulances()
	}
	buffer := opts.DetectionBuffer
	if buffer <= 0 {
		buffer = DefaultDetectionBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Responder{
		hospitals:  append([]models.Hospital(nil), hospitals...),
		ambulances: append([]models.Ambulance(nil), ambulances...),
		location:   DefaultLocation,
		detections: make(chan models.EmergencyEvent, buffer),
		advisor:    opts.Advisor,
		logger:     logger,
		now:        now,
	}
}

// Hospitals returns a copy of the full directory.
func (r *Responder) Hospitals() []models.Hospital {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Hospital(nil), r.hospitals...)
}

// Ambulances returns a copy of the whole fleet.
func (r *Responder) Ambulances() []models.Ambulance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Ambulance(nil), r.ambulances...)
}

// AvailableAmbulances returns the vehicles not yet dispatched.
func (r *Responder) AvailableAmbulances() []models.Ambulance {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Ambulance
	for _, a := range r.ambulances {
		if a.Available {
			out = append(out, a)
		}
	}
	return out
}

// FindNearestHospitals returns up to limit hospitals ordered by distance from
// from. Distance and travel time are set on the returned copies only.
func (r *Responder) FindNearestHospitals(from models.Coordinate, limit int) []models.Hospital {
	hospitals := r.Hospitals()
	for i := range hospitals {
		d := geo.DistanceKm(from, hospitals[i].Location)
		hospitals[i].Distance = d
		hospitals[i].EstimatedMinutes = geo.TravelMinutes(d)
	}
	sort.SliceStable(hospitals, func(i, j int) bool {
		return hospitals[i].Distance < hospitals[j].Distance
	})

	if limit < 0 {
		limit = 0
	}
	if limit < len(hospitals) {
		hospitals = hospitals[:limit]
	}
	return hospitals
}

// ReportAccident synthesizes a user-reported accident at HIGH priority.
func (r *Responder) ReportAccident(location models.Coordinate, description string) models.AgentResponse {
	now := r.now()
	event := models.NewEmergencyEvent(models.EmergencyTypeAccident, models.PriorityHigh, location, description, now)

	r.logger.Info("Accident reported",
		"emergency_id", event.ID,
		"address", location.Address)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   "Accident reported successfully",
		Data:      models.EventPayload{Event: event},
		Timestamp: now,
	}
}

// DispatchAmbulance assigns the available ambulance of hospital nearest to
// the event. The ambulance stays unavailable for the life of the process.
func (r *Responder) DispatchAmbulance(ctx context.Context, event models.EmergencyEvent, hospital models.Hospital) (resp models.AgentResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Dispatch panicked", "emergency_id", event.ID, "panic", rec)
			resp = r.failure(fmt.Sprintf("Failed to dispatch ambulance: %v", rec))
		}
	}()

	ambulance, ok := r.claimAmbulance(hospital.ID, event.Location)
	if !ok {
		r.logger.Warn("No ambulance available",
			"emergency_id", event.ID,
			"hospital_id", hospital.ID)
		return r.failure("No available ambulances at the moment")
	}

	distance := geo.DistanceKm(ambulance.Location, event.Location)
	eta := geo.TravelMinutes(distance)
	instructions := r.advisor.AdviseOr(ctx, completion.OpDispatch,
		completion.DispatchPrompt(event, ambulance, hospital), "")

	result := models.DispatchResult{
		EmergencyID: event.ID,
		Ambulance:   ambulance,
		Hospital:    hospital,
		Route: models.Route{
			Origin:       ambulance.Location,
			Destination:  event.Location,
			Distance:     distance,
			Duration:     eta,
			TrafficLevel: models.TrafficModerate,
		},
		EstimatedArrival: eta,
		Instructions:     instructions,
	}

	r.logger.Info("Ambulance dispatched",
		"emergency_id", event.ID,
		"ambulance_id", ambulance.ID,
		"vehicle", ambulance.VehicleNumber,
		"hospital_id", hospital.ID,
		"eta_minutes", eta)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Ambulance dispatched successfully. ETA: %d minutes", eta),
		Data:      models.DispatchPayload{Dispatch: result},
		Timestamp: r.now(),
	}
}

// claimAmbulance marks the nearest available ambulance of hospitalID as
// dispatched and returns its updated copy.
func (r *Responder) claimAmbulance(hospitalID string, to models.Coordinate) (models.Ambulance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := -1
	bestDistance := 0.0
	for i, a := range r.ambulances {
		if !a.Available || a.AssignedHospital != hospitalID {
			continue
		}
		d := geo.DistanceKm(a.Location, to)
		if best < 0 || d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return models.Ambulance{}, false
	}

	r.ambulances[best].Available = false
	return r.ambulances[best], true
}

func (r *Responder) failure(message string) models.AgentResponse {
	return models.AgentResponse{
		AgentName: AgentName,
		Success:   false,
		Message:   message,
		Timestamp: r.now(),
	}
}
