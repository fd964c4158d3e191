package accident

import (
	"fmt"
	"math"

	"github.com/medipulse/medipulse/internal/models"
)

// CollisionThreshold is the acceleration magnitude, in m/s², above which a
// sample counts as a collision.
const CollisionThreshold = 30.0

// DefaultLocation is reported for detections until UpdateLocation is called.
var DefaultLocation = models.Coordinate{Latitude: 17.4065, Longitude: 78.4772, Address: "Current Location"}

// StartMonitoring enables collision detection.
func (r *Responder) StartMonitoring() {
	r.mu.Lock()
	r.monitoring = true
	r.mu.Unlock()
	r.logger.Info("Accident monitoring started")
}

// StopMonitoring disables collision detection. Samples received while
// stopped are ignored.
func (r *Responder) StopMonitoring() {
	r.mu.Lock()
	r.monitoring = false
	r.mu.Unlock()
	r.logger.Info("Accident monitoring stopped")
}

// IsMonitoring reports whether collision detection is enabled.
func (r *Responder) IsMonitoring() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitoring
}

// UpdateLocation sets the position attached to subsequent detections.
func (r *Responder) UpdateLocation(location models.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = location
}

// Detections delivers every collision detected while monitoring.
func (r *Responder) Detections() <-chan models.EmergencyEvent {
	return r.detections
}

// LastDetection returns the most recent collision event, if any.
func (r *Responder) LastDetection() (models.EmergencyEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastDetected == nil {
		return models.EmergencyEvent{}, false
	}
	return *r.lastDetected, true
}

// OnAngularRate records a gyroscope sample. It never triggers detection.
func (r *Responder) OnAngularRate(x, y, z float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.monitoring {
		return
	}
	r.sensor.AngularRateX, r.sensor.AngularRateY, r.sensor.AngularRateZ = x, y, z
}

// OnAcceleration records an accelerometer sample and publishes a CRITICAL
// accident when its magnitude exceeds CollisionThreshold. It reports whether
// a collision was published.
func (r *Responder) OnAcceleration(x, y, z float64) bool {
	r.mu.Lock()
	if !r.monitoring {
		r.mu.Unlock()
		return false
	}

	r.sensor.AccelerationX, r.sensor.AccelerationY, r.sensor.AccelerationZ = x, y, z
	magnitude := math.Sqrt(x*x + y*y + z*z)
	if magnitude <= CollisionThreshold {
		r.mu.Unlock()
		return false
	}

	snapshot := r.sensor
	snapshot.ImpactForce = magnitude
	snapshot.Collision = true

	event := models.NewEmergencyEvent(
		models.EmergencyTypeAccident,
		models.PriorityCritical,
		r.location,
		fmt.Sprintf("Severe collision detected. Impact force: %.2f m/s²", magnitude),
		r.now(),
	)
	event.Sensor = &snapshot
	r.lastDetected = &event
	r.mu.Unlock()

	select {
	case r.detections <- event:
		r.logger.Warn("Collision detected",
			"emergency_id", event.ID,
			"impact_force", magnitude)
		return true
	default:
		r.logger.Warn("Detection buffer full, dropping collision",
			"emergency_id", event.ID,
			"impact_force", magnitude)
		return false
	}
}
