package models

import (
	"fmt"
	"time"
)

// Coordinate is a point on the globe with an optional human-readable label.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// EmergencyType classifies an incoming emergency and selects its pipeline.
type EmergencyType string

const (
	EmergencyTypeAccident  EmergencyType = "ACCIDENT"
	EmergencyTypeBlood     EmergencyType = "BLOOD_EMERGENCY"
	EmergencyTypeMaternity EmergencyType = "MATERNITY"
	EmergencyTypeGeneral   EmergencyType = "GENERAL"
)

// Valid reports whether t is one of the known emergency types.
func (t EmergencyType) Valid() bool {
	switch t {
	case EmergencyTypeAccident, EmergencyTypeBlood, EmergencyTypeMaternity, EmergencyTypeGeneral:
		return true
	}
	return false
}

// Priority is the urgency of an emergency.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// ParsePriority converts a case-sensitive priority label, defaulting to HIGH
// for an empty value.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(raw); p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	case "":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// EmergencyStatus is the lifecycle state of an emergency.
type EmergencyStatus string

const (
	StatusDetected   EmergencyStatus = "DETECTED"
	StatusDispatched EmergencyStatus = "DISPATCHED"
	StatusEnRoute    EmergencyStatus = "EN_ROUTE"
	StatusArrived    EmergencyStatus = "ARRIVED"
	StatusResolved   EmergencyStatus = "RESOLVED"
	StatusCancelled  EmergencyStatus = "CANCELLED"
)

var statusRank = map[EmergencyStatus]int{
	StatusDetected:   0,
	StatusDispatched: 1,
	StatusEnRoute:    2,
	StatusArrived:    3,
	StatusResolved:   4,
}

// Terminal reports whether no further transition is possible from s.
func (s EmergencyStatus) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s EmergencyStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// CanTransition reports whether moving from s to next keeps the lifecycle
// moving forward. Cancellation is allowed from any non-terminal state.
func (s EmergencyStatus) CanTransition(next EmergencyStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// SensorSnapshot captures the motion readings at the moment a collision was detected.
type SensorSnapshot struct {
	AccelerationX float64 `json:"acceleration_x"`
	AccelerationY float64 `json:"acceleration_y"`
	AccelerationZ float64 `json:"acceleration_z"`
	AngularRateX  float64 `json:"angular_rate_x"`
	AngularRateY  float64 `json:"angular_rate_y"`
	AngularRateZ  float64 `json:"angular_rate_z"`
	ImpactForce   float64 `json:"impact_force"`
	Collision     bool    `json:"collision"`
}

// PatientRecord holds whatever is known about the patient. Every field is optional.
type PatientRecord struct {
	Name              string   `json:"name,omitempty"`
	Age               int      `json:"age,omitempty"`
	BloodType         string   `json:"blood_type,omitempty"`
	MedicalConditions []string `json:"medical_conditions,omitempty"`
	EmergencyContact  string   `json:"emergency_contact,omitempty"`
}

// DisplayName returns the patient name or "Unknown".
func (p *PatientRecord) DisplayName() string {
	if p == nil || p.Name == "" {
		return "Unknown"
	}
	return p.Name
}

// EmergencyEvent is a single reported or detected incident.
type EmergencyEvent struct {
	ID          string          `json:"id"`
	Type        EmergencyType   `json:"type"`
	Priority    Priority        `json:"priority"`
	Location    Coordinate      `json:"location"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      EmergencyStatus `json:"status"`
	Description string          `json:"description"`
	Sensor      *SensorSnapshot `json:"sensor,omitempty"`
	Patient     *PatientRecord  `json:"patient,omitempty"`
}

var idPrefixes = map[EmergencyType]string{
	EmergencyTypeAccident:  "ACC",
	EmergencyTypeBlood:     "BLOOD",
	EmergencyTypeMaternity: "MAT",
	EmergencyTypeGeneral:   "GEN",
}

// NewEmergencyEvent creates an event in the DETECTED state with a type-prefixed ID.
func NewEmergencyEvent(t EmergencyType, priority Priority, location Coordinate, description string, now time.Time) EmergencyEvent {
	return EmergencyEvent{
		ID:          NewID(idPrefixes[t], now),
		Type:        t,
		Priority:    priority,
		Location:    location,
		Timestamp:   now,
		Status:      StatusDetected,
		Description: description,
	}
}
