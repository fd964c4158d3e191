package completion

import (
	"fmt"
	"strings"

	"github.com/medipulse/medipulse/internal/models"
)

// Operation names used for logging and metrics.
const (
	OpSeverity      = "severity_assessment"
	OpDispatch      = "dispatch_instructions"
	OpBloodGuidance = "blood_guidance"
	OpMaternity     = "maternity_guidance"
	OpRoute         = "route_instructions"
	OpStatusReport  = "status_report"
)

func addressOr(c models.Coordinate, fallback string) string {
	if c.Address == "" {
		return fallback
	}
	return c.Address
}

// SeverityPrompt asks for a short severity assessment of event.
func SeverityPrompt(event models.EmergencyEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Emergency Type: %s\n", event.Type)
	fmt.Fprintf(&b, "Priority: %s\n", event.Priority)
	fmt.Fprintf(&b, "Description: %s\n", event.Description)
	if event.Sensor != nil {
		fmt.Fprintf(&b, "Impact Force: %.2f m/s²\n", event.Sensor.ImpactForce)
	}
	b.WriteString("\nProvide a brief 1-2 sentence severity assessment and immediate action recommendation.")
	return b.String()
}

// DispatchPrompt asks for driver instructions for a dispatched ambulance.
func DispatchPrompt(event models.EmergencyEvent, ambulance models.Ambulance, hospital models.Hospital) string {
	return fmt.Sprintf(`Emergency dispatch for %s at %s.
Ambulance %s dispatched from %s.
Hospital: %s
Priority: %s

Generate brief dispatch instructions for the driver and emergency response team.`,
		event.Type, addressOr(event.Location, "reported location"),
		ambulance.VehicleNumber, addressOr(ambulance.Location, "base"),
		hospital.Name, event.Priority)
}

// BloodGuidancePrompt asks for handling instructions for an approved blood request.
func BloodGuidancePrompt(req models.BloodRequest) string {
	return fmt.Sprintf(`Blood emergency: Patient needs %d units of %s blood.
Available at %s.
Priority: %s

Provide brief instructions for hospital staff and transport team.`,
		req.Units, req.BloodType, req.Hospital.Name, req.Urgency)
}

// MaternityPrompt asks for paramedic care instructions during transport.
func MaternityPrompt(patient models.PatientRecord, description string, hospital models.Hospital, distanceKm float64) string {
	age := "unknown"
	if patient.Age > 0 {
		age = fmt.Sprintf("%d", patient.Age)
	}
	return fmt.Sprintf(`Maternity emergency: %s
Patient: %s, Age: %s
Destination: %s
Distance: %.1f km

Provide immediate care instructions for paramedics during transport.`,
		description, patient.DisplayName(), age, hospital.Name, distanceKm)
}

// RoutePrompt asks for turn-by-turn instructions.
func RoutePrompt(origin, destination models.Coordinate, distanceKm float64, traffic models.TrafficLevel, priority models.Priority) string {
	return fmt.Sprintf(`Generate emergency route instructions:
From: %s
To: %s
Distance: %.1f km
Traffic: %s
Priority: %s

Provide 3-4 key turn-by-turn navigation instructions for ambulance driver.`,
		addressOr(origin, "origin"), addressOr(destination, "destination"),
		distanceKm, traffic, priority)
}

// StatusReportPrompt asks for a status summary of an active emergency.
func StatusReportPrompt(event models.EmergencyEvent) string {
	return fmt.Sprintf(`Generate a status report for emergency:
ID: %s
Type: %s
Status: %s
Location: %s
Time: %s

Provide a brief status summary.`,
		event.ID, event.Type, event.Status,
		addressOr(event.Location, "unknown"), event.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
}
