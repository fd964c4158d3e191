package route

import (
	"strings"

	"github.com/medipulse/medipulse/internal/models"
)

// Areas lists the named areas with tracked traffic, in match order.
var Areas = []string{
	"Gachibowli", "Jubilee Hills", "Madhapur", "Malakpet",
	"HITEC City", "Banjara Hills", "Kukatpally", "Secunderabad",
}

// SeedTraffic returns the initial per-area traffic levels.
func SeedTraffic() map[string]models.TrafficLevel {
	return map[string]models.TrafficLevel{
		"Gachibowli":    models.TrafficModerate,
		"Jubilee Hills": models.TrafficLight,
		"Madhapur":      models.TrafficHeavy,
		"Malakpet":      models.TrafficModerate,
		"HITEC City":    models.TrafficHeavy,
		"Banjara Hills": models.TrafficLight,
		"Kukatpally":    models.TrafficModerate,
		"Secunderabad":  models.TrafficHeavy,
	}
}

var trafficMultipliers = map[models.TrafficLevel]float64{
	models.TrafficClear:    0.8,
	models.TrafficLight:    1.0,
	models.TrafficModerate: 1.3,
	models.TrafficHeavy:    1.7,
	models.TrafficBlocked:  2.5,
}

var priorityMultipliers = map[models.Priority]float64{
	models.PriorityCritical: 0.7,
	models.PriorityHigh:     0.85,
	models.PriorityMedium:   1.0,
	models.PriorityLow:      1.1,
}

// TrafficMultiplier scales travel time for a congestion level.
func TrafficMultiplier(level models.TrafficLevel) float64 {
	if m, ok := trafficMultipliers[level]; ok {
		return m
	}
	return trafficMultipliers[models.TrafficModerate]
}

// PriorityMultiplier scales travel time for an emergency priority.
func PriorityMultiplier(priority models.Priority) float64 {
	if m, ok := priorityMultipliers[priority]; ok {
		return m
	}
	return 1.0
}

// ResolveArea returns the first known area contained in address, ignoring case.
func ResolveArea(address string) (string, bool) {
	lower := strings.ToLower(address)
	for _, area := range Areas {
		if strings.Contains(lower, strings.ToLower(area)) {
			return area, true
		}
	}
	return "", false
}

// LevelForSeverity maps an incident severity to the traffic level it imposes.
func LevelForSeverity(severity string) models.TrafficLevel {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case "HIGH", "SEVERE":
		return models.TrafficBlocked
	case "MEDIUM":
		return models.TrafficHeavy
	default:
		return models.TrafficModerate
	}
}

// PredictTraffic estimates the level for an hour of the day. The area does
// not affect the estimate.
func PredictTraffic(area string, hour int) models.TrafficLevel {
	switch {
	case hour >= 7 && hour <= 10:
		return models.TrafficHeavy
	case hour >= 11 && hour <= 16:
		return models.TrafficModerate
	case hour >= 17 && hour <= 20:
		return models.TrafficHeavy
	case hour >= 21 && hour <= 23, hour >= 0 && hour <= 6:
		return models.TrafficLight
	default:
		return models.TrafficModerate
	}
}
