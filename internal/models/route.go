package models

import "fmt"

// TrafficLevel is an ordinal congestion category.
type TrafficLevel string

const (
	TrafficClear    TrafficLevel = "CLEAR"
	TrafficLight    TrafficLevel = "LIGHT"
	TrafficModerate TrafficLevel = "MODERATE"
	TrafficHeavy    TrafficLevel = "HEAVY"
	TrafficBlocked  TrafficLevel = "BLOCKED"
)

// TrafficLevels lists every level from least to most congested.
var TrafficLevels = []TrafficLevel{TrafficClear, TrafficLight, TrafficModerate, TrafficHeavy, TrafficBlocked}

// Congested reports whether the level warrants a driver alert.
func (l TrafficLevel) Congested() bool {
	return l == TrafficHeavy || l == TrafficBlocked
}

// Route is a computed path. Routes are built per request and never cached.
type Route struct {
	Origin       Coordinate   `json:"origin"`
	Destination  Coordinate   `json:"destination"`
	Distance     float64      `json:"distance_km"`
	Duration     int          `json:"duration_minutes"`
	TrafficLevel TrafficLevel `json:"traffic_level"`
	Waypoints    []Coordinate `json:"waypoints,omitempty"`
	Instructions []string     `json:"instructions,omitempty"`
}

// Summary renders the route in one line.
func (r Route) Summary() string {
	return fmt.Sprintf("%.2f km, ETA: %d min, Traffic: %s", r.Distance, r.Duration, r.TrafficLevel)
}

// RouteUpdate is a single tick of a monitored route.
type RouteUpdate struct {
	Progress          int          `json:"progress"`
	RemainingDistance float64      `json:"remaining_distance_km"`
	RemainingMinutes  int          `json:"remaining_minutes"`
	CurrentTraffic    TrafficLevel `json:"current_traffic"`
	Alert             string       `json:"alert,omitempty"`
}
