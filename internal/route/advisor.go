// Package route computes emergency routes under simulated traffic and
// streams progress for in-flight routes.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/geo"
	"github.com/medipulse/medipulse/internal/models"
)

// AgentName identifies this component in agent responses.
const AgentName = "RouteAdvisor"

// DefaultMonitorInterval is the tick period of MonitorRoute.
const DefaultMonitorInterval = 3 * time.Second

// TrafficAlert is attached to updates while traffic is congested.
const TrafficAlert = "Heavy traffic ahead. Consider alternate route."

var fallbackInstructions = []string{
	"Proceed to destination via optimal route",
	"Follow GPS navigation",
	"Use sirens for emergency clearance",
}

var navigationKeywords = []string{"turn", "continue", "proceed", "take"}

const maxInstructions = 5

// Options configures an Advisor. Zero values select the defaults.
type Options struct {
	Traffic         map[string]models.TrafficLevel
	MonitorInterval time.Duration
	Rand            *rand.Rand
	Advisor         *completion.Advisor
	Logger          *slog.Logger
	Now             func() time.Time
}

// Advisor is the sole writer of the area traffic map.
type Advisor struct {
	mu      sync.Mutex
	traffic map[string]models.TrafficLevel

	randMu sync.Mutex
	rng    *rand.Rand

	interval time.Duration
	advisor  *completion.Advisor
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdvisor builds a route advisor from opts.
func NewAdvisor(opts Options) *Advisor {
	traffic := SeedTraffic()
	for area, level := range opts.Traffic {
		traffic[area] = level
	}
	interval := opts.MonitorInterval
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Advisor{
		traffic:  traffic,
		rng:      rng,
		interval: interval,
		advisor:  opts.Advisor,
		logger:   logger,
		now:      now,
	}
}

// TrafficConditions returns a snapshot of every area's level.
func (a *Advisor) TrafficConditions() map[string]models.TrafficLevel {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]models.TrafficLevel, len(a.traffic))
	for area, level := range a.traffic {
		out[area] = level
	}
	return out
}

// trafficAt resolves the level for an address, MODERATE when no area matches.
func (a *Advisor) trafficAt(address string) models.TrafficLevel {
	area, ok := ResolveArea(address)
	if !ok {
		return models.TrafficModerate
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if level, ok := a.traffic[area]; ok {
		return level
	}
	return models.TrafficModerate
}

// ComputeRoute builds a route whose duration reflects the traffic at the
// destination and the emergency priority.
func (a *Advisor) ComputeRoute(ctx context.Context, origin, destination models.Coordinate, priority models.Priority) (resp models.AgentResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("Route calculation panicked", "panic", rec)
			resp = a.failure(fmt.Sprintf("Failed to calculate route: %v", rec))
		}
	}()

	distance := geo.DistanceKm(origin, destination)
	traffic := a.trafficAt(destination.Address)
	base := geo.TravelMinutes(distance)
	duration := int(float64(base) * TrafficMultiplier(traffic) * PriorityMultiplier(priority))

	text, _ := a.advisor.Advise(ctx, completion.OpRoute,
		completion.RoutePrompt(origin, destination, distance, traffic, priority))

	r := models.Route{
		Origin:       origin,
		Destination:  destination,
		Distance:     distance,
		Duration:     duration,
		TrafficLevel: traffic,
		Waypoints:    Waypoints(origin, destination, traffic),
		Instructions: ParseInstructions(text),
	}

	a.logger.Info("Route calculated",
		"from", origin.Address,
		"to", destination.Address,
		"distance_km", distance,
		"duration_minutes", duration,
		"traffic", traffic)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Optimal route calculated. ETA: %d minutes. Traffic: %s", duration, traffic),
		Data:      models.RoutePayload{Route: r},
		Timestamp: a.now(),
	}
}

// AlternativeRoutes returns three fixed variations of the direct route with
// LIGHT, MODERATE and HEAVY traffic. Priority does not change their durations.
func (a *Advisor) AlternativeRoutes(origin, destination models.Coordinate, priority models.Priority) models.AgentResponse {
	direct := geo.DistanceKm(origin, destination)
	labels := []string{
		"Fastest route via highway",
		"Balanced route via main roads",
		"Alternative route via side streets",
	}
	levels := []models.TrafficLevel{models.TrafficLight, models.TrafficModerate, models.TrafficHeavy}

	routes := make([]models.Route, 0, len(levels))
	for i := 1; i <= len(levels); i++ {
		distance := direct * (0.9 + float64(i)*0.15)
		traffic := levels[i-1]
		duration := int(distance / geo.AverageSpeedKmh * 60 * TrafficMultiplier(traffic))
		routes = append(routes, models.Route{
			Origin:       origin,
			Destination:  destination,
			Distance:     distance,
			Duration:     duration,
			TrafficLevel: traffic,
			Waypoints:    Waypoints(origin, destination, traffic),
			Instructions: []string{
				fmt.Sprintf("Route %d: %s", i, labels[i-1]),
				fmt.Sprintf("Distance: %.1f km", distance),
				fmt.Sprintf("ETA: %d minutes", duration),
			},
		})
	}

	a.logger.Debug("Alternative routes generated", "count", len(routes), "priority", priority)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Found %d alternative routes", len(routes)),
		Data:      models.RouteOptionsPayload{Routes: routes},
		Timestamp: a.now(),
	}
}

// ReportTrafficIncident raises the level of the area named in the location's
// address. Addresses outside the known areas are acknowledged without change.
func (a *Advisor) ReportTrafficIncident(location models.Coordinate, incidentType, severity string) models.AgentResponse {
	ack := models.TrafficAckPayload{}
	if area, ok := ResolveArea(location.Address); ok {
		level := LevelForSeverity(severity)
		a.mu.Lock()
		a.traffic[area] = level
		a.mu.Unlock()
		ack = models.TrafficAckPayload{Area: area, Level: level}

		a.logger.Info("Traffic incident reported",
			"area", area,
			"incident_type", incidentType,
			"severity", severity,
			"level", level)
	} else {
		a.logger.Warn("Traffic incident outside known areas",
			"address", location.Address,
			"incident_type", incidentType)
	}

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   "Traffic incident reported and routes updated",
		Data:      ack,
		Timestamp: a.now(),
	}
}

// Waypoints interpolates the intermediate points of a route: three for HEAVY
// traffic, two otherwise.
func Waypoints(origin, destination models.Coordinate, traffic models.TrafficLevel) []models.Coordinate {
	steps := 3
	if traffic == models.TrafficHeavy {
		steps = 4
	}
	points := make([]models.Coordinate, 0, steps-1)
	for i := 1; i < steps; i++ {
		p := geo.Interpolate(origin, destination, float64(i)/float64(steps))
		p.Address = fmt.Sprintf("Waypoint %d", i)
		points = append(points, p)
	}
	return points
}

// ParseInstructions keeps up to five non-blank lines of text that mention a
// navigation keyword, or returns the fixed fallback when none do.
func ParseInstructions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range navigationKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, line)
				break
			}
		}
		if len(out) == maxInstructions {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallbackInstructions...)
	}
	return out
}

func (a *Advisor) failure(message string) models.AgentResponse {
	return models.AgentResponse{
		AgentName: AgentName,
		Success:   false,
		Message:   message,
		Timestamp: a.now(),
	}
}
