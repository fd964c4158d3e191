// Package lifesupport matches blood requests to blood banks or donors and
// maternity emergencies to hospitals with free maternity beds.
package lifesupport

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/geo"
	"github.com/medipulse/medipulse/internal/models"
)

// AgentName identifies this component in agent responses.
const AgentName = "LifeSupportCoordinator"

// Options configures a Coordinator. Zero values select the defaults.
type Options struct {
	Inventory models.BloodInventory
	Donors    []models.Donor
	Advisor   *completion.Advisor
	Logger    *slog.Logger
	Now       func() time.Time
}

// Coordinator is the sole writer of blood inventory and the donor registry.
type Coordinator struct {
	mu        sync.Mutex
	inventory models.BloodInventory
	donors    []models.Donor
	requests  []models.BloodRequest
	maternity []models.EmergencyEvent

	advisor *completion.Advisor
	logger  *slog.Logger
	now     func() time.Time
}

// NewCoordinator builds a coordinator from opts, falling back to the built-in
// inventory and donor registry.
func NewCoordinator(opts Options) *Coordinator {
	inventory := opts.Inventory
	if inventory == nil {
		inventory = SeedInventory()
	}
	donors := opts.Donors
	if donors == nil {
		donors = SeedDonors()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		inventory: inventory.Clone(),
		donors:    append([]models.Donor(nil), donors...),
		advisor:   opts.Advisor,
		logger:    logger,
		now:       now,
	}
}

// RequestBlood reserves units of bloodType at the nearest eligible blood bank
// among hospitals. When no bank holds enough, it falls back to up to units
// matching donors, nearest first.
func (c *Coordinator) RequestBlood(ctx context.Context, bloodType string, units int, patientName string, location models.Coordinate, urgency models.Priority, hospitals []models.Hospital) (resp models.AgentResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Blood request panicked", "blood_type", bloodType, "panic", rec)
			resp = c.failure(fmt.Sprintf("Failed to process blood request: %v", rec))
		}
	}()

	if bloodType == "" {
		return c.failure("Blood type required")
	}
	if units <= 0 {
		return c.failure(fmt.Sprintf("Invalid unit count: %d", units))
	}

	c.logger.Info("Blood request received",
		"blood_type", bloodType,
		"units", units,
		"patient", patientName)

	hospital, ok := c.reserve(bloodType, units, location, hospitals)
	if !ok {
		return c.donorFallback(bloodType, units, location)
	}

	request := models.BloodRequest{
		ID:          "BR-" + uuid.NewString(),
		BloodType:   bloodType,
		Units:       units,
		Urgency:     urgency,
		PatientName: patientName,
		Hospital:    hospital,
		Status:      models.BloodRequestApproved,
	}
	request.Guidance = c.advisor.AdviseOr(ctx, completion.OpBloodGuidance,
		completion.BloodGuidancePrompt(request), "")

	c.mu.Lock()
	c.requests = append(c.requests, request)
	c.mu.Unlock()

	c.logger.Info("Blood reserved",
		"request_id", request.ID,
		"hospital_id", hospital.ID,
		"blood_type", bloodType,
		"units", units)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Blood available at %s. %d units of %s reserved.", hospital.Name, units, bloodType),
		Data:      models.BloodRequestPayload{Request: request},
		Timestamp: c.now(),
	}
}

// reserve picks the nearest blood-bank hospital holding at least units of
// bloodType and decrements its stock under a single lock.
func (c *Coordinator) reserve(bloodType string, units int, location models.Coordinate, hospitals []models.Hospital) (models.Hospital, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	best := -1
	bestDistance := 0.0
	for i, h := range hospitals {
		if !h.HasBloodBank {
			continue
		}
		stock, ok := c.inventory[h.ID]
		if !ok || stock[bloodType] < units {
			continue
		}
		d := geo.DistanceKm(location, h.Location)
		if best < 0 || d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return models.Hospital{}, false
	}

	selected := hospitals[best]
	c.inventory[selected.ID][bloodType] -= units
	return selected, true
}

func (c *Coordinator) donorFallback(bloodType string, units int, location models.Coordinate) models.AgentResponse {
	donors := c.nearbyDonors(bloodType, location, units)
	if len(donors) == 0 {
		c.logger.Warn("Blood unavailable",
			"blood_type", bloodType,
			"units", units)
		return c.failure(fmt.Sprintf("Blood type %s not available in sufficient quantity. Expanding search...", bloodType))
	}

	c.logger.Info("Blood banks exhausted, donors found",
		"blood_type", bloodType,
		"donors", len(donors))

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Blood not available in banks. Found %d nearby donors.", len(donors)),
		Data:      models.DonorListPayload{Donors: donors},
		Timestamp: c.now(),
	}
}

func (c *Coordinator) nearbyDonors(bloodType string, location models.Coordinate, limit int) []models.Donor {
	var matches []models.Donor
	for _, d := range c.Donors(bloodType) {
		d.Distance = geo.DistanceKm(location, d.Location)
		matches = append(matches, d)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// HandleMaternityEmergency secures the nearest hospital among hospitals with
// a maternity ward and a free bed.
func (c *Coordinator) HandleMaternityEmergency(ctx context.Context, patient models.PatientRecord, location models.Coordinate, description string, hospitals []models.Hospital) (resp models.AgentResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Maternity emergency panicked", "panic", rec)
			resp = c.failure(fmt.Sprintf("Failed to process maternity emergency: %v", rec))
		}
	}()

	var candidates []models.Hospital
	for _, h := range hospitals {
		if h.HasMaternityWard && h.AvailableBeds > 0 {
			h.Distance = geo.DistanceKm(location, h.Location)
			h.EstimatedMinutes = geo.TravelMinutes(h.Distance)
			candidates = append(candidates, h)
		}
	}
	if len(candidates) == 0 {
		c.logger.Warn("No maternity ward available", "patient", patient.DisplayName())
		return c.failure("No maternity wards available nearby")
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	hospital := candidates[0]

	now := c.now()
	event := models.NewEmergencyEvent(models.EmergencyTypeMaternity, models.PriorityHigh, location, description, now)
	event.Status = models.StatusDispatched
	event.Patient = &patient

	c.mu.Lock()
	c.maternity = append(c.maternity, event)
	c.mu.Unlock()

	guidance := c.advisor.AdviseOr(ctx, completion.OpMaternity,
		completion.MaternityPrompt(patient, description, hospital, hospital.Distance), "")

	c.logger.Info("Maternity ward secured",
		"emergency_id", event.ID,
		"hospital_id", hospital.ID,
		"distance_km", hospital.Distance)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Maternity ward secured at %s. Bed reserved.", hospital.Name),
		Data: models.MaternityPayload{
			Event:    event,
			Hospital: hospital,
			Guidance: guidance,
		},
		Timestamp: now,
	}
}

// Inventory returns a copy of one hospital's stock.
func (c *Coordinator) Inventory(hospitalID string) (map[string]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stock, ok := c.inventory[hospitalID]
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(stock))
	for t, n := range stock {
		out[t] = n
	}
	return out, true
}

// Inventories returns a deep copy of every hospital's stock.
func (c *Coordinator) Inventories() models.BloodInventory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inventory.Clone()
}

// Donors returns available donors, restricted to bloodType when it is non-empty.
func (c *Coordinator) Donors(bloodType string) []models.Donor {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.Donor
	for _, d := range c.donors {
		if !d.Available {
			continue
		}
		if bloodType != "" && d.BloodType != bloodType {
			continue
		}
		out = append(out, d)
	}
	return out
}

// RegisterDonor appends donor to the registry, assigning an ID when absent.
func (c *Coordinator) RegisterDonor(donor models.Donor) models.AgentResponse {
	donor.Distance = 0

	c.mu.Lock()
	if donor.ID == "" {
		donor.ID = fmt.Sprintf("D%03d", len(c.donors)+1)
	}
	c.donors = append(c.donors, donor)
	c.mu.Unlock()

	c.logger.Info("Donor registered",
		"donor_id", donor.ID,
		"blood_type", donor.BloodType)

	return models.AgentResponse{
		AgentName: AgentName,
		Success:   true,
		Message:   fmt.Sprintf("Donor %s registered successfully", donor.Name),
		Timestamp: c.now(),
	}
}

// BloodRequests returns every approved reservation in order.
func (c *Coordinator) BloodRequests() []models.BloodRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.BloodRequest(nil), c.requests...)
}

// MaternityEmergencies returns every maternity event secured so far.
func (c *Coordinator) MaternityEmergencies() []models.EmergencyEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.EmergencyEvent(nil), c.maternity...)
}

func (c *Coordinator) failure(message string) models.AgentResponse {
	return models.AgentResponse{
		AgentName: AgentName,
		Success:   false,
		Message:   message,
		Timestamp: c.now(),
	}
}
