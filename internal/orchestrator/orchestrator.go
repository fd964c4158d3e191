// Package orchestrator classifies emergencies, runs the per-type response
// pipeline across the sub-agents and keeps the active list and audit log.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/models"
)

// AccidentAgent is the hospital directory, fleet and collision source.
type AccidentAgent interface {
	Hospitals() []models.Hospital
	FindNearestHospitals(from models.Coordinate, limit int) []models.Hospital
	ReportAccident(location models.Coordinate, description string) models.AgentResponse
	DispatchAmbulance(ctx context.Context, event models.EmergencyEvent, hospital models.Hospital) models.AgentResponse
	StartMonitoring()
	StopMonitoring()
	IsMonitoring() bool
	Detections() <-chan models.EmergencyEvent
}

// LifeSupportAgent matches blood requests and maternity emergencies.
type LifeSupportAgent interface {
	RequestBlood(ctx context.Context, bloodType string, units int, patientName string, location models.Coordinate, urgency models.Priority, hospitals []models.Hospital) models.AgentResponse
	HandleMaternityEmergency(ctx context.Context, patient models.PatientRecord, location models.Coordinate, description string, hospitals []models.Hospital) models.AgentResponse
}

// RouteAgent computes routes.
type RouteAgent interface {
	ComputeRoute(ctx context.Context, origin, destination models.Coordinate, priority models.Priority) models.AgentResponse
}

// AuditSink mirrors audit entries to durable storage.
type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	Clear(ctx context.Context) error
}

// Recorder observes pipeline outcomes. metrics.Collector implements it.
type Recorder interface {
	ObserveEmergency(emergencyType, outcome string, duration time.Duration)
	ObserveDispatch(outcome string)
}

const (
	// BloodUnits is the fixed number of units requested per blood emergency.
	BloodUnits = 2
	// HospitalCandidates is how many nearby hospitals accident pipelines consider.
	HospitalCandidates = 3
	// RecentLogSize is the number of audit lines shown by RecentLog.
	RecentLogSize = 20

	severityFallback = "AI assessment unavailable. Proceeding with standard protocol."
)

// Config wires an Orchestrator.
type Config struct {
	Accident    AccidentAgent
	LifeSupport LifeSupportAgent
	Routes      RouteAgent
	Advisor     *completion.Advisor
	Sink        AuditSink
	Recorder    Recorder
	Logger      *slog.Logger
	Now         func() time.Time
}

// Orchestrator is the sole writer of the active emergency list and the audit log.
type Orchestrator struct {
	accident AccidentAgent
	life     LifeSupportAgent
	routes   RouteAgent
	advisor  *completion.Advisor
	sink     AuditSink
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	emergencies []models.EmergencyEvent
	audit       []models.AuditEntry

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// New creates an orchestrator over the given sub-agents.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Accident == nil || cfg.LifeSupport == nil || cfg.Routes == nil {
		return nil, fmt.Errorf("orchestrator requires accident, life support and route agents")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		accident: cfg.Accident,
		life:     cfg.LifeSupport,
		routes:   cfg.Routes,
		advisor:  cfg.Advisor,
		sink:     cfg.Sink,
		recorder: cfg.Recorder,
		logger:   logger,
		now:      now,
		subs:     make(map[int]chan Snapshot),
	}, nil
}

// ReportAccident records a user-reported accident and runs its pipeline.
func (o *Orchestrator) ReportAccident(ctx context.Context, location models.Coordinate, description string) models.OrchestratorResponse {
	resp := o.accident.ReportAccident(location, description)
	payload, ok := resp.Data.(models.EventPayload)
	if !resp.Success || !ok {
		return models.OrchestratorResponse{
			Success:        false,
			Message:        fmt.Sprintf("Failed: %s", resp.Message),
			AgentResponses: []models.AgentResponse{resp},
		}
	}
	return o.HandleEmergency(ctx, payload.Event)
}

// RequestBloodEmergency raises a blood emergency for patientName.
func (o *Orchestrator) RequestBloodEmergency(ctx context.Context, bloodType, patientName string, location models.Coordinate, urgency models.Priority) models.OrchestratorResponse {
	patient := &models.PatientRecord{Name: patientName, BloodType: bloodType}
	event := models.NewEmergencyEvent(models.EmergencyTypeBlood, urgency, location,
		fmt.Sprintf("Blood emergency: %s needed for %s", bloodType, patient.DisplayName()), o.now())
	event.Patient = patient
	return o.HandleEmergency(ctx, event)
}

// RequestMaternityEmergency raises a HIGH priority maternity emergency.
func (o *Orchestrator) RequestMaternityEmergency(ctx context.Context, patientName string, age int, location models.Coordinate, description string) models.OrchestratorResponse {
	event := models.NewEmergencyEvent(models.EmergencyTypeMaternity, models.PriorityHigh, location, description, o.now())
	event.Patient = &models.PatientRecord{Name: patientName, Age: age}
	return o.HandleEmergency(ctx, event)
}

// StartAccidentMonitoring enables collision detection.
func (o *Orchestrator) StartAccidentMonitoring(ctx context.Context) {
	o.accident.StartMonitoring()
	o.record(ctx, "", "Accident monitoring started")
}

// StopAccidentMonitoring disables collision detection.
func (o *Orchestrator) StopAccidentMonitoring(ctx context.Context) {
	o.accident.StopMonitoring()
	o.record(ctx, "", "Accident monitoring stopped")
}

// IsMonitoring reports whether collision detection is enabled.
func (o *Orchestrator) IsMonitoring() bool {
	return o.accident.IsMonitoring()
}

// Run consumes collision detections and handles each one until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("Starting detection consumer")
	detections := o.accident.Detections()
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Detection consumer stopping due to context cancellation")
			return nil
		case event, ok := <-detections:
			if !ok {
				o.logger.Info("Detection channel closed")
				return nil
			}
			o.record(ctx, event.ID, "ACCIDENT DETECTED by collision sensor")
			resp := o.HandleEmergency(ctx, event)
			o.logger.Info("Detected accident handled",
				"emergency_id", event.ID,
				"success", resp.Success,
				"message", resp.Message)
		}
	}
}
