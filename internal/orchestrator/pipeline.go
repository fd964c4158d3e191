package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/models"
)

// run accumulates the agent responses of a single pipeline execution.
type run struct {
	event     models.EmergencyEvent
	responses []models.AgentResponse
}

func (r *run) add(resp models.AgentResponse) {
	r.responses = append(r.responses, resp)
}

func (r *run) fail(message string) models.OrchestratorResponse {
	return models.OrchestratorResponse{
		EmergencyID:    r.event.ID,
		Success:        false,
		Message:        message,
		AgentResponses: r.responses,
	}
}

func (r *run) succeed(message string, dispatch *models.DispatchResult) models.OrchestratorResponse {
	return models.OrchestratorResponse{
		EmergencyID:    r.event.ID,
		Success:        true,
		Message:        message,
		AgentResponses: r.responses,
		Dispatch:       dispatch,
	}
}

// HandleEmergency appends event to the active list and runs the pipeline for
// its type. A fault inside the pipeline becomes a failed response.
func (o *Orchestrator) HandleEmergency(ctx context.Context, event models.EmergencyEvent) (resp models.OrchestratorResponse) {
	start := o.now()
	if event.Timestamp.IsZero() {
		event.Timestamp = start
	}
	if event.ID == "" {
		event = withID(event)
	}
	event.Status = models.StatusDetected

	r := &run{event: event}
	outcome := "failure"
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("Emergency pipeline panicked",
				"emergency_id", event.ID,
				"panic", rec,
				"stack", string(debug.Stack()))
			o.record(ctx, event.ID, "Error in orchestration: %v", rec)
			resp = r.fail(fmt.Sprintf("Orchestration failed: %v", rec))
			outcome = "panic"
		}
		if resp.Success {
			outcome = "success"
		} else if outcome != "panic" {
			o.record(ctx, event.ID, "Response failed: %s", resp.Message)
		}
		if o.recorder != nil {
			o.recorder.ObserveEmergency(string(event.Type), outcome, o.now().Sub(start))
		}
	}()

	if !event.Type.Valid() {
		return r.fail(fmt.Sprintf("Unsupported emergency type: %q", event.Type))
	}

	o.addEmergency(event)
	o.record(ctx, event.ID, "Processing %s emergency (ID: %s)", event.Type, event.ID)

	switch event.Type {
	case models.EmergencyTypeAccident:
		o.record(ctx, event.ID, "Orchestrating accident response...")
		return o.handleAccident(ctx, r)
	case models.EmergencyTypeGeneral:
		o.record(ctx, event.ID, "Orchestrating general emergency response...")
		return o.handleAccident(ctx, r)
	case models.EmergencyTypeBlood:
		return o.handleBlood(ctx, r)
	default:
		return o.handleMaternity(ctx, r)
	}
}

func withID(event models.EmergencyEvent) models.EmergencyEvent {
	fresh := models.NewEmergencyEvent(event.Type, event.Priority, event.Location, event.Description, event.Timestamp)
	event.ID = fresh.ID
	return event
}

func (o *Orchestrator) handleAccident(ctx context.Context, r *run) models.OrchestratorResponse {
	event := r.event

	assessment := o.advisor.AdviseOr(ctx, completion.OpSeverity, completion.SeverityPrompt(event), severityFallback)
	o.record(ctx, event.ID, "AI Assessment: %s", assessment)

	o.record(ctx, event.ID, "Finding nearest hospitals...")
	hospitals := o.accident.FindNearestHospitals(event.Location, HospitalCandidates)
	o.record(ctx, event.ID, "Found %d nearby hospitals", len(hospitals))
	if len(hospitals) == 0 {
		return r.fail("No hospitals found nearby")
	}

	hospital := hospitals[0]
	o.record(ctx, event.ID, "Selected: %s (%.1f km)", hospital.Name, hospital.Distance)

	o.record(ctx, event.ID, "Calculating optimal route...")
	routeResp := o.routes.ComputeRoute(ctx, event.Location, hospital.Location, event.Priority)
	r.add(routeResp)
	if p, ok := routeResp.Data.(models.RoutePayload); ok && routeResp.Success {
		o.record(ctx, event.ID, "Route calculated: %s", p.Route.Summary())
	}

	o.record(ctx, event.ID, "Dispatching ambulance...")
	dispatchResp := o.accident.DispatchAmbulance(ctx, event, hospital)
	r.add(dispatchResp)

	dispatch, ok := dispatchResult(dispatchResp)
	o.observeDispatch(ok)
	if !ok {
		return r.fail(fmt.Sprintf("Failed to dispatch ambulance: %s", dispatchResp.Message))
	}

	o.record(ctx, event.ID, "Ambulance %s dispatched", dispatch.Ambulance.VehicleNumber)
	o.record(ctx, event.ID, "Driver: %s - %s", dispatch.Ambulance.DriverName, dispatch.Ambulance.DriverContact)
	o.advance(ctx, event.ID, models.StatusDispatched)

	return r.succeed(
		fmt.Sprintf("Emergency response coordinated successfully. Ambulance en route, ETA: %d minutes", dispatch.EstimatedArrival),
		&dispatch,
	)
}

func (o *Orchestrator) handleBlood(ctx context.Context, r *run) models.OrchestratorResponse {
	event := r.event
	o.record(ctx, event.ID, "Orchestrating blood emergency response...")

	if event.Patient == nil {
		return r.fail("Patient information required for blood emergency")
	}
	bloodType := event.Patient.BloodType
	if bloodType == "" {
		return r.fail("Blood type required")
	}

	o.record(ctx, event.ID, "Processing blood request for %s...", bloodType)
	bloodResp := o.life.RequestBlood(ctx, bloodType, BloodUnits, event.Patient.DisplayName(),
		event.Location, event.Priority, o.accident.Hospitals())
	r.add(bloodResp)

	// A donor list is a success for the coordinator but leaves no
	// reservation, so it fails this pipeline with the coordinator's message.
	payload, ok := bloodResp.Data.(models.BloodRequestPayload)
	if !bloodResp.Success || !ok {
		return r.fail(bloodResp.Message)
	}

	request := payload.Request
	o.record(ctx, event.ID, "Blood secured at %s", request.Hospital.Name)
	r.add(o.routes.ComputeRoute(ctx, event.Location, request.Hospital.Location, event.Priority))
	o.advance(ctx, event.ID, models.StatusDispatched)

	return r.succeed(
		fmt.Sprintf("Blood emergency coordinated. %d units of %s available at %s", request.Units, bloodType, request.Hospital.Name),
		nil,
	)
}

func (o *Orchestrator) handleMaternity(ctx context.Context, r *run) models.OrchestratorResponse {
	event := r.event
	o.record(ctx, event.ID, "Orchestrating maternity emergency response...")

	patient := models.PatientRecord{Name: "Patient"}
	if event.Patient != nil {
		patient = *event.Patient
	}

	o.record(ctx, event.ID, "Finding maternity ward...")
	maternityResp := o.life.HandleMaternityEmergency(ctx, patient, event.Location, event.Description, o.accident.Hospitals())
	r.add(maternityResp)

	payload, ok := maternityResp.Data.(models.MaternityPayload)
	if !maternityResp.Success || !ok {
		return r.fail(maternityResp.Message)
	}

	hospital := payload.Hospital
	o.record(ctx, event.ID, "Maternity ward secured at %s", hospital.Name)

	dispatchResp := o.accident.DispatchAmbulance(ctx, event, hospital)
	r.add(dispatchResp)
	dispatch, dispatched := dispatchResult(dispatchResp)
	o.observeDispatch(dispatched)
	if !dispatched {
		o.record(ctx, event.ID, "Ambulance dispatch failed: %s", dispatchResp.Message)
	}
	o.advance(ctx, event.ID, models.StatusDispatched)

	resp := r.succeed(fmt.Sprintf("Maternity emergency coordinated. Ambulance dispatched to %s", hospital.Name), nil)
	if dispatched {
		resp.Dispatch = &dispatch
	}
	return resp
}

func dispatchResult(resp models.AgentResponse) (models.DispatchResult, bool) {
	if !resp.Success {
		return models.DispatchResult{}, false
	}
	p, ok := resp.Data.(models.DispatchPayload)
	if !ok {
		return models.DispatchResult{}, false
	}
	return p.Dispatch, true
}

func (o *Orchestrator) observeDispatch(ok bool) {
	if o.recorder == nil {
		return
	}
	if ok {
		o.recorder.ObserveDispatch("success")
	} else {
		o.recorder.ObserveDispatch("failure")
	}
}

// advance moves an emergency forward within a pipeline. A rejected
// transition is already in the audit log.
func (o *Orchestrator) advance(ctx context.Context, id string, status models.EmergencyStatus) {
	if err := o.UpdateEmergencyStatus(ctx, id, status); err != nil {
		o.logger.Warn("Pipeline status update rejected",
			"emergency_id", id,
			"status", status,
			"error", err)
	}
}
