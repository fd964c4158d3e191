package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/models"
)

var (
	// ErrEmergencyNotFound is returned for an unknown emergency ID.
	ErrEmergencyNotFound = errors.New("emergency not found")
	// ErrInvalidTransition is returned when a status change would move an
	// emergency backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

func (o *Orchestrator) addEmergency(event models.EmergencyEvent) {
	o.mu.Lock()
	o.emergencies = append(o.emergencies, event)
	o.mu.Unlock()
}

// ActiveEmergencies returns every handled emergency in arrival order.
func (o *Orchestrator) ActiveEmergencies() []models.EmergencyEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.EmergencyEvent(nil), o.emergencies...)
}

// Emergency returns the emergency with id.
func (o *Orchestrator) Emergency(id string) (models.EmergencyEvent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.emergencies {
		if e.ID == id {
			return e, true
		}
	}
	return models.EmergencyEvent{}, false
}

// UpdateEmergencyStatus moves the emergency with id to status. Only forward
// moves along the lifecycle, or cancellation of a non-terminal emergency,
// are accepted. Every attempt is written to the audit log.
func (o *Orchestrator) UpdateEmergencyStatus(ctx context.Context, id string, status models.EmergencyStatus) error {
	if !status.Valid() {
		o.record(ctx, id, "Emergency %s status update to %s rejected: unknown status", id, status)
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	o.mu.Lock()
	idx := -1
	for i := range o.emergencies {
		if o.emergencies[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		o.mu.Unlock()
		o.record(ctx, id, "Emergency %s status update to %s rejected: not found", id, status)
		return fmt.Errorf("%w: %s", ErrEmergencyNotFound, id)
	}

	current := o.emergencies[idx].Status
	if !current.CanTransition(status) {
		o.mu.Unlock()
		o.record(ctx, id, "Emergency %s status update to %s rejected: currently %s", id, status, current)
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, status)
	}
	o.emergencies[idx].Status = status
	o.mu.Unlock()

	o.record(ctx, id, "Emergency %s status updated to %s", id, status)
	return nil
}

// StatusReport returns an advisory summary of the emergency, or a plain
// status line when the advisor is unavailable.
func (o *Orchestrator) StatusReport(ctx context.Context, id string) (string, error) {
	event, ok := o.Emergency(id)
	if !ok {
		return "Emergency not found", fmt.Errorf("%w: %s", ErrEmergencyNotFound, id)
	}
	fallback := fmt.Sprintf("Status: %s", event.Status)
	return o.advisor.AdviseOr(ctx, completion.OpStatusReport, completion.StatusReportPrompt(event), fallback), nil
}
