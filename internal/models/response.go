package models

import "time"

// Payload is the closed set of results a sub-agent can attach to its response.
// Consumers switch on the concrete type.
type Payload interface {
	payloadKind() string
}

// EventPayload carries a synthesized emergency event.
type EventPayload struct {
	Event EmergencyEvent `json:"event"`
}

// RoutePayload carries a single computed route.
type RoutePayload struct {
	Route Route `json:"route"`
}

// RouteOptionsPayload carries alternative routes.
type RouteOptionsPayload struct {
	Routes []Route `json:"routes"`
}

// DispatchPayload carries a completed ambulance dispatch.
type DispatchPayload struct {
	Dispatch DispatchResult `json:"dispatch"`
}

// BloodRequestPayload carries an approved blood reservation.
type BloodRequestPayload struct {
	Request BloodRequest `json:"request"`
}

// DonorListPayload carries donors found when no blood bank could serve a request.
type DonorListPayload struct {
	Donors []Donor `json:"donors"`
}

// MaternityPayload bundles the secured maternity ward with advisory guidance.
type MaternityPayload struct {
	Event    EmergencyEvent `json:"event"`
	Hospital Hospital       `json:"hospital"`
	Guidance string         `json:"guidance"`
}

// TrafficAckPayload acknowledges a traffic incident report.
type TrafficAckPayload struct {
	Area  string       `json:"area,omitempty"`
	Level TrafficLevel `json:"level,omitempty"`
}

func (EventPayload) payloadKind() string        { return "event" }
func (RoutePayload) payloadKind() string        { return "route" }
func (RouteOptionsPayload) payloadKind() string { return "route_options" }
func (DispatchPayload) payloadKind() string     { return "dispatch" }
func (BloodRequestPayload) payloadKind() string { return "blood_request" }
func (DonorListPayload) payloadKind() string    { return "donors" }
func (MaternityPayload) payloadKind() string    { return "maternity" }
func (TrafficAckPayload) payloadKind() string   { return "traffic_ack" }

// PayloadKind names the concrete payload type, or "" for nil.
func PayloadKind(p Payload) string {
	if p == nil {
		return ""
	}
	return p.payloadKind()
}

// DispatchResult bundles the dispatched ambulance with its destination and route.
type DispatchResult struct {
	EmergencyID      string    `json:"emergency_id"`
	Ambulance        Ambulance `json:"ambulance"`
	Hospital         Hospital  `json:"hospital"`
	Route            Route     `json:"route"`
	EstimatedArrival int       `json:"estimated_arrival_minutes"`
	Instructions     string    `json:"instructions,omitempty"`
}

// AgentResponse is the uniform result every sub-agent returns to the orchestrator.
type AgentResponse struct {
	AgentName string    `json:"agent_name"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      Payload   `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrchestratorResponse aggregates one pipeline run.
type OrchestratorResponse struct {
	EmergencyID    string          `json:"emergency_id,omitempty"`
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	AgentResponses []AgentResponse `json:"agent_responses"`
	Dispatch       *DispatchResult `json:"dispatch,omitempty"`
}
