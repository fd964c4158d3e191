package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipulse/medipulse/internal/accident"
	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/lifesupport"
	"github.com/medipulse/medipulse/internal/models"
	"github.com/medipulse/medipulse/internal/route"
)

var gachibowli = models.Coordinate{Latitude: 17.4065, Longitude: 78.4772, Address: "Gachibowli, Hyderabad"}

type harness struct {
	orch     *Orchestrator
	accident *accident.Responder
	life     *lifesupport.Coordinator
	routes   *route.Advisor
	sink     *memorySink
	recorder *countingRecorder
}

type harnessOptions struct {
	generator  completion.Generator
	ambulances []models.Ambulance
	inventory  models.BloodInventory
	donors     []models.Donor
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	advisor := completion.NewAdvisor(opts.generator, time.Second, logger, nil)

	h := &harness{
		accident: accident.NewResponder(accident.Options{
			Ambulances: opts.ambulances,
			Advisor:    advisor,
			Logger:     logger,
		}),
		life: lifesupport.NewCoordinator(lifesupport.Options{
			Inventory: opts.inventory,
			Donors:    opts.donors,
			Advisor:   advisor,
			Logger:    logger,
		}),
		routes: route.NewAdvisor(route.Options{
			Rand:    rand.New(rand.NewSource(1)),
			Advisor: advisor,
			Logger:  logger,
		}),
		sink:     &memorySink{},
		recorder: &countingRecorder{emergencies: map[string]int{}, dispatches: map[string]int{}},
	}

	orch, err := New(Config{
		Accident:    h.accident,
		LifeSupport: h.life,
		Routes:      h.routes,
		Advisor:     advisor,
		Sink:        h.sink,
		Recorder:    h.recorder,
		Logger:      logger,
	})
	require.NoError(t, err)
	h.orch = orch
	return h
}

type memorySink struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	cleared int
}

func (s *memorySink) Append(_ context.Context, e models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *memorySink) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.cleared++
	return nil
}

type countingRecorder struct {
	mu          sync.Mutex
	emergencies map[string]int
	dispatches  map[string]int
}

func (r *countingRecorder) ObserveEmergency(emergencyType, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emergencies[emergencyType+"/"+outcome]++
}

func (r *countingRecorder) ObserveDispatch(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches[outcome]++
}

func messagesFor(entries []models.AuditEntry, emergencyID string) []string {
	var out []string
	for _, e := range entries {
		if e.EmergencyID == emergencyID {
			out = append(out, e.Message)
		}
	}
	return out
}

func containsPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestAccidentEndToEnd(t *testing.T) {
	h := newHarness(t, harnessOptions{generator: completion.NewMockGenerator("Minor collision, send BLS unit.")})
	ctx := context.Background()

	resp := h.orch.ReportAccident(ctx, gachibowli, "test collision")
	require.True(t, resp.Success, resp.Message)
	require.NotNil(t, resp.Dispatch)
	assert.Equal(t, fmt.Sprintf("Emergency response coordinated successfully. Ambulance en route, ETA: %d minutes", resp.Dispatch.EstimatedArrival), resp.Message)

	require.Len(t, resp.AgentResponses, 2)
	assert.Equal(t, route.AgentName, resp.AgentResponses[0].AgentName)
	assert.Equal(t, accident.AgentName, resp.AgentResponses[1].AgentName)

	emergencies := h.orch.ActiveEmergencies()
	require.Len(t, emergencies, 1)
	assert.Equal(t, resp.EmergencyID, emergencies[0].ID)
	assert.Equal(t, models.StatusDispatched, emergencies[0].Status)
	assert.Equal(t, "test collision", emergencies[0].Description)

	assert.Equal(t, "AMB001", resp.Dispatch.Ambulance.ID)
	for _, a := range h.accident.AvailableAmbulances() {
		assert.NotEqual(t, "AMB001", a.ID)
	}

	trail := messagesFor(h.orch.FullLog(), resp.EmergencyID)
	assert.Equal(t, 1, strings.Count(strings.Join(trail, "\n"), "Selected: City General Hospital (0.0 km)"))
	assert.True(t, containsPrefix(trail, "AI Assessment: Minor collision, send BLS unit."))
	assert.True(t, containsPrefix(trail, "Route calculated: "))
	assert.True(t, containsPrefix(trail, "Ambulance TS 09 EA 1234 dispatched"))
	assert.True(t, containsPrefix(trail, "Driver: Ramesh Kumar - +91-9123456780"))
	assert.True(t, containsPrefix(trail, "Emergency "+resp.EmergencyID+" status updated to DISPATCHED"))

	assert.Len(t, h.sink.entries, len(h.orch.FullLog()))
	assert.Equal(t, 1, h.recorder.emergencies["ACCIDENT/success"])
	assert.Equal(t, 1, h.recorder.dispatches["success"])
}

func TestAccidentSeverityFallback(t *testing.T) {
	h := newHarness(t, harnessOptions{generator: completion.NewFailingGenerator(errors.New("no model loaded"))})

	resp := h.orch.ReportAccident(context.Background(), gachibowli, "test collision")
	require.True(t, resp.Success)
	assert.True(t, containsPrefix(messagesFor(h.orch.FullLog(), resp.EmergencyID), "AI Assessment: "+severityFallback))
}

func TestAccidentDispatchFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{ambulances: []models.Ambulance{
		{ID: "AMB002", Available: true, AssignedHospital: "H002", Location: gachibowli},
	}})
	inventory := h.life.Inventories()

	resp := h.orch.ReportAccident(context.Background(), gachibowli, "test collision")
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to dispatch ambulance: No available ambulances at the moment", resp.Message)
	assert.Nil(t, resp.Dispatch)
	require.Len(t, resp.AgentResponses, 2)
	assert.True(t, resp.AgentResponses[0].Success, "route is recorded even when dispatch fails")
	assert.False(t, resp.AgentResponses[1].Success)

	emergencies := h.orch.ActiveEmergencies()
	require.Len(t, emergencies, 1)
	assert.Equal(t, models.StatusDetected, emergencies[0].Status)
	assert.Equal(t, inventory, h.life.Inventories())
	assert.Len(t, h.accident.AvailableAmbulances(), 1)
	assert.Equal(t, 1, h.recorder.dispatches["failure"])
}

func TestGeneralEmergencyUsesAccidentPipeline(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	event := models.NewEmergencyEvent(models.EmergencyTypeGeneral, models.PriorityMedium, gachibowli, "chest pain", time.Now())

	resp := h.orch.HandleEmergency(context.Background(), event)
	require.True(t, resp.Success, resp.Message)
	assert.NotNil(t, resp.Dispatch)
	assert.Contains(t, messagesFor(h.orch.FullLog(), event.ID), "Orchestrating general emergency response...")
}

func TestBloodEmergencyRequiresPatient(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	inventory := h.life.Inventories()
	event := models.NewEmergencyEvent(models.EmergencyTypeBlood, models.PriorityCritical, gachibowli, "", time.Now())

	resp := h.orch.HandleEmergency(context.Background(), event)
	assert.False(t, resp.Success)
	assert.Equal(t, "Patient information required for blood emergency", resp.Message)
	assert.Empty(t, resp.AgentResponses)

	got, ok := h.orch.Emergency(event.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusDetected, got.Status)
	assert.Equal(t, inventory, h.life.Inventories())
}

func TestBloodEmergencyRequiresBloodType(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	event := models.NewEmergencyEvent(models.EmergencyTypeBlood, models.PriorityCritical, gachibowli, "", time.Now())
	event.Patient = &models.PatientRecord{Name: "Ravi"}

	resp := h.orch.HandleEmergency(context.Background(), event)
	assert.False(t, resp.Success)
	assert.Equal(t, "Blood type required", resp.Message)
	assert.Empty(t, resp.AgentResponses)
}

func TestBloodEmergencyReservesAndRoutes(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.orch.RequestBloodEmergency(context.Background(), "O+", "Ravi", gachibowli, models.PriorityCritical)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "Blood emergency coordinated. 2 units of O+ available at City General Hospital", resp.Message)
	require.Len(t, resp.AgentResponses, 2)
	assert.Equal(t, lifesupport.AgentName, resp.AgentResponses[0].AgentName)
	assert.Equal(t, route.AgentName, resp.AgentResponses[1].AgentName)
	assert.Nil(t, resp.Dispatch)

	stock, _ := h.life.Inventory("H001")
	assert.Equal(t, 18, stock["O+"])

	got, _ := h.orch.Emergency(resp.EmergencyID)
	assert.Equal(t, models.StatusDispatched, got.Status)
	assert.Equal(t, "Blood emergency: O+ needed for Ravi", got.Description)
}

// The coordinator reports a donor match as a success, but with no blood
// reserved the pipeline reports failure using the coordinator's message.
func TestBloodEmergencyDonorFallbackFailsPipeline(t *testing.T) {
	h := newHarness(t, harnessOptions{inventory: models.BloodInventory{}})

	resp := h.orch.RequestBloodEmergency(context.Background(), "O-", "", gachibowli, models.PriorityHigh)
	assert.False(t, resp.Success)
	assert.Equal(t, "Blood not available in banks. Found 1 nearby donors.", resp.Message)

	require.Len(t, resp.AgentResponses, 1)
	assert.True(t, resp.AgentResponses[0].Success)
	assert.IsType(t, models.DonorListPayload{}, resp.AgentResponses[0].Data)

	got, _ := h.orch.Emergency(resp.EmergencyID)
	assert.Equal(t, models.StatusDetected, got.Status)
	assert.Equal(t, "Unknown", got.Patient.DisplayName())
}

func TestBloodEmergencyUnavailable(t *testing.T) {
	h := newHarness(t, harnessOptions{inventory: models.BloodInventory{}, donors: []models.Donor{}})

	resp := h.orch.RequestBloodEmergency(context.Background(), "AB-", "Ravi", gachibowli, models.PriorityHigh)
	assert.False(t, resp.Success)
	assert.Equal(t, "Blood type AB- not available in sufficient quantity. Expanding search...", resp.Message)
}

func TestMaternityEmergency(t *testing.T) {
	h := newHarness(t, harnessOptions{generator: completion.NewMockGenerator("Monitor contractions.")})
	ctx := context.Background()

	first := h.orch.RequestMaternityEmergency(ctx, "Lakshmi", 29, gachibowli, "Labour contractions")
	require.True(t, first.Success, first.Message)
	assert.Equal(t, "Maternity emergency coordinated. Ambulance dispatched to City General Hospital", first.Message)
	require.Len(t, first.AgentResponses, 2)
	require.NotNil(t, first.Dispatch)
	assert.Equal(t, "AMB001", first.Dispatch.Ambulance.ID)

	// The only H001 ambulance is gone; the ward is still secured.
	second := h.orch.RequestMaternityEmergency(ctx, "Divya", 31, gachibowli, "Water broke")
	require.True(t, second.Success)
	require.Len(t, second.AgentResponses, 2)
	assert.False(t, second.AgentResponses[1].Success)
	assert.Nil(t, second.Dispatch)

	for _, id := range []string{first.EmergencyID, second.EmergencyID} {
		got, _ := h.orch.Emergency(id)
		assert.Equal(t, models.StatusDispatched, got.Status)
	}
}

func TestMaternityEmergencyDefaultsPatient(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	event := models.NewEmergencyEvent(models.EmergencyTypeMaternity, models.PriorityHigh, gachibowli, "", time.Now())

	resp := h.orch.HandleEmergency(context.Background(), event)
	require.True(t, resp.Success)
	payload := resp.AgentResponses[0].Data.(models.MaternityPayload)
	assert.Equal(t, "Patient", payload.Event.Patient.Name)
}

func TestUnsupportedTypeIsRejected(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	resp := h.orch.HandleEmergency(context.Background(), models.EmergencyEvent{Type: "FIRE"})
	assert.False(t, resp.Success)
	assert.Empty(t, h.orch.ActiveEmergencies())
}

func TestClearLogKeepsEmergencies(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	h.orch.ReportAccident(ctx, gachibowli, "test collision")
	require.NotEmpty(t, h.orch.RecentLog())

	require.NoError(t, h.orch.ClearLog(ctx))
	assert.Empty(t, h.orch.RecentLog())
	assert.Empty(t, h.orch.FullLog())
	assert.Len(t, h.orch.ActiveEmergencies(), 1)
	assert.Equal(t, 1, h.sink.cleared)

	require.NoError(t, h.orch.ClearLog(ctx))
	assert.Empty(t, h.orch.RecentLog())
}

func TestRecentLogIsCapped(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		h.orch.StartAccidentMonitoring(ctx)
	}

	recent := h.orch.RecentLog()
	assert.Len(t, recent, RecentLogSize)
	assert.Len(t, h.orch.FullLog(), 30)
	for _, line := range recent {
		assert.Regexp(t, `^\[\d{1,5}\] Accident monitoring started$`, line)
	}
}

func TestUpdateEmergencyStatus(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	resp := h.orch.ReportAccident(ctx, gachibowli, "test collision")
	other := h.orch.RequestBloodEmergency(ctx, "A+", "Ravi", gachibowli, models.PriorityHigh)
	id := resp.EmergencyID

	require.NoError(t, h.orch.UpdateEmergencyStatus(ctx, id, models.StatusEnRoute))
	require.NoError(t, h.orch.UpdateEmergencyStatus(ctx, id, models.StatusArrived))

	err := h.orch.UpdateEmergencyStatus(ctx, id, models.StatusDispatched)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = h.orch.UpdateEmergencyStatus(ctx, "ACC-0", models.StatusResolved)
	assert.ErrorIs(t, err, ErrEmergencyNotFound)

	err = h.orch.UpdateEmergencyStatus(ctx, id, "PAUSED")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, _ := h.orch.Emergency(id)
	assert.Equal(t, models.StatusArrived, got.Status)
	untouched, _ := h.orch.Emergency(other.EmergencyID)
	assert.Equal(t, models.StatusDispatched, untouched.Status)

	trail := messagesFor(h.orch.FullLog(), id)
	assert.Contains(t, trail, "Emergency "+id+" status updated to ARRIVED")
	assert.Contains(t, trail, "Emergency "+id+" status update to DISPATCHED rejected: currently ARRIVED")
	assert.True(t, containsPrefix(messagesFor(h.orch.FullLog(), "ACC-0"), "Emergency ACC-0 status update to RESOLVED rejected"))

	require.NoError(t, h.orch.UpdateEmergencyStatus(ctx, id, models.StatusCancelled))
	assert.ErrorIs(t, h.orch.UpdateEmergencyStatus(ctx, id, models.StatusResolved), ErrInvalidTransition)
}

func TestStatusReport(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, harnessOptions{generator: completion.NewFailingGenerator(errors.New("offline"))})
	resp := h.orch.ReportAccident(ctx, gachibowli, "test collision")
	report, err := h.orch.StatusReport(ctx, resp.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, "Status: DISPATCHED", report)

	report, err = h.orch.StatusReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrEmergencyNotFound)
	assert.Equal(t, "Emergency not found", report)

	gen := completion.NewMockGenerator("Ambulance en route.")
	h = newHarness(t, harnessOptions{generator: gen})
	resp = h.orch.ReportAccident(ctx, gachibowli, "test collision")
	report, err = h.orch.StatusReport(ctx, resp.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, "Ambulance en route.", report)
	prompts := gen.Prompts()
	assert.Contains(t, prompts[len(prompts)-1], "ID: "+resp.EmergencyID)
}

type panickingAccident struct {
	*accident.Responder
}

func (panickingAccident) FindNearestHospitals(models.Coordinate, int) []models.Hospital {
	panic("directory corrupted")
}

func TestPipelinePanicIsContained(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	orch, err := New(Config{
		Accident:    panickingAccident{h.accident},
		LifeSupport: h.life,
		Routes:      h.routes,
		Recorder:    h.recorder,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	ctx := context.Background()

	resp := orch.ReportAccident(ctx, gachibowli, "test collision")
	assert.False(t, resp.Success)
	assert.Equal(t, "Orchestration failed: directory corrupted", resp.Message)
	assert.Len(t, orch.ActiveEmergencies(), 1)
	assert.True(t, containsPrefix(messagesFor(orch.FullLog(), resp.EmergencyID), "Error in orchestration: directory corrupted"))
	assert.Equal(t, 1, h.recorder.emergencies["ACCIDENT/panic"])

	blood := orch.RequestBloodEmergency(ctx, "O+", "Ravi", gachibowli, models.PriorityHigh)
	assert.True(t, blood.Success, "other pipelines keep working after a fault")
}

func TestRunHandlesDetectedCollisions(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	h.orch.StartAccidentMonitoring(ctx)
	assert.True(t, h.orch.IsMonitoring())
	require.True(t, h.accident.OnAcceleration(35, 10, 5))

	require.Eventually(t, func() bool {
		emergencies := h.orch.ActiveEmergencies()
		return len(emergencies) == 1 && emergencies[0].Status == models.StatusDispatched
	}, 2*time.Second, 5*time.Millisecond)

	event := h.orch.ActiveEmergencies()[0]
	assert.Equal(t, models.PriorityCritical, event.Priority)
	require.NotNil(t, event.Sensor)
	assert.Contains(t, messagesFor(h.orch.FullLog(), event.ID), "ACCIDENT DETECTED by collision sensor")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSubscribeReceivesLatestSnapshot(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	updates, cancel := h.orch.Subscribe()

	initial := <-updates
	assert.Empty(t, initial.Emergencies)

	h.orch.ReportAccident(context.Background(), gachibowli, "test collision")

	latest := <-updates
	require.Len(t, latest.Emergencies, 1)
	assert.Equal(t, models.StatusDispatched, latest.Emergencies[0].Status)
	assert.Equal(t, h.orch.RecentLog(), latest.Log)

	cancel()
	_, open := <-updates
	assert.False(t, open)
	cancel()
}

func TestConcurrentEmergenciesAreAllRecorded(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.orch.RequestBloodEmergency(ctx, "O+", fmt.Sprintf("patient-%d", i), gachibowli, models.PriorityHigh)
		}(i)
	}
	wg.Wait()

	emergencies := h.orch.ActiveEmergencies()
	require.Len(t, emergencies, 10)
	seen := map[string]bool{}
	for _, e := range emergencies {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
		assert.Equal(t, models.StatusDispatched, e.Status)
	}

	total := 0
	for _, stock := range h.life.Inventories() {
		total += stock["O+"]
	}
	assert.Equal(t, 20+30+15+22-20, total)
}

func TestNewRequiresAgents(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
