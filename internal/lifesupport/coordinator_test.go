package lifesupport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medipulse/medipulse/internal/accident"
	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/models"
)

var gachibowli = models.Coordinate{Latitude: 17.4065, Longitude: 78.4772, Address: "Gachibowli"}

func newTestCoordinator(opts Options) *Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Logger = logger
	if opts.Advisor == nil {
		opts.Advisor = completion.NewAdvisor(completion.NewMockGenerator("Keep blood at 4C."), time.Second, logger, nil)
	}
	return NewCoordinator(opts)
}

func TestRequestBloodReservesAtNearestBank(t *testing.T) {
	c := newTestCoordinator(Options{})
	hospitals := accident.SeedHospitals()
	before := c.Inventories()

	resp := c.RequestBlood(context.Background(), "O+", 2, "Ravi", gachibowli, models.PriorityCritical, hospitals)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "Blood available at City General Hospital. 2 units of O+ reserved.", resp.Message)

	payload, ok := resp.Data.(models.BloodRequestPayload)
	require.True(t, ok)
	assert.Equal(t, models.BloodRequestApproved, payload.Request.Status)
	assert.Equal(t, "H001", payload.Request.Hospital.ID)
	assert.Equal(t, "Keep blood at 4C.", payload.Request.Guidance)
	assert.Equal(t, models.PriorityCritical, payload.Request.Urgency)

	after := c.Inventories()
	for id, stock := range before {
		for bloodType, n := range stock {
			want := n
			if id == "H001" && bloodType == "O+" {
				want = n - 2
			}
			assert.Equal(t, want, after[id][bloodType], "%s %s", id, bloodType)
		}
	}
	assert.Len(t, c.BloodRequests(), 1)
}

func TestRequestBloodSkipsHospitalsWithoutEnoughStock(t *testing.T) {
	c := newTestCoordinator(Options{})
	hospitals := accident.SeedHospitals()

	// Only Apollo holds 4 units of AB-.
	resp := c.RequestBlood(context.Background(), "AB-", 4, "Unknown", gachibowli, models.PriorityHigh, hospitals)
	require.True(t, resp.Success)
	assert.Equal(t, "H002", resp.Data.(models.BloodRequestPayload).Request.Hospital.ID)

	stock, ok := c.Inventory("H002")
	require.True(t, ok)
	assert.Equal(t, 0, stock["AB-"])

	// Apollo is now empty and nobody else has 4 units; no AB- donors exist.
	again := c.RequestBlood(context.Background(), "AB-", 4, "Unknown", gachibowli, models.PriorityHigh, hospitals)
	assert.False(t, again.Success)
	assert.Equal(t, "Blood type AB- not available in sufficient quantity. Expanding search...", again.Message)

	for id, stock := range c.Inventories() {
		for bloodType, n := range stock {
			assert.GreaterOrEqual(t, n, 0, "%s %s", id, bloodType)
		}
	}
}

func TestRequestBloodIgnoresHospitalsWithoutBloodBank(t *testing.T) {
	c := newTestCoordinator(Options{Donors: []models.Donor{}})
	hospitals := accident.SeedHospitals()
	for i := range hospitals {
		hospitals[i].HasBloodBank = false
	}

	resp := c.RequestBlood(context.Background(), "O+", 1, "Unknown", gachibowli, models.PriorityHigh, hospitals)
	assert.False(t, resp.Success)
	assert.Equal(t, SeedInventory(), c.Inventories())
}

func TestRequestBloodFallsBackToDonors(t *testing.T) {
	c := newTestCoordinator(Options{
		Inventory: models.BloodInventory{},
		Donors: []models.Donor{
			{ID: "far", BloodType: "O-", Available: true, Location: models.Coordinate{Latitude: 17.50, Longitude: 78.50}},
			{ID: "near", BloodType: "O-", Available: true, Location: models.Coordinate{Latitude: 17.41, Longitude: 78.48}},
			{ID: "busy", BloodType: "O-", Available: false, Location: gachibowli},
			{ID: "wrong-type", BloodType: "O+", Available: true, Location: gachibowli},
			{ID: "spare", BloodType: "O-", Available: true, Location: models.Coordinate{Latitude: 17.60, Longitude: 78.60}},
		},
	})

	resp := c.RequestBlood(context.Background(), "O-", 2, "Unknown", gachibowli, models.PriorityHigh, accident.SeedHospitals())
	require.True(t, resp.Success)
	assert.Equal(t, "Blood not available in banks. Found 2 nearby donors.", resp.Message)

	payload, ok := resp.Data.(models.DonorListPayload)
	require.True(t, ok)
	require.Len(t, payload.Donors, 2)
	assert.Equal(t, "near", payload.Donors[0].ID)
	assert.Equal(t, "far", payload.Donors[1].ID)
	assert.Greater(t, payload.Donors[0].Distance, 0.0)

	for _, d := range c.Donors("O-") {
		assert.Zero(t, d.Distance, "registry donor %s carries a distance", d.ID)
	}
	assert.Empty(t, c.BloodRequests())
}

func TestRequestBloodFailsWithoutStockOrDonors(t *testing.T) {
	c := newTestCoordinator(Options{
		Inventory: SeedInventory(),
		Donors:    []models.Donor{{ID: "D001", BloodType: "O+", Available: true, Location: gachibowli}},
	})

	resp := c.RequestBlood(context.Background(), "AB-", 500, "Unknown", gachibowli, models.PriorityCritical, accident.SeedHospitals())
	assert.False(t, resp.Success)
	assert.Equal(t, "Blood type AB- not available in sufficient quantity. Expanding search...", resp.Message)
	assert.Equal(t, SeedInventory(), c.Inventories())
	assert.Empty(t, c.BloodRequests())
}

func TestRequestBloodValidation(t *testing.T) {
	c := newTestCoordinator(Options{})

	resp := c.RequestBlood(context.Background(), "", 2, "Unknown", gachibowli, models.PriorityHigh, accident.SeedHospitals())
	assert.False(t, resp.Success)
	assert.Equal(t, "Blood type required", resp.Message)

	resp = c.RequestBlood(context.Background(), "O+", 0, "Unknown", gachibowli, models.PriorityHigh, accident.SeedHospitals())
	assert.False(t, resp.Success)
	assert.Equal(t, SeedInventory(), c.Inventories())
}

func TestRequestBloodSurvivesAdvisorFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := newTestCoordinator(Options{
		Advisor: completion.NewAdvisor(completion.NewFailingGenerator(errors.New("no model")), time.Second, logger, nil),
	})

	resp := c.RequestBlood(context.Background(), "A+", 1, "Unknown", gachibowli, models.PriorityHigh, accident.SeedHospitals())
	require.True(t, resp.Success)
	assert.Empty(t, resp.Data.(models.BloodRequestPayload).Request.Guidance)
}

func TestHandleMaternityEmergency(t *testing.T) {
	c := newTestCoordinator(Options{})
	madhapur := models.Coordinate{Latitude: 17.4435, Longitude: 78.3772, Address: "Madhapur"}
	patient := models.PatientRecord{Name: "Lakshmi", Age: 29}

	resp := c.HandleMaternityEmergency(context.Background(), patient, madhapur, "Labour contractions", accident.SeedHospitals())
	require.True(t, resp.Success, resp.Message)

	payload, ok := resp.Data.(models.MaternityPayload)
	require.True(t, ok)
	// Medicover sits at the location but has no maternity ward.
	assert.NotEqual(t, "H003", payload.Hospital.ID)
	assert.True(t, payload.Hospital.HasMaternityWard)
	assert.Equal(t, models.StatusDispatched, payload.Event.Status)
	assert.Equal(t, models.EmergencyTypeMaternity, payload.Event.Type)
	assert.Equal(t, models.PriorityHigh, payload.Event.Priority)
	assert.Equal(t, "Lakshmi", payload.Event.Patient.DisplayName())
	assert.Equal(t, "Keep blood at 4C.", payload.Guidance)
	assert.Equal(t, "Maternity ward secured at "+payload.Hospital.Name+". Bed reserved.", resp.Message)
	assert.Len(t, c.MaternityEmergencies(), 1)
}

func TestHandleMaternityEmergencyNoBeds(t *testing.T) {
	c := newTestCoordinator(Options{})
	hospitals := accident.SeedHospitals()
	for i := range hospitals {
		hospitals[i].AvailableBeds = 0
	}

	resp := c.HandleMaternityEmergency(context.Background(), models.PatientRecord{}, gachibowli, "", hospitals)
	assert.False(t, resp.Success)
	assert.Equal(t, "No maternity wards available nearby", resp.Message)
	assert.Empty(t, c.MaternityEmergencies())
}

func TestDonorRegistry(t *testing.T) {
	c := newTestCoordinator(Options{})
	assert.Len(t, c.Donors(""), 5)
	assert.Len(t, c.Donors("O+"), 1)

	resp := c.RegisterDonor(models.Donor{Name: "Meera", BloodType: "O+", Available: true})
	assert.True(t, resp.Success)
	assert.Equal(t, "Donor Meera registered successfully", resp.Message)

	donors := c.Donors("O+")
	require.Len(t, donors, 2)
	assert.Equal(t, "D006", donors[1].ID)
}

func TestInventoryReturnsCopies(t *testing.T) {
	c := newTestCoordinator(Options{})

	stock, ok := c.Inventory("H001")
	require.True(t, ok)
	stock["O+"] = 0

	all := c.Inventories()
	all["H002"]["A+"] = 0

	fresh, _ := c.Inventory("H001")
	assert.Equal(t, 20, fresh["O+"])
	assert.Equal(t, 25, c.Inventories()["H002"]["A+"])

	_, ok = c.Inventory("H999")
	assert.False(t, ok)
}
