package api

import (
	"net/http"

	"github.com/medipulse/medipulse/internal/models"
)

// HospitalsResponse lists hospitals, nearest first when a location is given.
type HospitalsResponse struct {
	Hospitals []models.Hospital `json:"hospitals"`
	Count     int               `json:"count"`
}

// AmbulancesResponse lists the fleet.
type AmbulancesResponse struct {
	Ambulances []models.Ambulance `json:"ambulances"`
	Count      int                `json:"count"`
}

// DonorsResponse lists registered donors.
type DonorsResponse struct {
	Donors []models.Donor `json:"donors"`
	Count  int            `json:"count"`
}

// ListHospitals handles GET /api/hospitals. With ?lat=&lng= the list is
// sorted by distance and carries query-scoped distances.
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" && q.Get("lng") == "" {
		hospitals := h.accident.Hospitals()
		h.writeJSON(w, http.StatusOK, HospitalsResponse{Hospitals: hospitals, Count: len(hospitals)})
		return
	}

	lat, err := parseFloatParam(q.Get("lat"), "lat")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lng, err := parseFloatParam(q.Get("lng"), "lng")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from := &models.Coordinate{Latitude: lat, Longitude: lng}
	if err := ValidateCoordinate("location", from); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	all := h.accident.Hospitals()
	hospitals := h.accident.FindNearestHospitals(*from, len(all))
	h.writeJSON(w, http.StatusOK, HospitalsResponse{Hospitals: hospitals, Count: len(hospitals)})
}

// DonorRequest registers a donor. Donors are available unless stated otherwise.
type DonorRequest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	BloodType string            `json:"blood_type"`
	Location  models.Coordinate `json:"location"`
	Contact   string            `json:"contact"`
	Available *bool             `json:"available"`
}

// ListAmbulances handles GET /api/ambulances. ?available=true filters to
// vehicles that can be dispatched.
func (h *Handler) ListAmbulances(w http.ResponseWriter, r *http.Request) {
	ambulances := h.accident.Ambulances()
	if r.URL.Query().Get("available") == "true" {
		ambulances = h.accident.AvailableAmbulances()
	}
	if ambulances == nil {
		ambulances = []models.Ambulance{}
	}
	h.writeJSON(w, http.StatusOK, AmbulancesResponse{Ambulances: ambulances, Count: len(ambulances)})
}

// BloodInventory handles GET /api/blood/inventory
func (h *Handler) BloodInventory(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.URL.Query().Get("hospital_id")
	if hospitalID == "" {
		h.writeJSON(w, http.StatusOK, h.life.Inventories())
		return
	}

	stock, ok := h.life.Inventory(hospitalID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "No blood bank inventory for hospital")
		return
	}
	h.writeJSON(w, http.StatusOK, stock)
}

// ListBloodRequests handles GET /api/blood/requests
func (h *Handler) ListBloodRequests(w http.ResponseWriter, r *http.Request) {
	requests := h.life.BloodRequests()
	if requests == nil {
		requests = []models.BloodRequest{}
	}
	h.writeJSON(w, http.StatusOK, requests)
}

// ListMaternity handles GET /api/maternity
func (h *Handler) ListMaternity(w http.ResponseWriter, r *http.Request) {
	events := h.life.MaternityEmergencies()
	if events == nil {
		events = []models.EmergencyEvent{}
	}
	h.writeJSON(w, http.StatusOK, EmergenciesResponse{Emergencies: events, Count: len(events)})
}

// ListDonors handles GET /api/donors
func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	bloodType := r.URL.Query().Get("blood_type")
	if err := ValidateBloodType(bloodType); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	donors := h.life.Donors(bloodType)
	if donors == nil {
		donors = []models.Donor{}
	}
	h.writeJSON(w, http.StatusOK, DonorsResponse{Donors: donors, Count: len(donors)})
}

// RegisterDonor handles POST /api/donors
func (h *Handler) RegisterDonor(w http.ResponseWriter, r *http.Request) {
	var req DonorRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	donor := models.Donor{
		ID:        req.ID,
		Name:      req.Name,
		BloodType: req.BloodType,
		Location:  req.Location,
		Contact:   req.Contact,
		Available: req.Available == nil || *req.Available,
	}
	if donor.Name == "" {
		h.writeError(w, http.StatusBadRequest, ValidationError{Field: "name", Message: "is required"}.Error())
		return
	}
	if donor.BloodType == "" {
		h.writeError(w, http.StatusBadRequest, ValidationError{Field: "blood_type", Message: "is required"}.Error())
		return
	}
	if err := ValidateBloodType(donor.BloodType); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateCoordinate("location", &donor.Location); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, h.life.RegisterDonor(donor))
}
