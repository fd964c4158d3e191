package models

// Hospital is a directory entry. Distance and EstimatedMinutes are filled in
// per query relative to the query location and are never stored.
type Hospital struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Location         Coordinate `json:"location"`
	Phone            string     `json:"phone"`
	HasEmergencyWard bool       `json:"has_emergency_ward"`
	HasBloodBank     bool       `json:"has_blood_bank"`
	HasMaternityWard bool       `json:"has_maternity_ward"`
	AvailableBeds    int        `json:"available_beds"`
	Distance         float64    `json:"distance,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes,omitempty"`
}

// Ambulance is a fleet vehicle. AssignedHospital references Hospital.ID.
type Ambulance struct {
	ID               string     `json:"id"`
	VehicleNumber    string     `json:"vehicle_number"`
	Location         Coordinate `json:"location"`
	Available        bool       `json:"available"`
	AssignedHospital string     `json:"assigned_hospital"`
	DriverName       string     `json:"driver_name"`
	DriverContact    string     `json:"driver_contact"`
}

// Donor is a registered blood donor. Distance is query-scoped.
type Donor struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	BloodType string     `json:"blood_type"`
	Location  Coordinate `json:"location"`
	Contact   string     `json:"contact"`
	Available bool       `json:"available"`
	Distance  float64    `json:"distance,omitempty"`
}

// BloodRequestApproved is the status of a reservation made against a blood bank.
const BloodRequestApproved = "APPROVED"

// BloodRequest is a blood reservation at a hospital blood bank.
type BloodRequest struct {
	ID          string   `json:"id"`
	BloodType   string   `json:"blood_type"`
	Units       int      `json:"units"`
	Urgency     Priority `json:"urgency"`
	PatientName string   `json:"patient_name"`
	Hospital    Hospital `json:"hospital"`
	Status      string   `json:"status"`
	Guidance    string   `json:"guidance,omitempty"`
}

// BloodInventory maps hospital ID to blood type to unit count.
type BloodInventory map[string]map[string]int

// Clone returns a deep copy.
func (inv BloodInventory) Clone() BloodInventory {
	out := make(BloodInventory, len(inv))
	for id, units := range inv {
		copied := make(map[string]int, len(units))
		for bloodType, n := range units {
			copied[bloodType] = n
		}
		out[id] = copied
	}
	return out
}
