package lifesupport

import "github.com/medipulse/medipulse/internal/models"

// BloodTypes lists the blood groups tracked by every blood bank.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}

// ValidBloodType reports whether bloodType is one of BloodTypes.
func ValidBloodType(bloodType string) bool {
	for _, t := range BloodTypes {
		if t == bloodType {
			return true
		}
	}
	return false
}

// SeedInventory returns the built-in blood bank stock for hospitals H001-H004.
func SeedInventory() models.BloodInventory {
	return models.BloodInventory{
		"H001": {"A+": 15, "A-": 5, "B+": 12, "B-": 3, "O+": 20, "O-": 8, "AB+": 7, "AB-": 2},
		"H002": {"A+": 25, "A-": 10, "B+": 18, "B-": 6, "O+": 30, "O-": 12, "AB+": 10, "AB-": 4},
		"H003": {"A+": 8, "A-": 3, "B+": 10, "B-": 2, "O+": 15, "O-": 5, "AB+": 4, "AB-": 1},
		"H004": {"A+": 18, "A-": 7, "B+": 14, "B-": 5, "O+": 22, "O-": 9, "AB+": 8, "AB-": 3},
	}
}

// SeedDonors returns the built-in donor registry.
func SeedDonors() []models.Donor {
	return []models.Donor{
		{ID: "D001", Name: "Rajesh Kumar", BloodType: "O+", Location: models.Coordinate{Latitude: 17.4100, Longitude: 78.4800, Address: "Gachibowli"}, Contact: "+91-9876543220", Available: true},
		{ID: "D002", Name: "Priya Sharma", BloodType: "A+", Location: models.Coordinate{Latitude: 17.4239, Longitude: 78.4738, Address: "Jubilee Hills"}, Contact: "+91-9876543221", Available: true},
		{ID: "D003", Name: "Vikram Singh", BloodType: "B+", Location: models.Coordinate{Latitude: 17.4435, Longitude: 78.3772, Address: "Madhapur"}, Contact: "+91-9876543222", Available: true},
		{ID: "D004", Name: "Anjali Reddy", BloodType: "AB+", Location: models.Coordinate{Latitude: 17.3850, Longitude: 78.4867, Address: "Malakpet"}, Contact: "+91-9876543223", Available: true},
		{ID: "D005", Name: "Karthik Rao", BloodType: "O-", Location: models.Coordinate{Latitude: 17.4200, Longitude: 78.4600, Address: "HITEC City"}, Contact: "+91-9876543224", Available: true},
	}
}
