package accident

import "github.com/medipulse/medipulse/internal/models"

// SeedHospitals returns the built-in hospital directory.
func SeedHospitals() []models.Hospital {
	return []models.Hospital{
		{
			ID:               "H001",
			Name:             "City General Hospital",
			Location:         models.Coordinate{Latitude: 17.4065, Longitude: 78.4772, Address: "Gachibowli, Hyderabad"},
			Phone:            "+91-9876543210",
			HasEmergencyWard: true,
			HasBloodBank:     true,
			HasMaternityWard: true,
			AvailableBeds:    25,
		},
		{
			ID:               "H002",
			Name:             "Apollo Hospital",
			Location:         models.Coordinate{Latitude: 17.4239, Longitude: 78.4738, Address: "Jubilee Hills, Hyderabad"},
			Phone:            "+91-9876543211",
			HasEmergencyWard: true,
			HasBloodBank:     true,
			HasMaternityWard: true,
			AvailableBeds:    40,
		},
		{
			ID:               "H003",
			Name:             "Medicover Hospital",
			Location:         models.Coordinate{Latitude: 17.4435, Longitude: 78.3772, Address: "Madhapur, Hyderabad"},
			Phone:            "+91-9876543212",
			HasEmergencyWard: true,
			HasBloodBank:     true,
			HasMaternityWard: false,
			AvailableBeds:    15,
		},
		{
			ID:               "H004",
			Name:             "Yashoda Hospital",
			Location:         models.Coordinate{Latitude: 17.3850, Longitude: 78.4867, Address: "Malakpet, Hyderabad"},
			Phone:            "+91-9876543213",
			HasEmergencyWard: true,
			HasBloodBank:     true,
			HasMaternityWard: true,
			AvailableBeds:    30,
		},
	}
}

// SeedAmbulances returns the built-in fleet, all available.
func SeedAmbulances() []models.Ambulance {
	return []models.Ambulance{
		{
			ID:               "AMB001",
			VehicleNumber:    "TS 09 EA 1234",
			Location:         models.Coordinate{Latitude: 17.4100, Longitude: 78.4800},
			Available:        true,
			AssignedHospital: "H001",
			DriverName:       "Ramesh Kumar",
			DriverContact:    "+91-9123456780",
		},
		{
			ID:               "AMB002",
			VehicleNumber:    "TS 09 EA 5678",
			Location:         models.Coordinate{Latitude: 17.4250, Longitude: 78.4750},
			Available:        true,
			AssignedHospital: "H002",
			DriverName:       "Suresh Reddy",
			DriverContact:    "+91-9123456781",
		},
		{
			ID:               "AMB003",
			VehicleNumber:    "TS 09 EA 9012",
			Location:         models.Coordinate{Latitude: 17.4400, Longitude: 78.3800},
			Available:        true,
			AssignedHospital: "H003",
			DriverName:       "Mahesh Babu",
			DriverContact:    "+91-9123456782",
		},
	}
}
