package store

import "policy-assistant/internal/model"

// Seed is the collection used when durable storage holds nothing usable.
func Seed() []model.Policy {
	return []model.Policy{
		{
			ID:          "1",
			PlateNumber: "34ABC123",
			HolderName:  "Ahmet Yılmaz",
			Type:        model.PolicyTypeTraffic,
			StartDate:   "2023-10-25",
			EndDate:     "2024-10-25",
			Premium:     4500,
			VehicleInfo: "2019 Renault Megane",
		},
		{
			ID:          "2",
			PlateNumber: "06XYZ987",
			HolderName:  "Ayşe Demir",
			Type:        model.PolicyTypeCasco,
			StartDate:   "2024-01-15",
			EndDate:     "2025-01-15",
			Premium:     12000,
			VehicleInfo: "2021 Peugeot 3008",
		},
		{
			ID:          "3",
			PlateNumber: "35DEF456",
			HolderName:  "Mehmet Kaya",
			Type:        model.PolicyTypeDASK,
			StartDate:   "2023-05-20",
			EndDate:     "2024-05-20",
			Premium:     850,
			VehicleInfo: "Konut - Kadıköy",
		},
	}
}
