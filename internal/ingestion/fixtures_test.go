package ingestion

import "github.com/guttosm/neowatch/internal/domain/models"

func rawRecord(id string, hazardous bool, km string) models.RawRecord {
	return models.RawRecord{
		ID:          id,
		Name:        "(" + id + ")",
		IsHazardous: hazardous,
		EstimatedDiameter: models.RawEstimatedDiam{
			Kilometers: models.RawDiameterRange{Min: "0.12", Max: "0.27"},
		},
		CloseApproachData: []models.RawCloseApproach{
			{
				CloseApproachDate: "2024-01-01",
				RelativeVelocity:  models.RawRelativeVelocity{KilometersPerHour: "55234.8"},
				MissDistance:      models.RawMissDistance{Kilometers: models.RawNumber(km), Lunar: "2.6"},
				OrbitingBody:      "Earth",
			},
		},
	}
}
