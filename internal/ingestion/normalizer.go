package ingestion

import (
	"fmt"
	"strings"

	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/domain/models"
)

// Normalize maps one feed day's raw records into NormalizedObjects, keeping
// their order. It fails on the first record that does not have the expected
// shape; partial results are never returned.
//
// Only the first close-approach entry of each record is used. It is usually
// the pass nearest in time, not the one with the smallest miss distance.
func Normalize(day string, records []models.RawRecord) ([]models.NormalizedObject, error) {
	out := make([]models.NormalizedObject, 0, len(records))
	for i, rec := range records {
		obj, err := normalizeRecord(day, rec)
		if err != nil {
			return nil, fmt.Errorf("day %s record %d (%s): %w", day, i, rec.ID, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func normalizeRecord(day string, rec models.RawRecord) (models.NormalizedObject, error) {
	var obj models.NormalizedObject

	if strings.TrimSpace(rec.ID) == "" {
		return obj, &apperr.DataShapeError{Field: "id", RawValue: rec.ID}
	}

	approach, err := primaryApproach(rec)
	if err != nil {
		return obj, err
	}

	km, err := PrimaryDistanceKm(rec)
	if err != nil {
		return obj, err
	}
	lunar, err := parseNonNegative("miss_distance.lunar", approach.MissDistance.Lunar)
	if err != nil {
		return obj, err
	}
	velocity, err := parseNonNegative("relative_velocity.kilometers_per_hour", approach.RelativeVelocity.KilometersPerHour)
	if err != nil {
		return obj, err
	}

	diam := rec.EstimatedDiameter.Kilometers
	dMin, err := parseNonNegative("estimated_diameter.kilometers.estimated_diameter_min", diam.Min)
	if err != nil {
		return obj, err
	}
	dMax, err := parseNonNegative("estimated_diameter.kilometers.estimated_diameter_max", diam.Max)
	if err != nil {
		return obj, err
	}
	if dMax < dMin {
		return obj, &apperr.DataShapeError{
			Field:    "estimated_diameter.kilometers",
			RawValue: fmt.Sprintf("min=%s max=%s", diam.Min, diam.Max),
		}
	}

	approachDate := approach.CloseApproachDate
	if approachDate == "" {
		approachDate = day
	}

	obj = models.NormalizedObject{
		ID:                rec.ID,
		Name:              rec.Name,
		IsHazardous:       rec.IsHazardous,
		Distance:          models.Distance{Kilometers: km, Lunar: lunar},
		Diameter:          models.Diameter{Min: dMin, Max: dMax},
		VelocityKmPerHour: velocity,
		CloseApproachDate: approachDate,
		OrbitingBody:      approach.OrbitingBody,
	}
	return obj, nil
}

// PrimaryDistanceKm returns the miss distance in kilometers of the record's
// first close approach.
func PrimaryDistanceKm(rec models.RawRecord) (float64, error) {
	approach, err := primaryApproach(rec)
	if err != nil {
		return 0, err
	}
	return parseNonNegative("miss_distance.kilometers", approach.MissDistance.Kilometers)
}

func primaryApproach(rec models.RawRecord) (models.RawCloseApproach, error) {
	if len(rec.CloseApproachData) == 0 {
		return models.RawCloseApproach{}, &apperr.DataShapeError{Field: "close_approach_data", RawValue: "[]"}
	}
	return rec.CloseApproachData[0], nil
}

// parseNonNegative parses a raw provider number; unparsable, non-finite and
// negative values are shape defects.
func parseNonNegative(field string, raw models.RawNumber) (float64, error) {
	v, err := raw.Float()
	if err != nil || v < 0 {
		return 0, &apperr.DataShapeError{Field: field, RawValue: string(raw)}
	}
	return v, nil
}
