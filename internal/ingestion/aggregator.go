package ingestion

import (
	"fmt"

	"github.com/guttosm/neowatch/internal/domain/models"
)

// Aggregate folds per-day raw records into one DailySummary per calendar day
// of r, ascending by date. The order comes from DaysInRange, never from the
// key order of perDay.
//
// Days missing from perDay produce a zero summary. Keys outside r are
// ignored. The average distance of an empty day is 0, never NaN.
func Aggregate(r models.DateRange, perDay map[string][]models.RawRecord) (models.AggregateResult, error) {
	days := DaysInRange(r)
	result := make(models.AggregateResult, 0, len(days))

	for _, d := range days {
		key := d.Format(models.DateLayout)
		summary, err := summarizeDay(key, perDay[key])
		if err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, nil
}

func summarizeDay(day string, records []models.RawRecord) (models.DailySummary, error) {
	s := models.DailySummary{Date: day, TotalCount: len(records)}
	if len(records) == 0 {
		return s, nil
	}

	var sum float64
	for i, rec := range records {
		if rec.IsHazardous {
			s.HazardousCount++
		}
		km, err := PrimaryDistanceKm(rec)
		if err != nil {
			return models.DailySummary{}, fmt.Errorf("day %s record %d (%s): %w", day, i, rec.ID, err)
		}
		sum += km
	}
	s.AverageDistanceKilometers = sum / float64(len(records))
	return s, nil
}
