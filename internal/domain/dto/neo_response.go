package dto

import "github.com/guttosm/neowatch/internal/domain/models"

// DayResponse is returned by GET /neos.
type DayResponse struct {
	Date      string                    `json:"date" example:"2024-01-01"`
	Count     int                       `json:"count" example:"2"`
	Asteroids []models.NormalizedObject `json:"asteroids"`
}

// HistoricalResponse is returned by GET /neos/historical.
type HistoricalResponse struct {
	StartDate string                `json:"startDate" example:"2024-01-01"`
	EndDate   string                `json:"endDate" example:"2024-01-07"`
	Data      []models.DailySummary `json:"data"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status" example:"OK"`
	Message string `json:"message" example:"NEO feed service is running"`
}

// NewDayResponse wraps one day's objects. The slice is shared, not copied or
// reordered; a nil slice is reported as an empty list.
func NewDayResponse(date string, objects []models.NormalizedObject) DayResponse {
	if objects == nil {
		objects = []models.NormalizedObject{}
	}
	return DayResponse{
		Date:      date,
		Count:     len(objects),
		Asteroids: objects,
	}
}

// NewHistoricalResponse wraps an aggregate for the range it was computed on.
func NewHistoricalResponse(r models.DateRange, result models.AggregateResult) HistoricalResponse {
	data := []models.DailySummary(result)
	if data == nil {
		data = []models.DailySummary{}
	}
	return HistoricalResponse{
		StartDate: r.StartDate(),
		EndDate:   r.EndDate(),
		Data:      data,
	}
}
