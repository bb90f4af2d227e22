package models

// NormalizedObject is the stable internal shape of one near-Earth object as
// seen on a single feed day.
//
// Only the first close-approach entry reported by the provider is used to
// populate Distance, VelocityKmPerHour, CloseApproachDate and OrbitingBody.
//
// swagger:model NormalizedObject
type NormalizedObject struct {
	ID                string   `json:"id" example:"3542519"`
	Name              string   `json:"name" example:"(2010 PK9)"`
	IsHazardous       bool     `json:"isHazardous" example:"true"`
	Distance          Distance `json:"distance"`
	Diameter          Diameter `json:"diameter"`
	VelocityKmPerHour float64  `json:"velocityKmPerHour" example:"55234.8"`
	CloseApproachDate string   `json:"closeApproachDate" example:"2024-01-01"`
	OrbitingBody      string   `json:"orbitingBody" example:"Earth"`
}

// Distance is the miss distance of a close approach.
type Distance struct {
	Kilometers float64 `json:"kilometers" example:"1000000.5"`
	Lunar      float64 `json:"lunar" example:"2.6"`
}

// Diameter is the estimated diameter range in kilometers.
type Diameter struct {
	Min float64 `json:"min" example:"0.12"`
	Max float64 `json:"max" example:"0.27"`
}

// DailySummary is the per-day aggregate used for trend display.
//
// AverageDistanceKilometers is 0 when TotalCount is 0.
//
// swagger:model DailySummary
type DailySummary struct {
	Date                      string  `json:"date" example:"2024-01-03"`
	TotalCount                int     `json:"totalCount" example:"3"`
	HazardousCount            int     `json:"hazardousCount" example:"1"`
	AverageDistanceKilometers float64 `json:"averageDistanceKilometers" example:"500000"`
}

// AggregateResult holds one DailySummary per calendar day of a range,
// strictly ascending by date.
type AggregateResult []DailySummary

// TotalCount sums TotalCount across every day.
func (r AggregateResult) TotalCount() int {
	n := 0
	for _, s := range r {
		n += s.TotalCount
	}
	return n
}
