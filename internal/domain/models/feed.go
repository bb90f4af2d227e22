package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// RawFeedPayload is the body of the provider's feed endpoint.
//
// NearEarthObjects is keyed by YYYY-MM-DD; the provider does not guarantee
// any key order.
type RawFeedPayload struct {
	ElementCount     int                    `json:"element_count"`
	NearEarthObjects map[string][]RawRecord `json:"near_earth_objects"`
}

// RawRecord is one object entry of a feed day, as sent by the provider.
type RawRecord struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	IsHazardous       bool               `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter RawEstimatedDiam   `json:"estimated_diameter"`
	CloseApproachData []RawCloseApproach `json:"close_approach_data"`
}

// RawEstimatedDiam groups the diameter estimates per unit.
type RawEstimatedDiam struct {
	Kilometers RawDiameterRange `json:"kilometers"`
}

// RawDiameterRange is an estimated diameter interval.
type RawDiameterRange struct {
	Min RawNumber `json:"estimated_diameter_min"`
	Max RawNumber `json:"estimated_diameter_max"`
}

// RawCloseApproach is one close-approach pass of an object.
type RawCloseApproach struct {
	CloseApproachDate string              `json:"close_approach_date"`
	RelativeVelocity  RawRelativeVelocity `json:"relative_velocity"`
	MissDistance      RawMissDistance     `json:"miss_distance"`
	OrbitingBody      string              `json:"orbiting_body"`
}

// RawRelativeVelocity carries the pass velocity; values arrive as strings.
type RawRelativeVelocity struct {
	KilometersPerHour RawNumber `json:"kilometers_per_hour"`
}

// RawMissDistance carries the pass distance; values arrive as strings.
type RawMissDistance struct {
	Kilometers RawNumber `json:"kilometers"`
	Lunar      RawNumber `json:"lunar"`
}

// RawNumber keeps the provider's textual representation of a number.
//
// The provider encodes some numbers as JSON strings and others as JSON
// numbers; both decode into RawNumber and are parsed later by Float.
type RawNumber string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (n *RawNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = RawNumber(s)
		return nil
	}
	*n = RawNumber(b)
	return nil
}

// Float parses n as a finite float64.
func (n RawNumber) Float() (float64, error) {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", string(n))
	}
	return v, nil
}
