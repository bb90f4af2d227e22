package ingestion

import (
	"errors"
	"testing"

	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/domain/models"
)

func TestNormalize_ParsesStringNumbers(t *testing.T) {
	raw := []models.RawRecord{
		rawRecord("1001", true, "1000000.5"),
		rawRecord("1002", false, "42.25"),
	}
	out, err := Normalize("2024-01-01", raw)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != len(raw) {
		t.Fatalf("length: want %d got %d", len(raw), len(out))
	}

	h := out[0]
	if !h.IsHazardous || h.ID != "1001" {
		t.Fatalf("unexpected first object %+v", h)
	}
	if h.Distance.Kilometers != 1000000.5 {
		t.Fatalf("kilometers: want 1000000.5 got %v", h.Distance.Kilometers)
	}
	if h.Distance.Lunar != 2.6 || h.VelocityKmPerHour != 55234.8 {
		t.Fatalf("unexpected lunar/velocity %+v", h)
	}
	if h.Diameter.Min != 0.12 || h.Diameter.Max != 0.27 {
		t.Fatalf("unexpected diameter %+v", h.Diameter)
	}
	if h.CloseApproachDate != "2024-01-01" || h.OrbitingBody != "Earth" {
		t.Fatalf("unexpected approach fields %+v", h)
	}
	if out[1].ID != "1002" {
		t.Fatalf("order not preserved")
	}
}

func TestNormalize_UsesFirstCloseApproach(t *testing.T) {
	rec := rawRecord("2001", false, "900000")
	rec.CloseApproachData = append(rec.CloseApproachData, models.RawCloseApproach{
		CloseApproachDate: "2031-05-02",
		RelativeVelocity:  models.RawRelativeVelocity{KilometersPerHour: "1000"},
		MissDistance:      models.RawMissDistance{Kilometers: "10", Lunar: "0.01"},
		OrbitingBody:      "Mars",
	})

	out, err := Normalize("2024-01-01", []models.RawRecord{rec})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out[0].Distance.Kilometers != 900000 || out[0].OrbitingBody != "Earth" {
		t.Fatalf("expected first approach to win, got %+v", out[0])
	}
}

func TestNormalize_DefaultsApproachDateToDay(t *testing.T) {
	rec := rawRecord("3001", false, "1")
	rec.CloseApproachData[0].CloseApproachDate = ""
	out, err := Normalize("2024-06-30", []models.RawRecord{rec})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out[0].CloseApproachDate != "2024-06-30" {
		t.Fatalf("got %q", out[0].CloseApproachDate)
	}
}

func TestNormalize_Empty(t *testing.T) {
	out, err := Normalize("2024-01-01", nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("unexpected out=%v err=%v", out, err)
	}
}

func TestNormalize_DataShapeErrors(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(r *models.RawRecord)
		field string
	}{
		{
			name:  "unparsable distance",
			mut:   func(r *models.RawRecord) { r.CloseApproachData[0].MissDistance.Kilometers = "far" },
			field: "miss_distance.kilometers",
		},
		{
			name:  "negative distance",
			mut:   func(r *models.RawRecord) { r.CloseApproachData[0].MissDistance.Kilometers = "-1" },
			field: "miss_distance.kilometers",
		},
		{
			name:  "missing lunar",
			mut:   func(r *models.RawRecord) { r.CloseApproachData[0].MissDistance.Lunar = "" },
			field: "miss_distance.lunar",
		},
		{
			name:  "infinite velocity",
			mut:   func(r *models.RawRecord) { r.CloseApproachData[0].RelativeVelocity.KilometersPerHour = "Inf" },
			field: "relative_velocity.kilometers_per_hour",
		},
		{
			name:  "negative diameter",
			mut:   func(r *models.RawRecord) { r.EstimatedDiameter.Kilometers.Min = "-0.5" },
			field: "estimated_diameter.kilometers.estimated_diameter_min",
		},
		{
			name: "inverted diameter",
			mut: func(r *models.RawRecord) {
				r.EstimatedDiameter.Kilometers.Min = "0.9"
				r.EstimatedDiameter.Kilometers.Max = "0.1"
			},
			field: "estimated_diameter.kilometers",
		},
		{
			name:  "no close approach",
			mut:   func(r *models.RawRecord) { r.CloseApproachData = nil },
			field: "close_approach_data",
		},
		{
			name:  "missing id",
			mut:   func(r *models.RawRecord) { r.ID = "" },
			field: "id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			good := rawRecord("ok", false, "5")
			bad := rawRecord("bad", false, "5")
			tc.mut(&bad)

			out, err := Normalize("2024-01-01", []models.RawRecord{good, bad})
			if out != nil {
				t.Fatalf("partial results returned: %+v", out)
			}
			var shape *apperr.DataShapeError
			if !errors.As(err, &shape) {
				t.Fatalf("expected DataShapeError, got %v", err)
			}
			if shape.Field != tc.field {
				t.Fatalf("field: want %q got %q", tc.field, shape.Field)
			}
			if apperr.Retryable(err) {
				t.Fatalf("data shape errors must not be retryable")
			}
		})
	}
}

func TestNormalize_Invariants(t *testing.T) {
	raw := []models.RawRecord{
		rawRecord("a", false, "0"),
		rawRecord("b", true, "384400"),
		rawRecord("c", false, "74799999.9"),
	}
	out, err := Normalize("2024-01-01", raw)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for _, o := range out {
		if o.Distance.Kilometers < 0 || o.Diameter.Min > o.Diameter.Max {
			t.Fatalf("invariant broken for %+v", o)
		}
	}
}
