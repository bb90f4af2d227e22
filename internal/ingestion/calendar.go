package ingestion

import (
	"time"

	"github.com/guttosm/neowatch/internal/domain/models"
)

// DaysInRange returns every calendar day of r in strictly ascending order,
// both ends included. Aggregate relies on this order.
func DaysInRange(r models.DateRange) []time.Time {
	out := make([]time.Time, 0, r.Days())
	for d := models.TruncateDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// TrailingWindow returns the n-day range ending on the calendar day of from.
func TrailingWindow(n int, from time.Time) models.DateRange {
	if n < 1 {
		n = 1
	}
	end := models.TruncateDay(from)
	return models.DateRange{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// SplitRange cuts r into consecutive windows of at most maxDays days.
// A non-positive maxDays returns r unchanged.
func SplitRange(r models.DateRange, maxDays int) []models.DateRange {
	if maxDays <= 0 || r.Days() <= maxDays {
		return []models.DateRange{r}
	}

	var out []models.DateRange
	for start := r.Start; !start.After(r.End); start = start.AddDate(0, 0, maxDays) {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, models.DateRange{Start: start, End: end})
	}
	return out
}
