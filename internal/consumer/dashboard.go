package consumer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/logger"
	"github.com/guttosm/neowatch/internal/metrics"
	"github.com/guttosm/neowatch/internal/retry"
)

// HazardLevel grades a day by its number of potentially hazardous objects.
type HazardLevel string

const (
	HazardNone   HazardLevel = "none"
	HazardLow    HazardLevel = "low"    // 1-2
	HazardMedium HazardLevel = "medium" // 3-5
	HazardHigh   HazardLevel = "high"   // 6+
)

func hazardLevel(hazardous int) HazardLevel {
	switch {
	case hazardous == 0:
		return HazardNone
	case hazardous <= 2:
		return HazardLow
	case hazardous <= 5:
		return HazardMedium
	default:
		return HazardHigh
	}
}

// DayStats are the headline numbers shown for one day.
type DayStats struct {
	Total             int
	Hazardous         int
	AverageDistanceKm int64 // rounded; 0 when Total is 0
	Level             HazardLevel
	Closest           *models.NormalizedObject
}

// DayView is the outcome of one LoadDay.
type DayView struct {
	Date      string
	Asteroids []models.NormalizedObject
	Stats     DayStats
	Attempts  int
}

// HistoryTotals summarize a historical window.
type HistoryTotals struct {
	DaysTracked         int
	TotalObjects        int
	TotalHazardous      int
	MeanDailyDistanceKm float64
}

// HistoryView is the outcome of one LoadHistory.
type HistoryView struct {
	StartDate string
	EndDate   string
	Data      []models.DailySummary
	Totals    HistoryTotals
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithClock replaces the clock used for retry backoff.
func WithClock(c clockwork.Clock) Option {
	return func(d *Dashboard) { d.clock = c }
}

// WithMetrics records retry attempts and waits.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dashboard) { d.metrics = m }
}

// WithStateObserver is notified of every retry state transition of LoadDay.
func WithStateObserver(fn func(retry.State)) Option {
	return func(d *Dashboard) { d.observer = fn }
}

// Dashboard loads day and history views from a DataSource. Day loads retry
// with backoff; history loads do not.
type Dashboard struct {
	source   DataSource
	policy   retry.Policy
	clock    clockwork.Clock
	metrics  *metrics.Metrics
	observer func(retry.State)

	mu      sync.Mutex
	lastDay *DayView
	lastErr error
}

// NewDashboard builds a Dashboard around source.
func NewDashboard(source DataSource, policy retry.Policy, opts ...Option) *Dashboard {
	d := &Dashboard{
		source: source,
		policy: policy,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LoadDay fetches the objects for day, retrying retryable failures per the
// policy. On exhaustion the error message ends with the cold-start hint.
//
// Cancelling ctx while a retry is pending drops the retry and leaves the
// previous view and error untouched.
func (d *Dashboard) LoadDay(ctx context.Context, day time.Time) (*DayView, error) {
	opts := []retry.Option{retry.WithClock(d.clock)}
	if d.metrics != nil {
		opts = append(opts, retry.WithMetrics(d.metrics))
	}
	if d.observer != nil {
		opts = append(opts, retry.WithObserver(d.observer))
	}
	ctrl := retry.New(d.policy, opts...)

	requestID := uuid.NewString()
	date := models.TruncateDay(day).Format(models.DateLayout)

	var view *DayView
	err := ctrl.Run(ctx, func(ctx context.Context) error {
		resp, err := d.source.FetchDay(ctx, day, requestID)
		if err != nil {
			return err
		}
		view = &DayView{Date: resp.Date, Asteroids: resp.Asteroids, Stats: ComputeDayStats(resp.Asteroids)}
		return nil
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		logger.L().Error().Str("date", date).Str("request_id", requestID).Int("attempts", ctrl.Attempts()).Err(err).Msg("day load failed")
		d.lastErr = err
		return nil, err
	}
	view.Attempts = ctrl.Attempts()
	d.lastDay = view
	d.lastErr = nil
	logger.L().Info().Str("date", date).Int("total", view.Stats.Total).Int("hazardous", view.Stats.Hazardous).Int("attempts", view.Attempts).Msg("day loaded")
	return view, nil
}

// LoadHistory fetches daily summaries once, without retrying. A nil range
// uses the service's default window.
func (d *Dashboard) LoadHistory(ctx context.Context, r *models.DateRange) (*HistoryView, error) {
	resp, err := d.source.FetchHistorical(ctx, r)
	if err != nil {
		return nil, err
	}
	return &HistoryView{
		StartDate: resp.StartDate,
		EndDate:   resp.EndDate,
		Data:      resp.Data,
		Totals:    ComputeHistoryTotals(resp.Data),
	}, nil
}

// LastDay returns the most recent successful day view and the error of the
// most recent completed load, if it failed.
func (d *Dashboard) LastDay() (*DayView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastDay, d.lastErr
}

// ComputeDayStats derives the headline numbers for a day's objects.
func ComputeDayStats(objs []models.NormalizedObject) DayStats {
	s := DayStats{Total: len(objs)}
	if len(objs) == 0 {
		s.Level = HazardNone
		return s
	}

	var sum float64
	for i := range objs {
		o := &objs[i]
		if o.IsHazardous {
			s.Hazardous++
		}
		sum += o.Distance.Kilometers
		if s.Closest == nil || o.Distance.Kilometers < s.Closest.Distance.Kilometers {
			s.Closest = o
		}
	}
	s.AverageDistanceKm = int64(math.Round(sum / float64(len(objs))))
	s.Level = hazardLevel(s.Hazardous)
	return s
}

// ComputeHistoryTotals sums a window of daily summaries.
func ComputeHistoryTotals(days []models.DailySummary) HistoryTotals {
	t := HistoryTotals{DaysTracked: len(days)}
	if len(days) == 0 {
		return t
	}
	var sum float64
	for _, d := range days {
		t.TotalObjects += d.TotalCount
		t.TotalHazardous += d.HazardousCount
		sum += d.AverageDistanceKilometers
	}
	t.MeanDailyDistanceKm = sum / float64(len(days))
	return t
}
