package consumer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/domain/dto"
	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/retry"
)

const backoff = 2 * time.Minute

var day = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func sampleObjects() []models.NormalizedObject {
	return []models.NormalizedObject{
		{ID: "a", IsHazardous: true, Distance: models.Distance{Kilometers: 1000000.5}},
		{ID: "b", Distance: models.Distance{Kilometers: 200000}},
		{ID: "c", IsHazardous: true, Distance: models.Distance{Kilometers: 300000.4}},
	}
}

// flakyService answers 500 for the first failures calls to /neos.
func flakyService(t *testing.T, failures int32, hits *atomic.Int32, ids *sync.Map) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if ids != nil {
			ids.Store(r.Header.Get("X-Request-ID"), true)
		}
		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(dto.NewErrorResponse("Failed to fetch asteroid data", &apperr.UpstreamError{Status: 503}))
			return
		}
		_ = json.NewEncoder(w).Encode(dto.NewDayResponse(r.URL.Query().Get("date"), sampleObjects()))
	}))
}

func advance(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(backoff)
	}
}

type loadResult struct {
	view *DayView
	err  error
}

func loadAsync(ctx context.Context, d *Dashboard) <-chan loadResult {
	done := make(chan loadResult, 1)
	go func() {
		v, err := d.LoadDay(ctx, day)
		done <- loadResult{v, err}
	}()
	return done
}

func await(t *testing.T, done <-chan loadResult) loadResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("LoadDay did not return")
		return loadResult{}
	}
}

func TestClient_FetchDay(t *testing.T) {
	var hits atomic.Int32
	srv := flakyService(t, 0, &hits, nil)
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/", time.Second).FetchDay(context.Background(), day, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", resp.Date)
	assert.Equal(t, 3, resp.Count)
}

func TestClient_FetchDay_ErrorEnvelope(t *testing.T) {
	var hits atomic.Int32
	srv := flakyService(t, 1, &hits, nil)
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchDay(context.Background(), day, "")

	var up *apperr.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, http.StatusInternalServerError, up.Status)
	assert.Equal(t, "Failed to fetch asteroid data", up.Message)
}

func TestClient_FetchDay_FallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchDay(context.Background(), day, "")

	var up *apperr.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "Failed to fetch asteroid data.", up.Message)
}

func TestClient_FetchDay_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchDay(context.Background(), day, "")

	var shape *apperr.DataShapeError
	require.ErrorAs(t, err, &shape)
}

func TestClient_FetchHistorical(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/neos/historical", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(dto.HistoricalResponse{StartDate: "2024-01-01", EndDate: "2024-01-02", Data: []models.DailySummary{{Date: "2024-01-01"}, {Date: "2024-01-02"}}})
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	_, err := c.FetchHistorical(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)

	r, err := models.NewDateRange(day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	resp, err := c.FetchHistorical(context.Background(), &r)
	require.NoError(t, err)
	assert.Equal(t, "end_date=2024-01-02&start_date=2024-01-01", gotQuery)
	assert.Len(t, resp.Data, 2)
}

func TestDashboard_LoadDay_RecoversAfterColdStart(t *testing.T) {
	var hits atomic.Int32
	var ids sync.Map
	srv := flakyService(t, 2, &hits, &ids)
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	d := NewDashboard(NewClient(srv.URL, time.Second), retry.Policy{MaxAttempts: 3, BackoffDelay: backoff}, WithClock(clock))

	done := loadAsync(context.Background(), d)
	advance(t, clock, 2)
	res := await(t, done)

	require.NoError(t, res.err)
	assert.Equal(t, 3, res.view.Attempts)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 3, res.view.Stats.Total)

	distinct := 0
	ids.Range(func(_, _ any) bool { distinct++; return true })
	assert.Equal(t, 1, distinct, "retries of one load share a request id")

	last, lastErr := d.LastDay()
	assert.Same(t, res.view, last)
	assert.NoError(t, lastErr)
}

func TestDashboard_LoadDay_ExhaustedMessage(t *testing.T) {
	var hits atomic.Int32
	srv := flakyService(t, 100, &hits, nil)
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	d := NewDashboard(NewClient(srv.URL, time.Second), retry.Policy{MaxAttempts: 3, BackoffDelay: backoff}, WithClock(clock))

	done := loadAsync(context.Background(), d)
	advance(t, clock, 2)
	res := await(t, done)

	require.Error(t, res.err)
	assert.Equal(t, "Failed to fetch asteroid data: upstream error (status 503): Service Unavailable. "+retry.ColdStartHint, res.err.Error())
	assert.Equal(t, int32(3), hits.Load())

	_, lastErr := d.LastDay()
	assert.Equal(t, res.err, lastErr)
}

func TestDashboard_LoadDay_ExhaustedServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	clock := clockwork.NewFakeClock()
	d := NewDashboard(NewClient(baseURL, time.Second), retry.Policy{MaxAttempts: 2, BackoffDelay: backoff}, WithClock(clock))

	done := loadAsync(context.Background(), d)
	advance(t, clock, 1)
	res := await(t, done)

	require.Error(t, res.err)
	msg := res.err.Error()
	assert.True(t, strings.HasPrefix(msg, "Failed to fetch asteroid data: "), msg)
	assert.Contains(t, msg, "connection refused")
	assert.True(t, strings.HasSuffix(msg, ". "+retry.ColdStartHint), msg)
}

func TestDashboard_LoadDay_CancelDuringBackoff(t *testing.T) {
	var hits atomic.Int32
	srv := flakyService(t, 100, &hits, nil)
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	var mu sync.Mutex
	var states []retry.State
	d := NewDashboard(NewClient(srv.URL, time.Second), retry.Policy{MaxAttempts: 3, BackoffDelay: backoff},
		WithClock(clock),
		WithStateObserver(func(s retry.State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := loadAsync(ctx, d)

	armCtx, armCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer armCancel()
	require.NoError(t, clock.BlockUntilContext(armCtx, 1))
	cancel()

	res := await(t, done)
	require.ErrorIs(t, res.err, context.Canceled)
	clock.Advance(10 * backoff)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(1), hits.Load())
	last, lastErr := d.LastDay()
	assert.Nil(t, last)
	assert.NoError(t, lastErr)
	mu.Lock()
	assert.Equal(t, []retry.State{retry.Fetching, retry.AwaitingBackoff}, states)
	mu.Unlock()
}

type stubSource struct {
	history *dto.HistoricalResponse
	err     error
	calls   int
}

func (s *stubSource) FetchDay(context.Context, time.Time, string) (*dto.DayResponse, error) {
	return nil, s.err
}

func (s *stubSource) FetchHistorical(context.Context, *models.DateRange) (*dto.HistoricalResponse, error) {
	s.calls++
	return s.history, s.err
}

func TestDashboard_LoadHistory(t *testing.T) {
	src := &stubSource{history: &dto.HistoricalResponse{
		StartDate: "2024-01-01",
		EndDate:   "2024-01-02",
		Data: []models.DailySummary{
			{Date: "2024-01-01", TotalCount: 3, HazardousCount: 1, AverageDistanceKilometers: 500000},
			{Date: "2024-01-02"},
		},
	}}
	d := NewDashboard(src, retry.DefaultPolicy())

	view, err := d.LoadHistory(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, HistoryTotals{DaysTracked: 2, TotalObjects: 3, TotalHazardous: 1, MeanDailyDistanceKm: 250000}, view.Totals)
}

func TestDashboard_LoadHistory_DoesNotRetry(t *testing.T) {
	src := &stubSource{err: &apperr.UpstreamError{Status: 500, Message: "Failed to fetch historical data"}}
	d := NewDashboard(src, retry.DefaultPolicy())

	_, err := d.LoadHistory(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, src.calls)
	assert.NotContains(t, err.Error(), retry.ColdStartHint)
}

func TestDashboard_LoadDay_NonRetryable(t *testing.T) {
	src := &stubSource{err: &apperr.DataShapeError{Field: "body", RawValue: "x"}}
	d := NewDashboard(src, retry.DefaultPolicy(), WithClock(clockwork.NewFakeClock()))

	_, err := d.LoadDay(context.Background(), day)

	var shape *apperr.DataShapeError
	require.ErrorAs(t, err, &shape)
}

func TestComputeDayStats(t *testing.T) {
	s := ComputeDayStats(sampleObjects())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Hazardous)
	assert.Equal(t, int64(500000), s.AverageDistanceKm)
	assert.Equal(t, HazardLow, s.Level)
	require.NotNil(t, s.Closest)
	assert.Equal(t, "b", s.Closest.ID)

	empty := ComputeDayStats(nil)
	assert.Equal(t, DayStats{Level: HazardNone}, empty)
}

func TestHazardLevel(t *testing.T) {
	cases := map[int]HazardLevel{0: HazardNone, 1: HazardLow, 2: HazardLow, 3: HazardMedium, 5: HazardMedium, 6: HazardHigh, 40: HazardHigh}
	for n, want := range cases {
		assert.Equal(t, want, hazardLevel(n), "hazardous=%d", n)
	}
}

func TestWatch_Once(t *testing.T) {
	var hits atomic.Int32
	srv := flakyService(t, 0, &hits, nil)
	defer srv.Close()
	d := NewDashboard(NewClient(srv.URL, time.Second), retry.DefaultPolicy())

	err := Watch(context.Background(), d, time.Time{}, 0, func() time.Time { return day })
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWatch_ScheduledUntilCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := flakyService(t, 0, &hits, nil)
	defer srv.Close()
	d := NewDashboard(NewClient(srv.URL, time.Second), retry.DefaultPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- Watch(ctx, d, day, time.Hour, time.Now) }()

	assert.Eventually(t, func() bool {
		last, _ := d.LastDay()
		return last != nil
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
	last, _ := d.LastDay()
	require.NotNil(t, last)
	assert.Equal(t, "2024-01-01", last.Date)
}
