package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/neowatch/internal/apperr"
	"github.com/guttosm/neowatch/internal/domain/models"
	"github.com/guttosm/neowatch/internal/ingestion"
	"github.com/guttosm/neowatch/internal/logger"
	"github.com/guttosm/neowatch/internal/metrics"
	"github.com/guttosm/neowatch/internal/upstream"
)

// maxConcurrentWindows bounds how many provider windows a long historical
// range fetches at once.
const maxConcurrentWindows = 4

// NeoService defines the read operations exposed over HTTP.
type NeoService interface {
	GetDay(ctx context.Context, day time.Time) ([]models.NormalizedObject, error)
	GetHistorical(ctx context.Context, r models.DateRange) (models.AggregateResult, error)
}

type neoService struct {
	fetcher      upstream.Fetcher
	maxRangeDays int
	metrics      *metrics.Metrics
}

// NewNeoService builds a NeoService on top of f. Ranges longer than
// maxRangeDays are fetched as several provider windows.
func NewNeoService(f upstream.Fetcher, maxRangeDays int, m *metrics.Metrics) NeoService {
	return &neoService{fetcher: f, maxRangeDays: maxRangeDays, metrics: m}
}

func (s *neoService) GetDay(ctx context.Context, day time.Time) ([]models.NormalizedObject, error) {
	r := models.SingleDay(day)
	payload, err := s.fetcher.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}

	objs, err := ingestion.Normalize(r.StartDate(), payload.NearEarthObjects[r.StartDate()])
	if err != nil {
		s.shapeError(err)
		return nil, err
	}
	return objs, nil
}

func (s *neoService) GetHistorical(ctx context.Context, r models.DateRange) (models.AggregateResult, error) {
	windows := ingestion.SplitRange(r, s.maxRangeDays)
	payloads := make([]*models.RawFeedPayload, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWindows)
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			p, err := s.fetcher.Fetch(gctx, w)
			if err != nil {
				return err
			}
			payloads[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(windows) > 1 {
		logger.L().Debug().Str("range", r.String()).Int("windows", len(windows)).Msg("historical range fetched in windows")
	}

	perDay := make(map[string][]models.RawRecord)
	for _, p := range payloads {
		for day, recs := range p.NearEarthObjects {
			perDay[day] = append(perDay[day], recs...)
		}
	}

	result, err := ingestion.Aggregate(r, perDay)
	if err != nil {
		s.shapeError(err)
		return nil, err
	}
	return result, nil
}

func (s *neoService) shapeError(err error) {
	var shape *apperr.DataShapeError
	if s.metrics != nil && errors.As(err, &shape) {
		s.metrics.ShapeErrors.Inc()
	}
	logger.L().Error().Err(err).Msg("provider payload rejected")
}
