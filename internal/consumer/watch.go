package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/guttosm/neowatch/internal/logger"
)

// Watch loads day once, or every interval when interval is positive, until
// ctx is done. today decides the day of each run when day is zero.
//
// Scheduled runs never overlap, so a load still waiting on backoff holds back
// the next one.
func Watch(ctx context.Context, d *Dashboard, day time.Time, interval time.Duration, today func() time.Time) error {
	pick := func() time.Time {
		if day.IsZero() {
			return today()
		}
		return day
	}

	if interval <= 0 {
		_, err := d.LoadDay(ctx, pick())
		return err
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(interval).Do(func() {
		if _, err := d.LoadDay(ctx, pick()); err != nil && ctx.Err() == nil {
			logger.L().Warn().Err(err).Msg("scheduled day load failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule day load: %w", err)
	}

	s.StartAsync()
	logger.L().Info().Dur("every", interval).Msg("watch started")
	<-ctx.Done()
	s.Stop()
	logger.L().Info().Msg("watch stopped")
	return nil
}
