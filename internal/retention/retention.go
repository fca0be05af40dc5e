// Package retention purges log events older than the configured horizon.
package retention

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/metrics"
)

// ErrNegativeHorizon is returned when the stored horizon is below zero.
var ErrNegativeHorizon = errors.New("retention horizon is negative")

// Horizon returns the current retention horizon in days.
type Horizon interface {
	RetentionDays() (int, error)
}

// Purger removes events older than a number of days.
type Purger interface {
	PurgeOlderThan(days int) (int64, error)
}

// Result reports one sweep.
type Result struct {
	Days    int   `json:"days"`
	Removed int64 `json:"removed"`
}

// Sweeper runs purges on demand or on a schedule.
type Sweeper struct {
	horizon  Horizon
	purger   Purger
	counters *metrics.Counters
}

// New returns a Sweeper.
func New(horizon Horizon, purger Purger, counters *metrics.Counters) *Sweeper {
	if counters == nil {
		counters = metrics.NewUnregistered()
	}

	return &Sweeper{horizon: horizon, purger: purger, counters: counters}
}

// Sweep reads the horizon now and purges once. A horizon of 0 removes every
// event created before the call.
func (s *Sweeper) Sweep() (Result, error) {
	days, err := s.horizon.RetentionDays()
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to read retention horizon")
	}

	if days < 0 {
		return Result{Days: days}, ErrNegativeHorizon
	}

	removed, err := s.purger.PurgeOlderThan(days)
	if err != nil {
		return Result{Days: days}, errors.Wrap(err, "failed to purge log events")
	}

	s.counters.RetentionPurged.Add(float64(removed))

	log.Info().Int("days", days).Int64("removed", removed).Msg("retention sweep finished")

	return Result{Days: days, Removed: removed}, nil
}

// Run sweeps every interval until ctx is done. Errors are logged and the
// loop keeps going.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("retention sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("retention sweeper stopped")

			return
		case <-ticker.C:
			if _, err := s.Sweep(); err != nil {
				log.Error().Err(err).Msg("retention sweep failed")
			}
		}
	}
}
