package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Purger removes expired entries from a token blacklist.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Scheduler runs maintenance jobs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
}

func NewScheduler(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.With().Str("component", "jobs").Logger(),
		timeout: time.Minute,
	}
}

// AddBlacklistPurge registers p.Purge under the given cron spec ("@hourly",
// "*/15 * * * *", ...).
func (s *Scheduler) AddBlacklistPurge(spec string, p Purger) error {
	if _, err := s.cron.AddFunc(spec, func() { s.runPurge(p) }); err != nil {
		return fmt.Errorf("schedule blacklist purge %q: %w", spec, err)
	}
	s.logger.Info().Str("schedule", spec).Msg("blacklist purge scheduled")
	return nil
}

func (s *Scheduler) runPurge(p Purger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := p.Purge(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("blacklist purge failed")
		return
	}
	s.logger.Info().
		Int64("removed", n).
		Dur("took", time.Since(start)).
		Msg("blacklist purge finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("jobs still running at shutdown")
	}
}
