package housekeeping

import (
	"context"
	"time"

	"github.com/isdelr/kochbuch-be/internal/services"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	eventSvc  services.EventServiceProvider
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewScheduler creates a scheduler that prunes events older than retention
// on the given cron schedule.
func NewScheduler(eventSvc services.EventServiceProvider, schedule string, retention time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		eventSvc:  eventSvc,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.runPrune); err != nil {
		return nil, errors.Wrapf(err, "schedule event pruning %q", schedule)
	}
	return s, nil
}

// Run starts the scheduler in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Dur("retention", s.retention).Msg("Starting housekeeping scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped housekeeping scheduler")
}

// PruneEvents deletes events past the retention window.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.eventSvc.PruneEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "prune events")
	}
	return n, nil
}

func (s *Scheduler) runPrune() {
	n, err := s.PruneEvents(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Housekeeping: failed to prune events")
		return
	}
	log.Info().Int64("deleted", n).Msg("Housekeeping: pruned old events")
}
