package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Target is what the scheduler drives: periodic re-fetch of every live view
// and eviction of idle ones.
type Target interface {
	RefreshAll() int
	Prune() int
}

// Scheduler periodically refreshes live views and prunes idle ones.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Target
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(target Target, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	// The first run is skipped: views fetch on creation.
	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.refresh)
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(1).Minute().Do(s.prune)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Int("refresh_minutes", minutes))
	return nil
}

func (s *Scheduler) refresh() {
	s.logger.Debug("scheduler: running refresh job")
	n := s.target.RefreshAll()
	s.logger.Info("scheduler: refreshed views", zap.Int("views", n))
}

func (s *Scheduler) prune() {
	if n := s.target.Prune(); n > 0 {
		s.logger.Info("scheduler: pruned idle views", zap.Int("views", n))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
