package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/saviottt/solarcalc/internal/climate"
)

const (
	defaultInterval = 6 * time.Hour
	refreshTimeout  = 30 * time.Second
)

// Warmer is the part of climate.Service the scheduler drives.
type Warmer interface {
	Refresh(ctx context.Context, loc climate.Location) error
	Prune() int
}

// Scheduler periodically refreshes climate normals for configured locations
// and prunes expired cache entries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	locations []climate.Location
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. A non-positive interval falls back to six hours.
func New(locations []climate.Location, interval time.Duration, warmer Warmer, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		warmer:    warmer,
		locations: locations,
		interval:  interval,
		logger:    logger.With(slog.String("component", "scheduler")),
	}
}

// Start schedules the warm-up job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no warm locations configured; only pruning the cache")
	}

	_, err := s.scheduler.Every(s.interval).Do(s.Run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Run refreshes every location concurrently and prunes expired entries.
func (s *Scheduler) Run() {
	started := time.Now()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			if err := s.warmer.Refresh(ctx, loc); err != nil {
				s.logger.Warn("climate refresh failed",
					slog.String("location", loc.Key()),
					slog.Any("error", err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	pruned := s.warmer.Prune()
	s.logger.Info("climate warm-up completed",
		slog.Int("locations", len(s.locations)),
		slog.Int("failed", failed),
		slog.Int("pruned", pruned),
		slog.Duration("took", time.Since(started)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
