// Package scheduler runs the daily rebuild and periodic housekeeping.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/retrain"
)

// Rebuilder runs a full rebuild.
type Rebuilder interface {
	Rebuild(ctx context.Context, trigger string) (*retrain.Result, error)
	Begin(trigger string) (func(ctx context.Context) (*retrain.Result, error), error)
}

// Pruner drops idle rate limiter state.
type Pruner interface {
	Prune() int
}

// Scheduler handles scheduled rebuild tasks
type Scheduler struct {
	cron      *cron.Cron
	rebuilder Rebuilder
	pruner    Pruner
	config    config.SchedulerConfig

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a new scheduler. pruner may be nil.
func NewScheduler(rebuilder Rebuilder, pruner Pruner, cfg config.SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(),
		rebuilder: rebuilder,
		pruner:    pruner,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	if s.pruner != nil {
		if _, err := s.cron.AddFunc("@hourly", func() {
			if n := s.pruner.Prune(); n > 0 {
				slog.Debug("Scheduler: pruned idle rate limit clients", "count", n)
			}
		}); err != nil {
			return err
		}
	}

	if s.config.DailyRunEnabled {
		cronSpec := parseDailyRunTime(s.config.DailyRunTime)
		_, err := s.cron.AddFunc(cronSpec, func() {
			slog.Info("Scheduler: starting daily rebuild")
			if err := s.run(models.TriggerScheduler); err != nil {
				slog.Error("Scheduler: daily rebuild failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
		slog.Info("Scheduler: daily rebuild scheduled", "at", s.config.DailyRunTime, "cron", cronSpec)
	} else {
		slog.Info("Scheduler: daily rebuild is disabled in configuration")
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop stops the scheduler and cancels a running rebuild.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.cancel()
		<-s.cron.Stop().Done()
		s.isRunning = false
		slog.Info("Scheduler: stopped")
	}
}

// RunNow immediately executes a rebuild (for manual trigger)
func (s *Scheduler) RunNow(trigger string) error {
	slog.Info("Scheduler: manual trigger, starting rebuild", "trigger", trigger)
	return s.run(trigger)
}

// RunAsync claims the rebuild slot and runs the rebuild in the background.
// It returns retrain.ErrAlreadyRunning when a rebuild is in progress.
func (s *Scheduler) RunAsync(trigger string) error {
	run, err := s.rebuilder.Begin(trigger)
	if err != nil {
		return err
	}
	slog.Info("Scheduler: manual trigger, starting rebuild in background", "trigger", trigger)
	go func() {
		result, err := run(s.ctx)
		if errors.Is(err, retrain.ErrAlreadyRunning) {
			slog.Info("Scheduler: another instance is rebuilding, skipped", "trigger", trigger)
			return
		}
		if err != nil {
			slog.Error("Scheduler: rebuild failed", "trigger", trigger, "error", err)
			return
		}
		logCompleted(result)
	}()
	return nil
}

func (s *Scheduler) run(trigger string) error {
	result, err := s.rebuilder.Rebuild(s.ctx, trigger)
	if errors.Is(err, retrain.ErrAlreadyRunning) {
		slog.Info("Scheduler: rebuild already running, skipped")
		return nil
	}
	if err != nil {
		return err
	}
	logCompleted(result)
	return nil
}

func logCompleted(result *retrain.Result) {
	slog.Info("Scheduler: rebuild completed",
		"run_id", result.Run.ID,
		"training_rows", result.Run.TrainingRows,
		"model_version", result.Run.ModelVersion)
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	slog.Warn("Scheduler: failed to parse run time, using default 03:00", "value", timeStr)
	return "0 3 * * *"
}
