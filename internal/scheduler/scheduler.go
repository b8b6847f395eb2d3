// Package scheduler runs the monitoring check at fixed local times each
// day.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
)

// Task is the work executed at each scheduled time.
type Task func(ctx context.Context)

type Scheduler struct {
	times  []checkTime
	task   Task
	logger *slog.Logger
	now    func() time.Time
}

type checkTime struct {
	hour, minute int
}

// New parses the HH:MM check times.
func New(cfg common.SchedulerConfig, task Task, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var times []checkTime
	for _, raw := range cfg.CheckTimes {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, common.NewAppError("SCHEDULER_CONFIG", "check times must be HH:MM", err)
		}
		times = append(times, checkTime{hour: t.Hour(), minute: t.Minute()})
	}
	if len(times) == 0 {
		return nil, common.NewAppError("SCHEDULER_CONFIG", "at least one check time required", common.ErrInvalidInput)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].hour != times[j].hour {
			return times[i].hour < times[j].hour
		}
		return times[i].minute < times[j].minute
	})
	return &Scheduler{times: times, task: task, logger: logger, now: time.Now}, nil
}

// SetClock replaces the time source (tests).
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// NextRun returns the next scheduled time strictly after now, in now's
// location.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	for _, ct := range s.times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), ct.hour, ct.minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
	}
	first := s.times[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.hour, first.minute, 0, 0, now.Location())
}

// Run blocks, executing the task at each scheduled time until the context
// is cancelled. A panicking task is logged and the schedule keeps going.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "daily_runs", len(s.times))
	for {
		next := s.NextRun(s.now())
		s.logger.Info("scheduler.next_run", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
			s.runTask(ctx)
		}
	}
}

func (s *Scheduler) runTask(ctx context.Context) {
	start := s.now()
	s.logger.Info("scheduled task starting")
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				"panic", r, "elapsed", s.now().Sub(start).String())
		}
	}()
	s.task(ctx)
	s.logger.Info("scheduled task completed", "elapsed", s.now().Sub(start).String())
}
