// Package scheduler registers notification triggers for a reminder set
// using a cancel-all, reschedule-all policy.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/careminder/internal/constants"
	apperrors "github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/metrics"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/notifier"
	"github.com/julianstephens/careminder/internal/recurrence"
)

// Summary describes the outcome of one ScheduleAll pass.
type Summary struct {
	Reminders int
	Triggers  int
	Skipped   int // reminders that produced no trigger
	Failures  int // triggers the service rejected
}

type Config struct {
	Expander recurrence.Expander
	Title    string
	Now      func() time.Time
	Metrics  metrics.Recorder
}

type Scheduler struct {
	service  notifier.Service
	expander recurrence.Expander
	now      func() time.Time
	metrics  metrics.Recorder

	mu    sync.RWMutex
	title string
}

func New(service notifier.Service, cfg Config) *Scheduler {
	s := &Scheduler{
		service:  service,
		expander: cfg.Expander,
		now:      cfg.Now,
		metrics:  metrics.OrNoop(cfg.Metrics),
		title:    cfg.Title,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.title == "" {
		s.title = "Reminder " + constants.NotificationIcon
	}
	return s
}

// SetTitle changes the title used for triggers registered from now on.
func (s *Scheduler) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *Scheduler) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// ScheduleAll cancels every registered trigger, then registers the triggers
// of each reminder. Only a cancel-all failure is returned; a reminder that
// cannot be expanded or a trigger the service rejects is logged and skipped
// so the rest of the set is still scheduled.
func (s *Scheduler) ScheduleAll(ctx context.Context, reminders []models.Reminder) (Summary, error) {
	summary := Summary{Reminders: len(reminders)}

	if err := s.service.CancelAll(ctx); err != nil {
		return summary, fmt.Errorf("failed to cancel scheduled notifications: %w", err)
	}

	now := s.now()
	title := s.Title()

	for _, r := range reminders {
		triggers, err := s.expander.Expand(r, now)
		if err != nil {
			summary.Skipped++
			s.metrics.IncSchedulingFailures()
			logger.Warn("Skipping reminder", "error", &apperrors.SchedulingError{ReminderID: r.ID, Err: err})
			continue
		}

		registered := 0
		for t := range triggers {
			if _, err := s.service.Schedule(ctx, notifier.Request{
				Trigger: t,
				Title:   title,
				Body:    r.Message,
			}); err != nil {
				if errors.Is(err, notifier.ErrNoOccurrence) {
					logger.Debug("Rule has no occurrence before its end", "reminder", r.ID, "trigger", t.String())
					continue
				}
				summary.Failures++
				s.metrics.IncSchedulingFailures()
				logger.Warn("Failed to schedule notification",
					"trigger", t.String(),
					"error", &apperrors.SchedulingError{ReminderID: r.ID, Err: err})
				continue
			}
			registered++
			s.metrics.IncTriggersScheduled(t.Kind)
		}

		if registered == 0 {
			summary.Skipped++
		}
		summary.Triggers += registered
		logger.Debug("Reminder scheduled", "reminder", r.ID, "repeat", r.RepeatType.Normalize(), "triggers", registered)
	}

	logger.Info("Notifications scheduled",
		"reminders", summary.Reminders,
		"triggers", summary.Triggers,
		"failures", summary.Failures)
	return summary, nil
}
