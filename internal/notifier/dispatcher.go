package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/metrics"
	"github.com/julianstephens/careminder/internal/models"
)

type Message struct {
	Title string
	Body  string
}

// Sender delivers a single notification to the user.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fires due triggers. Recurring triggers are advanced to their
// next occurrence after they fire; one-shot triggers are removed.
type Dispatcher struct {
	store    Store
	sender   Sender
	location *time.Location
	poll     time.Duration
	metrics  metrics.Recorder
	now      func() time.Time
	wake     chan struct{}
}

type DispatcherConfig struct {
	Location *time.Location
	Poll     time.Duration
	Metrics  metrics.Recorder
	Now      func() time.Time
}

func NewDispatcher(store Store, sender Sender, cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		sender:   sender,
		location: cfg.Location,
		poll:     cfg.Poll,
		metrics:  metrics.OrNoop(cfg.Metrics),
		now:      cfg.Now,
		wake:     make(chan struct{}, 1),
	}
	if d.location == nil {
		d.location = time.Local
	}
	if d.poll <= 0 {
		d.poll = constants.DefaultPollInterval
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Notify wakes Run without waiting for the next tick. It never blocks.
func (d *Dispatcher) Notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run dispatches due triggers until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	logger.Info("Notification dispatcher started", "poll", d.poll)
	for {
		if _, err := d.DispatchDue(ctx, d.now()); err != nil {
			logger.Warn("Failed to dispatch notifications", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("Notification dispatcher stopped")
			return nil
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// DispatchDue sends every trigger whose fire time is at or before now and
// returns how many were delivered. Delivery failures leave the trigger in
// place for the next pass.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.GetDueNotifications(now)
	if err != nil {
		return 0, fmt.Errorf("failed to load due notifications: %w", err)
	}

	sent := 0
	for _, n := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		if n.Until != nil && n.FireAt.After(*n.Until) {
			d.remove(n)
			continue
		}

		if err := d.sender.Send(ctx, Message{Title: n.Title, Body: n.Body}); err != nil {
			d.metrics.IncNotificationFailures()
			logger.Warn("Failed to send notification", "id", n.ID, "error", err)
			continue
		}
		d.metrics.IncNotificationsSent()
		sent++
		logger.Debug("Notification sent", "id", n.ID, "kind", n.Kind, "fire_at", n.FireAt)

		d.advance(n, now)
	}

	if all, err := d.store.GetAllNotifications(); err == nil {
		d.metrics.SetPendingTriggers(len(all))
	}
	return sent, nil
}

func (d *Dispatcher) advance(n models.ScheduledNotification, now time.Time) {
	if !n.IsRecurring() {
		d.remove(n)
		return
	}

	// Missed occurrences while the daemon was down collapse into one.
	after := now
	if n.FireAt.After(after) {
		after = n.FireAt
	}
	next, ok, err := NextFire(n, after, d.location)
	if err != nil || !ok {
		if err != nil {
			logger.Warn("Failed to compute next occurrence", "id", n.ID, "error", err)
		}
		d.remove(n)
		return
	}

	n.FireAt = next
	if err := d.store.UpdateNotification(n); err != nil {
		logger.Warn("Failed to advance notification", "id", n.ID, "error", err)
	}
}

func (d *Dispatcher) remove(n models.ScheduledNotification) {
	if err := d.store.DeleteNotification(n.ID); err != nil {
		logger.Warn("Failed to delete notification", "id", n.ID, "error", err)
	}
}
