// Package notifier is the local notification service. Triggers are kept in
// the datastore by a Queue and fired by a Dispatcher through a Sender.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/recurrence"
)

var (
	ErrPastInstant  = errors.New("trigger instant is not in the future")
	ErrNoOccurrence = errors.New("recurring trigger has no future occurrence")
)

// Service accepts trigger registrations and supports cancel-all.
type Service interface {
	Schedule(ctx context.Context, req Request) (string, error)
	CancelAll(ctx context.Context) error
}

type Request struct {
	Trigger recurrence.Trigger
	Title   string
	Body    string
}

// Store is the slice of the datastore the notification service needs.
type Store interface {
	AddNotification(models.ScheduledNotification) error
	GetAllNotifications() ([]models.ScheduledNotification, error)
	GetDueNotifications(now time.Time) ([]models.ScheduledNotification, error)
	UpdateNotification(models.ScheduledNotification) error
	DeleteNotification(id string) error
	DeleteAllNotifications() error
}

// Queue persists triggers so they survive restarts and can be fired by a
// separate daemon process.
type Queue struct {
	store    Store
	location *time.Location
	now      func() time.Time
	wake     func()
}

type QueueOption func(*Queue)

// WithClock overrides the clock used to compute next fire times.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// WithWake registers a callback invoked after each successful Schedule, so
// an in-process Dispatcher can pick up the new trigger immediately.
func WithWake(wake func()) QueueOption {
	return func(q *Queue) { q.wake = wake }
}

func NewQueue(store Store, loc *time.Location, opts ...QueueOption) *Queue {
	if loc == nil {
		loc = time.Local
	}
	q := &Queue{
		store:    store,
		location: loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) Schedule(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := q.now()
	n := models.ScheduledNotification{
		ID:        uuid.New().String(),
		Kind:      req.Trigger.Kind,
		Hour:      req.Trigger.Hour,
		Minute:    req.Trigger.Minute,
		Weekday:   req.Trigger.Weekday,
		Until:     req.Trigger.Until,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
	}

	switch req.Trigger.Kind {
	case models.TriggerOnce:
		if !req.Trigger.At.After(now) {
			return "", ErrPastInstant
		}
		n.FireAt = req.Trigger.At
	case models.TriggerDaily, models.TriggerWeekly:
		next, ok, err := NextFire(n, now, q.location)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNoOccurrence
		}
		n.FireAt = next
	default:
		return "", fmt.Errorf("unknown trigger kind %q", req.Trigger.Kind)
	}

	if err := q.store.AddNotification(n); err != nil {
		return "", fmt.Errorf("failed to store trigger: %w", err)
	}
	if q.wake != nil {
		q.wake()
	}
	return n.ID, nil
}

func (q *Queue) CancelAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.store.DeleteAllNotifications(); err != nil {
		return fmt.Errorf("failed to cancel triggers: %w", err)
	}
	return nil
}

// Pending returns every registered trigger ordered by next fire time.
func (q *Queue) Pending(ctx context.Context) ([]models.ScheduledNotification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.store.GetAllNotifications()
}
