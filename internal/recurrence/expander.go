// Package recurrence turns a stored reminder into the concrete triggers the
// notification service should register.
//
// Daily and weekly reminders become a single recurring-by-rule trigger and
// are left to the notification service to repeat. Interval reminders
// (every2days..every6days) are expanded here into one-shot triggers, capped
// at MaxScheduleDays/N steps and cut off at the end of the end date.
package recurrence

import (
	"fmt"
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/models"
)

// Trigger is either a one-shot instant or a recurring time-of-day rule.
type Trigger struct {
	Kind    models.TriggerKind
	At      time.Time    // one-shot instant
	Hour    int          // recurring time of day
	Minute  int          // recurring time of day
	Weekday time.Weekday // weekly only
	Until   *time.Time   // last eligible instant for a bounded recurring rule
}

func (t Trigger) String() string {
	switch t.Kind {
	case models.TriggerDaily:
		return fmt.Sprintf("daily at %02d:%02d", t.Hour, t.Minute)
	case models.TriggerWeekly:
		return fmt.Sprintf("weekly on %s at %02d:%02d", t.Weekday, t.Hour, t.Minute)
	default:
		return "once at " + t.At.Format(time.RFC3339)
	}
}

// Expander expands reminders in a fixed location.
type Expander struct {
	// Location is the device-local zone used for time-of-day extraction and
	// for end-of-day computation. Nil means time.Local.
	Location *time.Location
	// BoundRecurring makes daily and weekly rules stop after the end date.
	// When false they repeat indefinitely, as the native repeating triggers
	// they stand in for do.
	BoundRecurring bool
}

func (e Expander) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// Expand returns the triggers for r as seen at now. The sequence is always
// finite. Errors are only returned for reminders whose fields cannot be
// parsed; such reminders produce no triggers.
func (e Expander) Expand(r models.Reminder, now time.Time) (iter.Seq[Trigger], error) {
	loc := e.location()

	at, err := r.At(loc)
	if err != nil {
		return nil, fmt.Errorf("reminder %d: %w", r.ID, err)
	}
	end, err := r.EndOfEndDate(loc)
	if err != nil {
		return nil, fmt.Errorf("reminder %d: %w", r.ID, err)
	}

	// A reminder whose end date has passed is skipped whatever its kind.
	if end != nil && !end.After(now) {
		return empty, nil
	}

	var until *time.Time
	if e.BoundRecurring {
		until = end
	}

	repeat := r.RepeatType.Normalize()
	switch repeat {
	case models.RepeatNone:
		if !at.After(now) || r.Notified {
			return empty, nil
		}
		return single(Trigger{Kind: models.TriggerOnce, At: at}), nil
	case models.RepeatDaily:
		return single(Trigger{
			Kind:   models.TriggerDaily,
			Hour:   at.Hour(),
			Minute: at.Minute(),
			Until:  until,
		}), nil
	case models.RepeatWeekly:
		return single(Trigger{
			Kind:    models.TriggerWeekly,
			Weekday: at.Weekday(),
			Hour:    at.Hour(),
			Minute:  at.Minute(),
			Until:   until,
		}), nil
	}

	days, ok := repeat.IntervalDays()
	if !ok {
		return nil, fmt.Errorf("reminder %d: unknown repeat type %q", r.ID, r.RepeatType)
	}

	instants, err := Interval(at, days, end, now)
	if err != nil {
		return nil, fmt.Errorf("reminder %d: %w", r.ID, err)
	}
	return func(yield func(Trigger) bool) {
		for instant := range instants {
			if !yield(Trigger{Kind: models.TriggerOnce, At: instant}) {
				return
			}
		}
	}, nil
}

// Interval yields start, start+N days, start+2N days, ... for at most
// MaxScheduleDays/N steps. Steps at or before now are skipped but still
// count toward the cap. The first step after end stops the sequence.
func Interval(start time.Time, days int, end *time.Time, now time.Time) (iter.Seq[time.Time], error) {
	steps := MaxSteps(days)
	if steps == 0 {
		return func(func(time.Time) bool) {}, nil
	}

	opt := rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: days,
		Count:    steps,
		Dtstart:  start,
	}
	if end != nil {
		opt.Until = *end
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("invalid interval rule: %w", err)
	}

	// rrule works in whole seconds
	frac := time.Duration(start.Nanosecond())

	return func(yield func(time.Time) bool) {
		next := rule.Iterator()
		for {
			instant, ok := next()
			if !ok {
				return
			}
			instant = instant.Add(frac)
			if end != nil && instant.After(*end) {
				return
			}
			if instant.After(now) && !yield(instant) {
				return
			}
		}
	}, nil
}

// MaxSteps returns the step cap for an N-day interval.
func MaxSteps(days int) int {
	if days <= 0 {
		return 0
	}
	return constants.MaxScheduleDays / days
}

func empty(func(Trigger) bool) {}

func single(t Trigger) iter.Seq[Trigger] {
	return func(yield func(Trigger) bool) {
		yield(t)
	}
}
