package notifier

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/careminder/internal/models"
)

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// NextFire returns the first occurrence of n strictly after after. One-shot
// triggers only have their own instant. The boolean is false when the
// trigger will never fire again.
func NextFire(n models.ScheduledNotification, after time.Time, loc *time.Location) (time.Time, bool, error) {
	if n.Kind == models.TriggerOnce {
		if n.FireAt.After(after) {
			return n.FireAt, true, nil
		}
		return time.Time{}, false, nil
	}

	rule, err := recurringRule(n, after, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	next := rule.After(after, false)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

func recurringRule(n models.ScheduledNotification, after time.Time, loc *time.Location) (*rrule.RRule, error) {
	if loc == nil {
		loc = time.Local
	}
	if n.Hour < 0 || n.Hour > 23 || n.Minute < 0 || n.Minute > 59 {
		return nil, fmt.Errorf("invalid time of day %02d:%02d", n.Hour, n.Minute)
	}

	// Start the rule a week before after so the first weekly occurrence is
	// never skipped.
	local := after.In(loc).AddDate(0, 0, -7)
	opt := rrule.ROption{
		Dtstart:  time.Date(local.Year(), local.Month(), local.Day(), n.Hour, n.Minute, 0, 0, loc),
		Byhour:   []int{n.Hour},
		Byminute: []int{n.Minute},
		Bysecond: []int{0},
	}

	switch n.Kind {
	case models.TriggerDaily:
		opt.Freq = rrule.DAILY
	case models.TriggerWeekly:
		wd, ok := weekdays[n.Weekday]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %d", n.Weekday)
		}
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{wd}
	default:
		return nil, fmt.Errorf("trigger kind %q is not recurring", n.Kind)
	}

	if n.Until != nil {
		opt.Until = n.Until.In(loc)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence rule: %w", err)
	}
	return rule, nil
}
