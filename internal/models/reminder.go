package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/careminder/internal/utils"
)

type RepeatType string

const (
	RepeatNone       RepeatType = "none"
	RepeatDaily      RepeatType = "daily"
	RepeatWeekly     RepeatType = "weekly"
	RepeatEvery2Days RepeatType = "every2days"
	RepeatEvery3Days RepeatType = "every3days"
	RepeatEvery4Days RepeatType = "every4days"
	RepeatEvery5Days RepeatType = "every5days"
	RepeatEvery6Days RepeatType = "every6days"
)

// RepeatTypes lists every accepted repeat type in display order.
var RepeatTypes = []RepeatType{
	RepeatNone,
	RepeatDaily,
	RepeatEvery2Days,
	RepeatEvery3Days,
	RepeatEvery4Days,
	RepeatEvery5Days,
	RepeatEvery6Days,
	RepeatWeekly,
}

// Normalize maps the absent repeat type to RepeatNone.
func (r RepeatType) Normalize() RepeatType {
	if r == "" {
		return RepeatNone
	}
	return r
}

// IsValid reports whether r is empty or one of the known repeat types.
func (r RepeatType) IsValid() bool {
	return slices.Contains(RepeatTypes, r.Normalize())
}

// IsRepeating reports whether r fires more than once.
func (r RepeatType) IsRepeating() bool {
	n := r.Normalize()
	return n != RepeatNone && n.IsValid()
}

// IntervalDays returns N for the everyNdays kinds.
func (r RepeatType) IntervalDays() (int, bool) {
	s := string(r)
	if !strings.HasPrefix(s, "every") || !strings.HasSuffix(s, "days") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(s, "every"), "days"))
	if err != nil || n < 2 || n > 6 {
		return 0, false
	}
	return n, true
}

type Reminder struct {
	ID         int64      `json:"id"`
	Message    string     `json:"message"`
	Time       string     `json:"time"` // ISO-8601
	Notified   bool       `json:"notified"`
	RepeatType RepeatType `json:"repeatType,omitempty"`
	EndDate    string     `json:"endDate,omitempty"` // YYYY-MM-DD
}

// Validate checks the fields that the scheduler depends on.
func (r *Reminder) Validate() error {
	if _, err := utils.ParseInstant(r.Time, time.Local); err != nil {
		return fmt.Errorf("reminder %d: %w", r.ID, err)
	}
	if !r.RepeatType.IsValid() {
		return fmt.Errorf("reminder %d: unknown repeat type %q", r.ID, r.RepeatType)
	}
	if r.EndDate != "" {
		if _, err := utils.ParseCalendarDate(r.EndDate, time.Local); err != nil {
			return fmt.Errorf("reminder %d: %w", r.ID, err)
		}
	}
	return nil
}

// At returns the reminder's base instant in loc.
func (r Reminder) At(loc *time.Location) (time.Time, error) {
	return utils.ParseInstant(r.Time, loc)
}

// EndOfEndDate returns 23:59:59.999 local on the end date, if one is set.
func (r Reminder) EndOfEndDate(loc *time.Location) (*time.Time, error) {
	if r.EndDate == "" {
		return nil, nil
	}
	day, err := utils.ParseCalendarDate(r.EndDate, loc)
	if err != nil {
		return nil, err
	}
	end := utils.EndOfDay(day)
	return &end, nil
}

// IsPast reports whether the base instant is before now. Unparseable
// times are never past.
func (r Reminder) IsPast(now time.Time) bool {
	at, err := r.At(now.Location())
	if err != nil {
		return false
	}
	return at.Before(now)
}

type PatientData struct {
	PatientName string     `json:"patientName"`
	Reminders   []Reminder `json:"reminders"`
}

// Clone returns a deep copy so callers cannot mutate session state.
func (p PatientData) Clone() PatientData {
	return PatientData{
		PatientName: p.PatientName,
		Reminders:   slices.Clone(p.Reminders),
	}
}

// SortedReminders returns the reminders ordered by base instant. Reminders
// whose time cannot be parsed sort last; ties keep their stored order.
func (p PatientData) SortedReminders() []Reminder {
	sorted := slices.Clone(p.Reminders)
	slices.SortStableFunc(sorted, func(a, b Reminder) int {
		at, aErr := a.At(time.Local)
		bt, bErr := b.At(time.Local)
		switch {
		case aErr != nil && bErr != nil:
			return 0
		case aErr != nil:
			return 1
		case bErr != nil:
			return -1
		}
		return at.Compare(bt)
	})
	return sorted
}
