package models

import "time"

type TriggerKind string

const (
	TriggerOnce   TriggerKind = "once"
	TriggerDaily  TriggerKind = "daily"
	TriggerWeekly TriggerKind = "weekly"
)

// ScheduledNotification is a trigger registered with the notification
// service. FireAt always holds the next instant the notification is due.
type ScheduledNotification struct {
	ID        string       `json:"id"`
	Kind      TriggerKind  `json:"kind"`
	FireAt    time.Time    `json:"fire_at"`
	Hour      int          `json:"hour,omitempty"`
	Minute    int          `json:"minute,omitempty"`
	Weekday   time.Weekday `json:"weekday,omitempty"`
	Until     *time.Time   `json:"until,omitempty"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsRecurring reports whether the notification repeats after firing.
func (n ScheduledNotification) IsRecurring() bool {
	return n.Kind == TriggerDaily || n.Kind == TriggerWeekly
}
