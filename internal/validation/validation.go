package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictDuplicateID     ConflictType = "duplicate_id"
	ConflictInvalidDateTime ConflictType = "invalid_datetime"
	ConflictUnknownRepeat   ConflictType = "unknown_repeat_type"
	ConflictEndBeforeStart  ConflictType = "end_before_start"
	ConflictExpired         ConflictType = "expired"
	ConflictSameInstant     ConflictType = "same_instant"
)

// Conflict represents a problem found in a reminder set
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // messages of the reminders involved
	ReminderIDs []int64
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Has reports whether a conflict of type t was found.
func (vr *ValidationResult) Has(t ConflictType) bool {
	for _, c := range vr.Conflicts {
		if c.Type == t {
			return true
		}
	}
	return false
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks a reminder set as seen from one location.
type Validator struct {
	Location *time.Location
}

// New creates a Validator for loc. Nil means time.Local.
func New(loc *time.Location) *Validator {
	if loc == nil {
		loc = time.Local
	}
	return &Validator{Location: loc}
}

// ValidateReminders reports reminders that will not fire the way a
// caregiver likely intended. None of these block an import: duplicate IDs
// are stored last-wins and past reminders are shown crossed out.
func (v *Validator) ValidateReminders(reminders []models.Reminder, now time.Time) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	byID := make(map[int64][]models.Reminder)
	var ids []int64
	for _, r := range reminders {
		if _, seen := byID[r.ID]; !seen {
			ids = append(ids, r.ID)
		}
		byID[r.ID] = append(byID[r.ID], r)
	}
	for _, id := range ids {
		dupes := byID[id]
		if len(dupes) < 2 {
			continue
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateID,
			Description: fmt.Sprintf("Duplicate reminder id %d: only \"%s\" is kept", id, dupes[len(dupes)-1].Message),
			Items:       messages(dupes),
			ReminderIDs: []int64{id},
		})
	}

	instants := make(map[time.Time][]models.Reminder)
	for _, r := range reminders {
		at, err := utils.ParseInstant(r.Time, v.Location)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("Reminder \"%s\" has invalid time: %s", r.Message, r.Time),
				Items:       []string{r.Message},
				ReminderIDs: []int64{r.ID},
			})
			continue
		}
		if !r.RepeatType.IsValid() {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnknownRepeat,
				Description: fmt.Sprintf("Reminder \"%s\" has unknown repeat type: %s", r.Message, r.RepeatType),
				Items:       []string{r.Message},
				ReminderIDs: []int64{r.ID},
			})
			continue
		}

		end, err := r.EndOfEndDate(v.Location)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDateTime,
				Description: fmt.Sprintf("Reminder \"%s\" has invalid end date: %s", r.Message, r.EndDate),
				Items:       []string{r.Message},
				ReminderIDs: []int64{r.ID},
			})
			continue
		}

		switch {
		case end != nil && end.Before(at):
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictEndBeforeStart,
				Description: fmt.Sprintf("Reminder \"%s\" ends on %s, before it starts on %s", r.Message, r.EndDate, at.Format(constants.DateFormat)),
				Items:       []string{r.Message},
				ReminderIDs: []int64{r.ID},
			})
		case end != nil && !end.After(now):
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictExpired,
				Description: fmt.Sprintf("Reminder \"%s\" ended on %s and will not fire", r.Message, r.EndDate),
				Items:       []string{r.Message},
				ReminderIDs: []int64{r.ID},
			})
		case !r.RepeatType.IsRepeating() && !at.After(now):
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictExpired,
				Description: fmt.Sprintf("Reminder \"%s\" was due %s and will not fire", r.Message, at.Format(constants.DisplayFormat)),
				Items:       []string{r.Message},
				ReminderIDs: []int64{r.ID},
			})
		}

		if !r.RepeatType.IsRepeating() {
			key := at.Truncate(time.Minute)
			instants[key] = append(instants[key], r)
		}
	}

	var shared []time.Time
	for at, rs := range instants {
		if len(rs) > 1 {
			shared = append(shared, at)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Before(shared[j]) })
	for _, at := range shared {
		rs := instants[at]
		ids := make([]int64, len(rs))
		for i, r := range rs {
			ids[i] = r.ID
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictSameInstant,
			Description: fmt.Sprintf("%d reminders fire at %s: %s", len(rs), at.Format(constants.DisplayFormat), strings.Join(messages(rs), ", ")),
			Items:       messages(rs),
			ReminderIDs: ids,
		})
	}

	return result
}

func messages(rs []models.Reminder) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Message
	}
	return out
}
