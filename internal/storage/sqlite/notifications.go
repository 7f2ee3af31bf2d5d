package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/careminder/internal/models"
)

// timeLayout is fixed width in UTC so that stored instants sort and compare
// correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

const notificationColumns = `id, kind, fire_at, hour, minute, weekday, until, title, body, created_at`

func (s *Store) AddNotification(n models.ScheduledNotification) error {
	var until sql.NullString
	if n.Until != nil {
		until = sql.NullString{String: formatTime(*n.Until), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO scheduled_notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, string(n.Kind), formatTime(n.FireAt), n.Hour, n.Minute, int(n.Weekday),
		until, n.Title, n.Body, formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Store) GetAllNotifications() ([]models.ScheduledNotification, error) {
	return s.queryNotifications(`
		SELECT ` + notificationColumns + `
		FROM scheduled_notifications
		ORDER BY fire_at, id
	`)
}

func (s *Store) GetDueNotifications(now time.Time) ([]models.ScheduledNotification, error) {
	return s.queryNotifications(`
		SELECT `+notificationColumns+`
		FROM scheduled_notifications
		WHERE fire_at <= ?
		ORDER BY fire_at, id
	`, formatTime(now))
}

func (s *Store) UpdateNotification(n models.ScheduledNotification) error {
	var until sql.NullString
	if n.Until != nil {
		until = sql.NullString{String: formatTime(*n.Until), Valid: true}
	}

	res, err := s.db.Exec(`
		UPDATE scheduled_notifications
		SET kind = ?, fire_at = ?, hour = ?, minute = ?, weekday = ?, until = ?, title = ?, body = ?
		WHERE id = ?
	`,
		string(n.Kind), formatTime(n.FireAt), n.Hour, n.Minute, int(n.Weekday),
		until, n.Title, n.Body, n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("notification %s: %w", n.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteNotification(id string) error {
	if _, err := s.db.Exec("DELETE FROM scheduled_notifications WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllNotifications() error {
	if _, err := s.db.Exec("DELETE FROM scheduled_notifications"); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

func (s *Store) queryNotifications(query string, args ...any) ([]models.ScheduledNotification, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduledNotification
	for rows.Next() {
		var (
			n                 models.ScheduledNotification
			kind              string
			fireAt, createdAt string
			weekday           int
			until             sql.NullString
		)
		if err := rows.Scan(&n.ID, &kind, &fireAt, &n.Hour, &n.Minute, &weekday, &until, &n.Title, &n.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = models.TriggerKind(kind)
		n.Weekday = time.Weekday(weekday)

		if n.FireAt, err = parseTime(fireAt); err != nil {
			return nil, fmt.Errorf("failed to parse fire_at: %w", err)
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if until.Valid {
			t, err := parseTime(until.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse until: %w", err)
			}
			n.Until = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
