package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/careminder/internal/models"
)

const notificationColumns = `id, kind, fire_at, hour, minute, weekday, until, title, body, created_at`

func (s *Store) AddNotification(n models.ScheduledNotification) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduled_notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		n.ID, string(n.Kind), n.FireAt.UTC(), n.Hour, n.Minute, int(n.Weekday),
		nullTime(n.Until), n.Title, n.Body, n.CreatedAt.UTC(),
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
		WHERE fire_at <= $1
		ORDER BY fire_at, id
	`, now.UTC())
}

func (s *Store) UpdateNotification(n models.ScheduledNotification) error {
	res, err := s.db.Exec(`
		UPDATE scheduled_notifications
		SET kind = $1, fire_at = $2, hour = $3, minute = $4, weekday = $5, until = $6, title = $7, body = $8
		WHERE id = $9
	`,
		string(n.Kind), n.FireAt.UTC(), n.Hour, n.Minute, int(n.Weekday),
		nullTime(n.Until), n.Title, n.Body, n.ID,
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
	if _, err := s.db.Exec("DELETE FROM scheduled_notifications WHERE id = $1", id); err != nil {
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
			n       models.ScheduledNotification
			kind    string
			weekday int
			until   sql.NullTime
		)
		if err := rows.Scan(&n.ID, &kind, &n.FireAt, &n.Hour, &n.Minute, &weekday, &until, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = models.TriggerKind(kind)
		n.Weekday = time.Weekday(weekday)
		if until.Valid {
			t := until.Time
			n.Until = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
