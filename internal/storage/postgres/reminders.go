package postgres

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/careminder/internal/models"
)

func (s *Store) ReplaceAll(data models.PatientData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM reminders"); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO reminders (id, patient_name, message, time, notified, repeat_type, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			patient_name = EXCLUDED.patient_name,
			message = EXCLUDED.message,
			time = EXCLUDED.time,
			notified = EXCLUDED.notified,
			repeat_type = EXCLUDED.repeat_type,
			end_date = EXCLUDED.end_date
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range data.Reminders {
		if _, err := stmt.Exec(
			r.ID, data.PatientName, r.Message, r.Time, r.Notified,
			nullString(string(r.RepeatType)), nullString(r.EndDate),
		); err != nil {
			return fmt.Errorf("failed to insert reminder %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reminders: %w", err)
	}
	return nil
}

func (s *Store) LoadAll() (*models.PatientData, error) {
	rows, err := s.db.Query(`
		SELECT id, patient_name, message, time, notified, repeat_type, end_date
		FROM reminders
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var data *models.PatientData
	for rows.Next() {
		var (
			r           models.Reminder
			patientName string
			repeatType  sql.NullString
			endDate     sql.NullString
		)
		if err := rows.Scan(&r.ID, &patientName, &r.Message, &r.Time, &r.Notified, &repeatType, &endDate); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.RepeatType = models.RepeatType(repeatType.String)
		r.EndDate = endDate.String

		if data == nil {
			data = &models.PatientData{PatientName: patientName}
		}
		data.Reminders = append(data.Reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reminders: %w", err)
	}
	return data, nil
}

func (s *Store) DeleteAll() error {
	if _, err := s.db.Exec("DELETE FROM reminders"); err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
