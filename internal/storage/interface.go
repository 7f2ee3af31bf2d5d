// Package storage defines the persistence contract shared by the SQLite and
// PostgreSQL backends.
package storage

import (
	"strings"
	"time"

	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/storage/postgres"
	"github.com/julianstephens/careminder/internal/storage/sqlite"
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	// Migrate applies pending schema migrations, reporting progress to logFn.
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion returns the applied and the latest known schema versions.
	SchemaVersion() (current int, latest int, err error)

	// Reminders. Every operation is whole-table.

	// ReplaceAll deletes every stored reminder, then inserts data's
	// reminders with upsert-by-id semantics, atomically.
	ReplaceAll(data models.PatientData) error
	// LoadAll returns the stored set, or nil when there are no rows.
	LoadAll() (*models.PatientData, error)
	DeleteAll() error

	// Scheduled notifications
	AddNotification(models.ScheduledNotification) error
	GetAllNotifications() ([]models.ScheduledNotification, error)
	GetDueNotifications(now time.Time) ([]models.ScheduledNotification, error)
	UpdateNotification(models.ScheduledNotification) error
	DeleteNotification(id string) error
	DeleteAllNotifications() error

	// Utils
	GetConfigPath() string
}

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
)

// IsPostgres reports whether config is a PostgreSQL connection URL.
func IsPostgres(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// New returns the backend for config: a PostgreSQL store for a postgres://
// URL, otherwise a SQLite store at that path. The store is not opened.
func New(config string) Provider {
	if IsPostgres(config) {
		return postgres.New(config)
	}
	return sqlite.NewStore(config)
}
