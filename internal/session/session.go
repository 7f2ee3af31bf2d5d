// Package session owns the active patient's reminder set and the import
// flow that replaces it: decode, back up, persist, reschedule.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/careminder/internal/constants"
	apperrors "github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/metrics"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/payload"
	"github.com/julianstephens/careminder/internal/scheduler"
)

var (
	// ErrImportInProgress rejects an import that overlaps another.
	ErrImportInProgress = errors.New("an import is already in progress")
	// ErrScanCooldown rejects a scan that arrives too soon after the last.
	ErrScanCooldown = errors.New("scan ignored during cooldown")
)

// Store is the slice of the persistence adapter a session writes through.
type Store interface {
	ReplaceAll(data models.PatientData) error
	LoadAll() (*models.PatientData, error)
	DeleteAll() error
}

// Scheduler reschedules a full reminder set.
type Scheduler interface {
	ScheduleAll(ctx context.Context, reminders []models.Reminder) (scheduler.Summary, error)
}

// Canceller drops every registered trigger.
type Canceller interface {
	CancelAll(ctx context.Context) error
}

// Backuper snapshots the datastore. Only the SQLite backend has one.
type Backuper interface {
	CreateBackup() (string, error)
}

type Config struct {
	// Backup runs before each destructive write. Nil disables backups.
	Backup   Backuper
	Metrics  metrics.Recorder
	Now      func() time.Time
	Cooldown time.Duration
}

// Outcome describes a finished import.
type Outcome struct {
	Patient  models.PatientData
	Schedule scheduler.Summary
}

// Session is the single active patient and the serialized flow that
// creates, replaces and clears it.
type Session struct {
	store     Store
	scheduler Scheduler
	canceller Canceller
	backup    Backuper
	metrics   metrics.Recorder
	now       func() time.Time
	cooldown  time.Duration

	importing atomic.Bool

	mu       sync.RWMutex
	active   *models.PatientData
	lastScan time.Time
}

func New(store Store, sched Scheduler, canceller Canceller, cfg Config) *Session {
	s := &Session{
		store:     store,
		scheduler: sched,
		canceller: canceller,
		backup:    cfg.Backup,
		metrics:   metrics.OrNoop(cfg.Metrics),
		now:       cfg.Now,
		cooldown:  cfg.Cooldown,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cooldown == 0 {
		s.cooldown = constants.ScanCooldown
	}
	return s
}

// Active returns a copy of the active patient data, or nil.
func (s *Session) Active() *models.PatientData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil
	}
	clone := s.active.Clone()
	return &clone
}

func (s *Session) set(data *models.PatientData) {
	s.mu.Lock()
	s.active = data
	s.mu.Unlock()
}

// Restore loads whatever was stored by an earlier run and reschedules it.
// Failures are logged and leave the session empty.
func (s *Session) Restore(ctx context.Context) *models.PatientData {
	data, err := s.store.LoadAll()
	if err != nil {
		logger.Warn("Failed to load stored reminders", "error", err)
		s.set(nil)
		return nil
	}
	s.set(data)
	if data == nil {
		// triggers can outlive their rows if an earlier delete-all was cut short
		if err := s.canceller.CancelAll(ctx); err != nil {
			logger.Warn("Failed to clear orphaned triggers", "error", err)
		}
		return nil
	}

	summary, err := s.scheduler.ScheduleAll(ctx, data.Reminders)
	if err != nil {
		logger.Warn("Failed to reschedule stored reminders", "error", err)
	} else {
		logger.Debug("Restored reminders", "patient", data.PatientName, "triggers", summary.Triggers)
	}
	return s.Active()
}

// Import replaces the active set with the reminders encoded in raw. A decode
// or persistence failure leaves the session as it was and matches
// errors.ErrInvalidCode. Scheduling problems are logged only.
func (s *Session) Import(ctx context.Context, raw string) (Outcome, error) {
	if !s.importing.CompareAndSwap(false, true) {
		return Outcome{}, ErrImportInProgress
	}
	defer s.importing.Store(false)

	return s.runImport(ctx, raw)
}

// HandleScan imports a scanned code unless another scan is running or the
// previous one finished less than the cooldown ago.
func (s *Session) HandleScan(ctx context.Context, raw string) (Outcome, error) {
	if !s.importing.CompareAndSwap(false, true) {
		return Outcome{}, ErrImportInProgress
	}
	defer s.importing.Store(false)

	s.mu.RLock()
	last := s.lastScan
	s.mu.RUnlock()
	if !last.IsZero() && s.now().Sub(last) < s.cooldown {
		return Outcome{}, ErrScanCooldown
	}

	outcome, err := s.runImport(ctx, raw)

	s.mu.Lock()
	s.lastScan = s.now()
	s.mu.Unlock()
	return outcome, err
}

func (s *Session) runImport(ctx context.Context, raw string) (Outcome, error) {
	data, err := payload.Decode(raw)
	if err != nil {
		s.metrics.IncImports("invalid")
		logger.Debug("Rejected code", "error", err)
		return Outcome{}, err
	}

	if err := s.snapshot(); err != nil {
		s.metrics.IncImports("failed")
		return Outcome{}, err
	}

	if err := s.store.ReplaceAll(data); err != nil {
		s.metrics.IncImports("failed")
		logger.Error("Failed to store reminders", "error", err)
		return Outcome{}, &apperrors.PersistenceError{Op: "replace reminders", Err: err}
	}

	stored := data.Clone()
	s.set(&stored)
	s.metrics.IncImports("ok")

	summary, err := s.scheduler.ScheduleAll(ctx, data.Reminders)
	if err != nil {
		logger.Warn("Failed to schedule imported reminders", "error", err)
	}
	logger.Info("Reminders imported", "patient", data.PatientName,
		"reminders", summary.Reminders, "triggers", summary.Triggers,
		"skipped", summary.Skipped, "failures", summary.Failures)

	return Outcome{Patient: data, Schedule: summary}, nil
}

// DeleteAll cancels every registered trigger, clears stored reminders and
// empties the session.
func (s *Session) DeleteAll(ctx context.Context) error {
	if !s.importing.CompareAndSwap(false, true) {
		return ErrImportInProgress
	}
	defer s.importing.Store(false)

	if err := s.snapshot(); err != nil {
		return err
	}
	if err := s.canceller.CancelAll(ctx); err != nil {
		return err
	}
	if err := s.store.DeleteAll(); err != nil {
		return &apperrors.PersistenceError{Op: "delete reminders", Err: err}
	}
	s.set(nil)
	logger.Info("All reminders deleted")
	return nil
}

func (s *Session) snapshot() error {
	if s.backup == nil {
		return nil
	}
	path, err := s.backup.CreateBackup()
	if err != nil {
		logger.Error("Backup before write failed", "error", err)
		return &apperrors.PersistenceError{Op: "backup", Err: err}
	}
	logger.Debug("Backup written", "path", path)
	return nil
}
