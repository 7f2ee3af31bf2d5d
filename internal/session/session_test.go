package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/notifier"
	"github.com/julianstephens/careminder/internal/recurrence"
	"github.com/julianstephens/careminder/internal/scheduler"
	"github.com/julianstephens/careminder/internal/storage/sqlite"
)

var baseNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

type harness struct {
	store   *sqlite.Store
	queue   *notifier.Queue
	sched   *scheduler.Scheduler
	session *Session
	now     time.Time
}

type countingBackup struct {
	calls int
	err   error
}

func (b *countingBackup) CreateBackup() (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return fmt.Sprintf("backup-%d.db", b.calls), nil
}

func newHarness(t *testing.T, backup Backuper) *harness {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "careminder.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{store: store, now: baseNow}
	clock := func() time.Time { return h.now }

	h.queue = notifier.NewQueue(store, time.Local, notifier.WithClock(clock))
	h.sched = scheduler.New(h.queue, scheduler.Config{
		Expander: recurrence.Expander{Location: time.Local, BoundRecurring: true},
		Now:      clock,
	})
	h.session = New(store, h.sched, h.queue, Config{Backup: backup, Now: clock})
	return h
}

func (h *harness) pending(t *testing.T) []models.ScheduledNotification {
	t.Helper()
	rows, err := h.queue.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	return rows
}

func (h *harness) stored(t *testing.T) *models.PatientData {
	t.Helper()
	data, err := h.store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	return data
}

func (h *harness) mustImport(t *testing.T, raw string) Outcome {
	t.Helper()
	outcome, err := h.session.Import(context.Background(), raw)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	return outcome
}

func localStamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

func codeFor(name string, reminders ...string) string {
	body := ""
	for i, r := range reminders {
		if i > 0 {
			body += ","
		}
		body += r
	}
	return fmt.Sprintf(`{"patientName":%q,"reminders":[%s]}`, name, body)
}

func oneTime(id int, message string, at time.Time) string {
	return fmt.Sprintf(`{"id":%d,"message":%q,"time":%q}`, id, message, localStamp(at))
}

func TestImportReplacesPreviousSet(t *testing.T) {
	h := newHarness(t, nil)
	tomorrow := baseNow.AddDate(0, 0, 1)

	h.mustImport(t, codeFor("Alice",
		oneTime(1, "Blood pressure pill", tomorrow),
		oneTime(2, "Drink water", tomorrow.Add(time.Hour)),
	))
	if got := len(h.pending(t)); got != 2 {
		t.Fatalf("got %d pending, want 2", got)
	}

	outcome := h.mustImport(t, codeFor("Bob", oneTime(3, "Eye drops", tomorrow)))
	if outcome.Patient.PatientName != "Bob" || outcome.Schedule.Triggers != 1 {
		t.Errorf("outcome = %+v", outcome)
	}

	stored := h.stored(t)
	if stored == nil || stored.PatientName != "Bob" {
		t.Fatalf("stored = %+v, want Bob", stored)
	}
	if len(stored.Reminders) != 1 || stored.Reminders[0].ID != 3 {
		t.Errorf("stored reminders = %+v, want only id 3", stored.Reminders)
	}

	pending := h.pending(t)
	if len(pending) != 1 || pending[0].Body != "Eye drops" {
		t.Errorf("pending = %+v, want only Eye drops", pending)
	}

	if active := h.session.Active(); active == nil || active.PatientName != "Bob" {
		t.Errorf("Active() = %+v, want Bob", active)
	}
}

func TestImportPastOneTimeIsStoredWithoutTrigger(t *testing.T) {
	h := newHarness(t, nil)

	outcome := h.mustImport(t, codeFor("Alice",
		oneTime(1, "Yesterday's pill", baseNow.AddDate(0, 0, -1)),
	))
	if outcome.Schedule.Triggers != 0 || outcome.Schedule.Skipped != 1 {
		t.Errorf("schedule = %+v, want 0 triggers and 1 skipped", outcome.Schedule)
	}

	stored := h.stored(t)
	if stored == nil || len(stored.Reminders) != 1 {
		t.Fatalf("stored = %+v, want one reminder", stored)
	}
	if !stored.Reminders[0].IsPast(baseNow) {
		t.Error("stored reminder should be past")
	}
	if got := len(h.pending(t)); got != 0 {
		t.Errorf("got %d pending, want none", got)
	}
}

func TestImportIntervalWithEndDate(t *testing.T) {
	h := newHarness(t, nil)
	tomorrow := time.Date(2025, 6, 11, 9, 0, 0, 0, time.Local)
	end := baseNow.AddDate(0, 0, 10).Format("2006-01-02")

	h.mustImport(t, codeFor("Alice",
		fmt.Sprintf(`{"id":1,"message":"Vitamin","time":%q,"repeatType":"every3days","endDate":%q}`, localStamp(tomorrow), end),
	))

	pending := h.pending(t)
	if len(pending) != 4 {
		t.Fatalf("got %d pending, want 4", len(pending))
	}
	for i, n := range pending {
		if want := tomorrow.AddDate(0, 0, 3*i); !n.FireAt.Equal(want) {
			t.Errorf("trigger %d fires at %v, want %v", i, n.FireAt, want)
		}
		if n.Kind != models.TriggerOnce {
			t.Errorf("trigger %d Kind = %s, want once", i, n.Kind)
		}
	}
}

func TestImportInvalidCodeLeavesState(t *testing.T) {
	backup := &countingBackup{}
	h := newHarness(t, backup)

	h.mustImport(t, codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour))))
	if backup.calls != 1 {
		t.Fatalf("backup calls = %d, want 1", backup.calls)
	}

	for _, raw := range []string{
		"not a code",
		"careminder://import?data=%%%",
		`{"patientName":"Eve","reminders":[{"id":1,"message":"x","time":"soon"}]}`,
	} {
		_, err := h.session.Import(context.Background(), raw)
		if !errors.Is(err, apperrors.ErrInvalidCode) {
			t.Errorf("Import(%q) error = %v, want ErrInvalidCode", raw, err)
		}
	}

	if backup.calls != 1 {
		t.Errorf("rejected codes must not touch the store, backup calls = %d", backup.calls)
	}
	if stored := h.stored(t); stored == nil || stored.PatientName != "Alice" {
		t.Errorf("stored = %+v, want Alice", stored)
	}
	if got := len(h.pending(t)); got != 1 {
		t.Errorf("got %d pending, want 1", got)
	}
	if active := h.session.Active(); active == nil || active.PatientName != "Alice" {
		t.Errorf("Active() = %+v, want Alice", active)
	}
}

func TestImportAbortsWhenBackupFails(t *testing.T) {
	backup := &countingBackup{err: errors.New("disk full")}
	h := newHarness(t, backup)

	_, err := h.session.Import(context.Background(), codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour))))
	if !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Fatalf("Import() error = %v, want ErrInvalidCode", err)
	}

	var perr *apperrors.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "backup" {
		t.Errorf("error = %v, want a backup PersistenceError", err)
	}

	if stored := h.stored(t); stored != nil {
		t.Errorf("stored = %+v, want nothing", stored)
	}
	if got := len(h.pending(t)); got != 0 {
		t.Errorf("got %d pending, want none", got)
	}
	if h.session.Active() != nil {
		t.Error("session should stay empty")
	}
}

func TestDeleteAll(t *testing.T) {
	h := newHarness(t, nil)

	h.mustImport(t, codeFor("Alice",
		oneTime(1, "Pill", baseNow.Add(time.Hour)),
		`{"id":2,"message":"Walk","time":"2025-06-10T18:00:00","repeatType":"daily"}`,
	))
	if got := len(h.pending(t)); got != 2 {
		t.Fatalf("got %d pending, want 2", got)
	}

	if err := h.session.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	if stored := h.stored(t); stored != nil {
		t.Errorf("stored = %+v, want nothing", stored)
	}
	if got := len(h.pending(t)); got != 0 {
		t.Errorf("got %d pending, want none", got)
	}
	if h.session.Active() != nil {
		t.Error("session should be empty")
	}
}

type failingCanceller struct{}

func (failingCanceller) CancelAll(context.Context) error {
	return errors.New("database is locked")
}

func TestDeleteAllKeepsRowsWhenCancelFails(t *testing.T) {
	h := newHarness(t, nil)
	h.mustImport(t, codeFor("Alice",
		`{"id":1,"message":"Walk","time":"2025-06-10T18:00:00","repeatType":"daily"}`,
	))

	s := New(h.store, h.sched, failingCanceller{}, Config{Now: func() time.Time { return h.now }})
	s.Restore(context.Background())
	if err := s.DeleteAll(context.Background()); err == nil {
		t.Fatal("expected DeleteAll to report the cancel failure")
	}

	// reminders stay so the next start reschedules them consistently
	if stored := h.stored(t); stored == nil || stored.PatientName != "Alice" {
		t.Errorf("stored = %+v, want Alice kept", stored)
	}
	if s.Active() == nil {
		t.Error("session should keep the active set")
	}
}

func TestRestoreClearsOrphanedTriggers(t *testing.T) {
	h := newHarness(t, nil)
	h.mustImport(t, codeFor("Alice",
		`{"id":1,"message":"Walk","time":"2025-06-10T18:00:00","repeatType":"daily"}`,
	))

	// rows gone, triggers left behind by an interrupted delete
	if err := h.store.DeleteAll(); err != nil {
		t.Fatalf("store.DeleteAll() error = %v", err)
	}
	if got := len(h.pending(t)); got != 1 {
		t.Fatalf("got %d pending, want the orphaned trigger", got)
	}

	if active := h.session.Restore(context.Background()); active != nil {
		t.Errorf("Restore() = %+v, want nil", active)
	}
	if got := len(h.pending(t)); got != 0 {
		t.Errorf("got %d pending after restore, want none", got)
	}
}

func TestRestore(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if active := h.session.Restore(ctx); active != nil {
		t.Errorf("Restore() on an empty store = %+v", active)
	}

	h.mustImport(t, codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour))))

	// a fresh process over the same store picks the set back up
	clock := func() time.Time { return baseNow }
	queue := notifier.NewQueue(h.store, time.Local, notifier.WithClock(clock))
	sched := scheduler.New(queue, scheduler.Config{Now: clock})
	restarted := New(h.store, sched, queue, Config{Now: clock})

	active := restarted.Restore(ctx)
	if active == nil || active.PatientName != "Alice" {
		t.Fatalf("Restore() = %+v, want Alice", active)
	}
	if got := len(h.pending(t)); got != 1 {
		t.Errorf("restore reschedules instead of duplicating, got %d pending", got)
	}
}

type failingStore struct{ Store }

func (failingStore) LoadAll() (*models.PatientData, error) {
	return nil, errors.New("database is locked")
}

func TestRestoreIgnoresLoadErrors(t *testing.T) {
	h := newHarness(t, nil)
	s := New(failingStore{h.store}, scheduler.New(h.queue, scheduler.Config{}), h.queue, Config{})

	if active := s.Restore(context.Background()); active != nil {
		t.Errorf("Restore() = %+v, want nil", active)
	}
	if s.Active() != nil {
		t.Error("session should be empty")
	}
}

func TestHandleScanCooldown(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	code := codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour)))

	if _, err := h.session.HandleScan(ctx, code); err != nil {
		t.Fatalf("first scan error = %v", err)
	}

	h.now = baseNow.Add(time.Second)
	if _, err := h.session.HandleScan(ctx, code); !errors.Is(err, ErrScanCooldown) {
		t.Errorf("scan after 1s error = %v, want ErrScanCooldown", err)
	}

	h.now = baseNow.Add(3 * time.Second)
	if _, err := h.session.HandleScan(ctx, code); err != nil {
		t.Errorf("scan after 3s error = %v", err)
	}
}

func TestHandleScanCooldownAfterInvalidCode(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if _, err := h.session.HandleScan(ctx, "garbage"); !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Fatalf("HandleScan() error = %v, want ErrInvalidCode", err)
	}

	h.now = baseNow.Add(time.Second)
	_, err := h.session.HandleScan(ctx, codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour))))
	if !errors.Is(err, ErrScanCooldown) {
		t.Errorf("HandleScan() error = %v, want ErrScanCooldown", err)
	}
}

func TestImportInProgress(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	code := codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour)))

	h.session.importing.Store(true)
	if _, err := h.session.Import(ctx, code); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("Import() error = %v, want ErrImportInProgress", err)
	}
	if _, err := h.session.HandleScan(ctx, code); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("HandleScan() error = %v, want ErrImportInProgress", err)
	}
	if err := h.session.DeleteAll(ctx); !errors.Is(err, ErrImportInProgress) {
		t.Errorf("DeleteAll() error = %v, want ErrImportInProgress", err)
	}

	h.session.importing.Store(false)
	if _, err := h.session.Import(ctx, code); err != nil {
		t.Errorf("Import() after release error = %v", err)
	}
}

func TestActiveReturnsCopy(t *testing.T) {
	h := newHarness(t, nil)
	h.mustImport(t, codeFor("Alice", oneTime(1, "Pill", baseNow.Add(time.Hour))))

	active := h.session.Active()
	active.PatientName = "Mallory"
	active.Reminders[0].Message = "changed"

	again := h.session.Active()
	if again.PatientName != "Alice" || again.Reminders[0].Message != "Pill" {
		t.Errorf("Active() leaked a mutation: %+v", again)
	}
}
