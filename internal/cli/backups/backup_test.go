package backups

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/config"
	"github.com/julianstephens/careminder/internal/i18n"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/storage/postgres"
	"github.com/julianstephens/careminder/internal/storage/sqlite"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "careminder.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := cli.NewContext(config.Target{Location: dbPath, Source: config.SourceFlag}, store, cli.Options{
		Lang: i18n.English,
		Now:  func() time.Time { return testNow },
	})
	var out bytes.Buffer
	ctx.Out = &out
	return ctx, &out
}

func seed(t *testing.T, ctx *cli.Context, name string) {
	t.Helper()
	if err := ctx.Store.ReplaceAll(models.PatientData{
		PatientName: name,
		Reminders:   []models.Reminder{{ID: 1, Message: name + "'s pill", Time: "2026-03-11T09:00:00"}},
	}); err != nil {
		t.Fatalf("failed to seed reminders: %v", err)
	}
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup create failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: careminder-") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1 total") {
		t.Errorf("expected one backup listed, got:\n%s", out.String())
	}
}

func TestBackupRestore(t *testing.T) {
	ctx, out := setupTestContext(t)
	seed(t, ctx, "Aino")
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	seed(t, ctx, "Matti")

	out.Reset()
	if err := (&BackupRestoreCmd{Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Previous database saved as") {
		t.Errorf("expected a safety copy, got:\n%s", out.String())
	}

	data, err := ctx.Store.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if data == nil || data.PatientName != "Aino" {
		t.Fatalf("expected Aino's reminders after restore, got %+v", data)
	}
	if active := ctx.Session.Active(); active == nil || active.PatientName != "Aino" {
		t.Errorf("session should hold the restored data, got %+v", active)
	}
	pending, err := ctx.Queue.Pending(ctx.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Body != "Aino's pill" {
		t.Errorf("triggers should match restored reminders, got %+v", pending)
	}
}

func TestBackupRestoreDeclined(t *testing.T) {
	ctx, out := setupTestContext(t)
	seed(t, ctx, "Aino")
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	seed(t, ctx, "Matti")

	ctx.In = strings.NewReader("n\n")
	if err := (&BackupRestoreCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Restore cancelled.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	data, _ := ctx.Store.LoadAll()
	if data == nil || data.PatientName != "Matti" {
		t.Errorf("declined restore changed data: %+v", data)
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupTestContext(t)

	if err := (&BackupRestoreCmd{Yes: true}).Run(ctx); err == nil {
		t.Error("expected an error with no backups")
	}
	if err := (&BackupRestoreCmd{BackupFile: "careminder-19990101-0000.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected an error for a missing backup file")
	}
}

func TestBackupPostgresUnsupported(t *testing.T) {
	ctx := cli.NewContext(config.Target{Location: "postgres://user@localhost/careminder"},
		postgres.New("postgres://user@localhost/careminder"), cli.Options{})

	if err := (&BackupCreateCmd{}).Run(ctx); err != errPostgres {
		t.Errorf("expected errPostgres, got %v", err)
	}
}
