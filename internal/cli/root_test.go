package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/careminder/internal/config"
	"github.com/julianstephens/careminder/internal/i18n"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/storage/postgres"
	"github.com/julianstephens/careminder/internal/storage/sqlite"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

func TestFormatReminder(t *testing.T) {
	tests := []struct {
		name    string
		r       models.Reminder
		lang    i18n.Lang
		want    []string
		notWant []string
	}{
		{
			name:    "one-time",
			r:       models.Reminder{Message: "Pill", Time: "2026-03-11T09:00:00"},
			lang:    i18n.English,
			want:    []string{"2026-03-11 09:00", "Pill"},
			notWant: []string{"🔁", "Until"},
		},
		{
			name: "interval with end date",
			r:    models.Reminder{Message: "Drops", Time: "2026-03-11T09:00:00", RepeatType: models.RepeatEvery3Days, EndDate: "2026-04-01"},
			lang: i18n.English,
			want: []string{"🔁 Every 3 Days", "Until 2026-04-01"},
		},
		{
			name: "finnish daily",
			r:    models.Reminder{Message: "Kävely", Time: "2026-03-10T18:00:00", RepeatType: models.RepeatDaily},
			lang: i18n.Finnish,
			want: []string{"🔁 Päivittäin", "Kävely"},
		},
		{
			name: "unparseable time shown as given",
			r:    models.Reminder{Message: "Odd", Time: "whenever"},
			lang: i18n.English,
			want: []string{"whenever", "Odd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatReminder(tt.r, tt.lang, now)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("FormatReminder() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("FormatReminder() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}

func TestRenderReminders(t *testing.T) {
	t.Run("empty state", func(t *testing.T) {
		var buf bytes.Buffer
		RenderReminders(&buf, nil, i18n.Finnish, now)
		if !strings.Contains(buf.String(), "Ei Muistutuksia") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("sorted list", func(t *testing.T) {
		data := &models.PatientData{
			PatientName: "Aino",
			Reminders: []models.Reminder{
				{ID: 1, Message: "Later", Time: "2026-03-12T09:00:00"},
				{ID: 2, Message: "Earlier", Time: "2026-03-09T09:00:00"},
			},
		}
		var buf bytes.Buffer
		RenderReminders(&buf, data, i18n.English, now)
		out := buf.String()
		if !strings.Contains(out, "Aino") || !strings.Contains(out, "Your Reminders") {
			t.Errorf("missing header: %q", out)
		}
		if strings.Index(out, "Earlier") > strings.Index(out, "Later") {
			t.Errorf("reminders not sorted by time: %q", out)
		}
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := &Context{Out: &out, In: strings.NewReader(tt.input)}
		got, err := c.Confirm("Delete All?", "Remove all reminders?", "Delete", "Cancel")
		if err != nil {
			t.Fatalf("Confirm(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete All? [y/N]") {
			t.Errorf("prompt missing: %q", out.String())
		}
	}
}

func TestNewContext(t *testing.T) {
	t.Run("sqlite has backups", func(t *testing.T) {
		path := t.TempDir() + "/careminder.db"
		ctx := NewContext(config.Target{Location: path}, sqlite.NewStore(path), Options{})
		if ctx.Backups() == nil {
			t.Error("expected a backup manager for SQLite")
		}
		if ctx.Lang != i18n.English || ctx.Location != time.Local {
			t.Errorf("unexpected defaults: %v %v", ctx.Lang, ctx.Location)
		}
	})

	t.Run("postgres has none", func(t *testing.T) {
		conn := "postgres://user@localhost/careminder"
		ctx := NewContext(config.Target{Location: conn}, postgres.New(conn), Options{})
		if ctx.Backups() != nil {
			t.Error("expected no backup manager for PostgreSQL")
		}
	})

	t.Run("language switch retitles triggers", func(t *testing.T) {
		path := t.TempDir() + "/careminder.db"
		ctx := NewContext(config.Target{Location: path}, sqlite.NewStore(path), Options{Lang: i18n.English})
		ctx.SetLang(i18n.Finnish)
		if got := ctx.Scheduler.Title(); got != "Muistutus 💊" {
			t.Errorf("Scheduler.Title() = %q", got)
		}
	})
}
