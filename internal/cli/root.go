package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/careminder/internal/backup"
	"github.com/julianstephens/careminder/internal/config"
	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/i18n"
	"github.com/julianstephens/careminder/internal/metrics"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/notifier"
	"github.com/julianstephens/careminder/internal/recurrence"
	"github.com/julianstephens/careminder/internal/scheduler"
	"github.com/julianstephens/careminder/internal/session"
	"github.com/julianstephens/careminder/internal/storage"
	"github.com/julianstephens/careminder/internal/storage/sqlite"
)

// Context is handed to every command's Run method.
type Context struct {
	Target    config.Target
	Store     storage.Provider
	Queue     *notifier.Queue
	Scheduler *scheduler.Scheduler
	Session   *session.Session
	Metrics   metrics.Recorder
	Lang      i18n.Lang
	Location  *time.Location

	Out io.Writer
	In  io.Reader
	Now func() time.Time
	// Ctx is cancelled on SIGINT/SIGTERM.
	Ctx context.Context

	dispatcher atomic.Pointer[notifier.Dispatcher]
}

// Options tune NewContext.
type Options struct {
	Lang           i18n.Lang
	Location       *time.Location
	BoundRecurring bool
	Metrics        metrics.Recorder
	Now            func() time.Time
}

// NewContext wires the store, notification queue, scheduler and session
// for target. The store is not opened.
func NewContext(target config.Target, store storage.Provider, opts Options) *Context {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Lang == "" {
		opts.Lang = i18n.English
	}
	rec := metrics.OrNoop(opts.Metrics)

	ctx := &Context{
		Target:   target,
		Store:    store,
		Metrics:  rec,
		Lang:     opts.Lang,
		Location: opts.Location,
		Out:      os.Stdout,
		In:       os.Stdin,
		Now:      opts.Now,
	}

	queue := notifier.NewQueue(store, opts.Location,
		notifier.WithClock(opts.Now),
		notifier.WithWake(ctx.wake),
	)

	sched := scheduler.New(queue, scheduler.Config{
		Expander: recurrence.Expander{Location: opts.Location, BoundRecurring: opts.BoundRecurring},
		Title:    opts.Lang.NotificationTitle(),
		Now:      opts.Now,
		Metrics:  rec,
	})

	ctx.Queue = queue
	ctx.Scheduler = sched

	cfg := session.Config{Metrics: rec, Now: opts.Now}
	if mgr := ctx.Backups(); mgr != nil {
		cfg.Backup = mgr
	}
	ctx.Session = session.New(store, sched, queue, cfg)
	return ctx
}

// NewDispatcher builds a dispatcher over the context's store. Triggers
// registered through Queue from then on wake it immediately.
func (c *Context) NewDispatcher(sender notifier.Sender, poll time.Duration) *notifier.Dispatcher {
	d := notifier.NewDispatcher(c.Store, sender, notifier.DispatcherConfig{
		Location: c.Location,
		Poll:     poll,
		Metrics:  c.Metrics,
		Now:      c.Now,
	})
	c.dispatcher.Store(d)
	return d
}

func (c *Context) wake() {
	if d := c.dispatcher.Load(); d != nil {
		d.Notify()
	}
}

// Backups returns the backup manager, or nil for PostgreSQL stores.
func (c *Context) Backups() *backup.Manager {
	store, ok := c.Store.(*sqlite.Store)
	if !ok {
		return nil
	}
	return backup.NewManager(store.GetConfigPath())
}

// Context returns the command's cancellation context.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// SetLang switches the language used for output and for notification titles
// registered from now on.
func (c *Context) SetLang(lang i18n.Lang) {
	c.Lang = lang
	if c.Scheduler != nil {
		c.Scheduler.SetTitle(lang.NotificationTitle())
	}
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

var (
	pastStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#667eea"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// FormatReminder renders one reminder as a single listing line. Reminders
// whose time has passed are struck through.
func FormatReminder(r models.Reminder, lang i18n.Lang, now time.Time) string {
	when := r.Time
	if at, err := r.At(now.Location()); err == nil {
		when = at.Format(constants.DisplayFormat)
	}

	line := fmt.Sprintf("📅 %s  %s", when, r.Message)
	if r.IsPast(now) {
		line = pastStyle.Render(line)
	}

	var extras []string
	if label := lang.RepeatLabel(r.RepeatType); label != "" {
		extras = append(extras, badgeStyle.Render(label))
	}
	if until := lang.UntilText(r.EndDate); until != "" {
		extras = append(extras, dimStyle.Render(until))
	}
	if len(extras) > 0 {
		line += "  " + strings.Join(extras, "  ")
	}
	return line
}

// RenderReminders writes the patient header and the time-sorted reminder
// list, or the empty state when data is nil.
func RenderReminders(w io.Writer, data *models.PatientData, lang i18n.Lang, now time.Time) {
	t := lang.T()
	if data == nil || len(data.Reminders) == 0 {
		fmt.Fprintln(w, headerStyle.Render(t.NoReminders))
		fmt.Fprintln(w, t.NoRemindersText)
		return
	}

	fmt.Fprintf(w, "%s  %s\n", headerStyle.Render(data.PatientName), badgeStyle.Render("🔔 "+t.NotificationsEnabled))
	fmt.Fprintln(w, t.YourReminders)
	for _, r := range data.SortedReminders() {
		fmt.Fprintln(w, "  "+FormatReminder(r, lang, now))
	}
}
