package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/notifier"
	"github.com/julianstephens/careminder/internal/utils"
	"github.com/julianstephens/careminder/internal/validation"
)

type DoctorCmd struct {
	SkipTray bool `help:"Skip the tray app check."`
}

type check struct {
	name     string
	run      func(*cli.Context) error
	needsDB  bool
	warnOnly bool
}

func (cmd *DoctorCmd) checks() []check {
	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", run: checkSchemaVersion, needsDB: true},
		{name: "Migrations complete", run: checkMigrationsComplete, needsDB: true},
		{name: "Backups present", run: checkBackupsPresent, warnOnly: true},
		{name: "Reminder data", run: checkReminders, needsDB: true},
		{name: "Registered triggers", run: checkTriggers, needsDB: true, warnOnly: true},
		{name: "Clock/timezone", run: func(*cli.Context) error { return checkClockTimezone() }},
	}
	if !cmd.SkipTray {
		checks = append(checks, check{name: "Tray app", run: checkTray, warnOnly: true})
	}
	return checks
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true

	for i, c := range cmd.checks() {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if i == 0 {
				dbReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.LoadAll(); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run '%s migrate')", current, latest, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return nil
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

// checkReminders fails on rows the scheduler cannot read. Other findings,
// such as expired reminders, are only listed.
func checkReminders(ctx *cli.Context) error {
	data, err := ctx.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}
	if data == nil {
		return nil
	}

	result := validation.New(ctx.Location).ValidateReminders(data.Reminders, ctx.Now())
	var errs []error
	for _, c := range result.Conflicts {
		switch c.Type {
		case validation.ConflictInvalidDateTime, validation.ConflictUnknownRepeat:
			errs = append(errs, errors.New(c.Description))
		default:
			ctx.Printf("   note: %s\n", c.Description)
		}
	}
	return errors.Join(errs...)
}

// checkTriggers warns when reminders are stored but nothing is registered
// to fire, which happens after a manual database restore.
func checkTriggers(ctx *cli.Context) error {
	data, err := ctx.Store.LoadAll()
	if err != nil || data == nil {
		return err
	}
	pending, err := ctx.Queue.Pending(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to list triggers: %w", err)
	}
	if len(pending) > 0 {
		return nil
	}
	for _, r := range data.Reminders {
		if r.RepeatType.IsRepeating() || !r.IsPast(ctx.Now()) {
			return fmt.Errorf("%d reminders stored but no triggers registered - run '%s tui' or re-import to reschedule", len(data.Reminders), constants.AppName)
		}
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if !utils.ValidateTimezone(now.Location().String()) {
		return fmt.Errorf("local timezone %q is unusable", now.Location())
	}
	return nil
}

func checkTray(*cli.Context) error {
	if err := notifier.TrayStatus(); err != nil {
		return fmt.Errorf("tray app not reachable, notifications will not be shown: %w", err)
	}
	return nil
}
