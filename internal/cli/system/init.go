package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/config"
)

type InitCmd struct {
	Force  bool   `help:"Delete the existing SQLite database before initializing."`
	Source string `help:"Store (SQLite path or postgres:// URL) to copy reminders from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force && !ctx.Target.IsPostgres() {
		if err := c.removeExisting(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized careminder storage at: %s\n", ctx.Target.Describe())

	if c.Source != "" {
		ctx.Printf("Copying reminders from: %s\n", c.Source)
		n, err := c.copyReminders(ctx)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Printf("Copied %d reminders.\n", n)
	}
	return nil
}

func (c *InitCmd) removeExisting(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// copyReminders loads the source store's reminder set and imports it
// through the session so triggers are registered for it.
func (c *InitCmd) copyReminders(ctx *cli.Context) (int, error) {
	target, err := config.Resolve(c.Source)
	if err != nil {
		return 0, err
	}
	source := target.Open()
	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	data, err := source.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to read source reminders: %w", err)
	}
	if data == nil {
		return 0, nil
	}

	if err := ctx.Store.ReplaceAll(*data); err != nil {
		return 0, fmt.Errorf("failed to store reminders: %w", err)
	}
	if ctx.Session.Restore(ctx.Context()) == nil {
		return 0, fmt.Errorf("copied reminders could not be read back")
	}
	return len(data.Reminders), nil
}
