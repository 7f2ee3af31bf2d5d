package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/cli/backups"
	"github.com/julianstephens/careminder/internal/cli/reminders"
	"github.com/julianstephens/careminder/internal/cli/system"
	"github.com/julianstephens/careminder/internal/config"
	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/i18n"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/metrics"
	"github.com/julianstephens/careminder/internal/utils"
)

var CLI struct {
	Version        kong.VersionFlag
	Config         string `help:"SQLite file path, PostgreSQL connection string, or \"keyring\" to use the stored connection string. PostgreSQL credentials must NOT be embedded in the connection string." type:"string" default:"${default_config}" env:"CAREMINDER_CONFIG"`
	Lang           string `help:"Interface language (en or fi). Defaults to the system locale." env:"CAREMINDER_LANG"`
	Timezone       string `help:"IANA time zone used to read reminder times. Defaults to the system zone." env:"CAREMINDER_TZ"`
	BoundRecurring bool   `help:"Stop daily and weekly reminders after their end date." default:"true" negatable:"" env:"CAREMINDER_BOUND_RECURRING"`
	Debug          bool   `help:"Enable debug logging to stderr." env:"CAREMINDER_DEBUG"`

	Init    system.InitCmd         `cmd:"" help:"Initialize careminder storage."`
	Migrate system.MigrateCmd      `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd       `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd          `cmd:"" help:"Launch the interactive reminder screen." default:"1"`
	Import  reminders.ImportCmd    `cmd:"" help:"Load reminders from a scanned QR code or deep link, replacing the current set."`
	List    reminders.ListCmd      `cmd:"" help:"Show the active reminders."`
	Export  reminders.ExportCmd    `cmd:"" help:"Print the active reminders as a deep link."`
	Delete  reminders.DeleteAllCmd `cmd:"" name:"delete-all" help:"Delete every reminder and cancel its notifications."`
	Pending reminders.PendingCmd   `cmd:"" help:"List registered notification triggers."`
	Daemon  system.DaemonCmd       `cmd:"" help:"Fire reminder notifications as they come due."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Report whether the OS keyring is usable."`
	} `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

// selfLoading commands open the store themselves, or do not need it.
func selfLoading(command string) bool {
	return command == "init" || command == "doctor" || strings.HasPrefix(command, "keyring")
}

func main() {
	// .env values only fill variables that are not already set
	if err := config.LoadEnv(config.DefaultEnvFiles()...); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Care reminders from a caregiver's QR code, delivered as desktop notifications"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	command := ctx.Command()

	target, err := config.Resolve(CLI.Config)
	if err != nil {
		if !strings.HasPrefix(command, "keyring") {
			errors.Fatal(err)
		}
		// keyring commands must work while the stored target is unusable
		path, _ := config.ExpandHome(constants.DefaultConfigPath)
		target = config.Target{Location: path, Source: config.SourceFlag}
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: target.Dir()}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	lang := i18n.Detect()
	if CLI.Lang != "" {
		if lang, err = i18n.Parse(CLI.Lang); err != nil {
			errors.Fatalf("%v (supported: en, fi)", err)
		}
	}

	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		errors.Fatal(err)
	}

	opts := cli.Options{
		Lang:           lang,
		Location:       loc,
		BoundRecurring: CLI.BoundRecurring,
	}
	if strings.HasPrefix(command, "daemon") && CLI.Daemon.MetricsAddr != "" {
		opts.Metrics = metrics.New()
	}

	store := target.Open()
	appCtx := cli.NewContext(target, store, opts)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCtx.Ctx = sigCtx

	if !selfLoading(command) {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
		defer store.Close()
	}

	logger.Debug("Running command", "command", command, "store", target.Describe(), "lang", lang)
	if err := ctx.Run(appCtx); err != nil {
		stop()
		errors.Fatal(err)
	}
}
