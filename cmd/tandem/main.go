package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/tandem/internal/cli"
	"github.com/julianstephens/tandem/internal/config"
	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/errors"
	"github.com/julianstephens/tandem/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	DB      string `help:"SQLite database path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string; use the OS keyring or .pgpass instead."`
	Config  string `help:"Config directory." type:"path" default:"~/.config/tandem"`
	Debug   bool   `help:"Log debug output to stderr."`
	TZ      string `name:"tz" help:"Timezone for window checks, overriding the settings file (e.g. America/Chicago)."`

	Init    cli.InitCmd    `cmd:"" help:"Initialize tandem storage and settings."`
	Migrate cli.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  cli.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`

	Plan   cli.PlanCmd   `cmd:"" help:"Plan the coming week with your partner." default:"1"`
	Review cli.ReviewCmd `cmd:"" help:"Review how the week went."`
	Status cli.StatusCmd `cmd:"" help:"Show this week's planning and review status."`
	Streak cli.StreakCmd `cmd:"" help:"Show your weekly review streak."`

	User struct {
		Add  cli.UserAddCmd  `cmd:"" help:"Add a user."`
		Pair cli.UserPairCmd `cmd:"" help:"Pair two users as partners."`
		List cli.UserListCmd `cmd:"" help:"List users."`
	} `cmd:"" help:"Manage users."`
	Login  cli.LoginCmd  `cmd:"" help:"Sign in as a user."`
	Logout cli.LogoutCmd `cmd:"" help:"Sign out."`
	Whoami cli.WhoamiCmd `cmd:"" help:"Show the signed-in user."`

	Task struct {
		Add  cli.TaskAddCmd  `cmd:"" help:"Add a task to a week."`
		List cli.TaskListCmd `cmd:"" help:"List a week's tasks."`
	} `cmd:"" help:"Manage tasks."`

	Progress struct {
		Show  cli.ProgressShowCmd  `cmd:"" help:"Show saved wizard progress." default:"1"`
		Clear cli.ProgressClearCmd `cmd:"" help:"Discard saved wizard progress."`
	} `cmd:"" help:"Inspect saved wizard progress."`

	Settings struct {
		List cli.SettingsListCmd `cmd:"" help:"List settings." default:"1"`
		Get  cli.SettingsGetCmd  `cmd:"" help:"Print one setting."`
		Set  cli.SettingsSetCmd  `cmd:"" help:"Change a setting."`
	} `cmd:"" help:"Manage application settings."`

	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`

	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`

	Troubleshoot struct {
		DBPath   cli.DebugDBPathCmd   `cmd:"" name:"db-path" help:"Show database path."`
		DumpTask cli.DebugDumpTaskCmd `cmd:"" help:"Dump task data as JSON."`
		DumpWeek cli.DebugDumpWeekCmd `cmd:"" help:"Dump a week and its tasks as JSON."`
	} `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`

	Notify cli.NotifyCmd `cmd:"" help:"Announce open planning and review windows (run from a timer)."`
}

// Commands that manage their own connection or never touch the database.
var skipLoad = map[string]bool{
	"init":     true,
	"migrate":  true,
	"doctor":   true,
	"keyring":  true,
	"settings": true,
	"logout":   true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Weekly planning and review for couples"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configDir := config.ExpandHome(CLI.Config)
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	command := kctx.Command()
	if i := strings.IndexByte(command, ' '); i != -1 {
		command = command[:i]
	}

	settings, err := config.Load(config.Path(configDir))
	if err != nil && command != "init" && command != "doctor" {
		errors.Fatal(err)
	}
	if CLI.TZ != "" {
		if err := settings.Set(constants.SettingTimezone, CLI.TZ); err != nil {
			errors.Fatalf("invalid --tz %q: %v", CLI.TZ, err)
		}
	}

	store, err := cli.Connect(CLI.DB)
	if err != nil {
		errors.Fatalf("failed to open database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appCtx := &cli.Context{
		Ctx:       ctx,
		Store:     store,
		Settings:  settings,
		ConfigDir: configDir,
	}

	if !skipLoad[command] {
		if err := store.Load(ctx); err != nil {
			errors.Fatal(err)
		}
	}

	err = kctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}
	errors.Fatal(err)
}
