package cli

import (
	"fmt"

	"github.com/julianstephens/tandem/internal/config"
)

type InitCmd struct {
	Force bool `help:"Rewrite the settings file with defaults even if it exists."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(ctx.context()); err != nil {
		return err
	}
	fmt.Printf("Initialized tandem storage at: %s\n", ctx.Store.GetConfigPath())

	path := ctx.SettingsPath()
	if fileExists(path) && !c.Force {
		fmt.Printf("Settings already present at: %s\n", path)
		return nil
	}
	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	fmt.Printf("Wrote default settings to: %s\n", path)
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return fmt.Errorf("storage backend does not support migrations")
	}

	count, err := m.Migrate(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
