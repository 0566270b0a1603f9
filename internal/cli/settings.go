package cli

import (
	"fmt"

	"github.com/julianstephens/tandem/internal/config"
)

type SettingsListCmd struct{}

func (c *SettingsListCmd) Run(ctx *Context) error {
	fmt.Printf("Settings (%s):\n", ctx.SettingsPath())
	for _, key := range config.Keys() {
		value, err := ctx.Settings.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(default)"
		}
		fmt.Printf("  %-22s %s\n", key, value)
	}
	return nil
}

type SettingsGetCmd struct {
	Key string `arg:"" help:"Setting key, e.g. planning.opens."`
}

func (c *SettingsGetCmd) Run(ctx *Context) error {
	value, err := ctx.Settings.Get(c.Key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting key, e.g. review.closes."`
	Value string `arg:"" help:"New value, e.g. \"Sunday 21:00\"."`
}

func (c *SettingsSetCmd) Run(ctx *Context) error {
	settings := ctx.Settings
	if err := settings.Set(c.Key, c.Value); err != nil {
		return err
	}
	if err := config.Save(ctx.SettingsPath(), settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Settings = settings

	value, _ := settings.Get(c.Key)
	fmt.Printf("✓ %s = %s\n", c.Key, value)
	return nil
}
