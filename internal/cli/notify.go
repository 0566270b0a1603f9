package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/tandem/internal/logger"
	"github.com/julianstephens/tandem/internal/notifier"
)

type sender interface {
	Notify(ctx context.Context, text string) error
}

// newSender builds the tray notifier. Tests replace it.
var newSender = func() sender { return notifier.New() }

// NotifyCmd announces planning and review windows. It is meant to run from
// cron or a launchd/systemd timer once a minute.
type NotifyCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
	All    bool `help:"Announce every open window that still needs attention, not only ones that just opened."`
}

func (c *NotifyCmd) Run(ctx *Context) error {
	if !ctx.Settings.Notifications.Enabled {
		if c.DryRun {
			fmt.Println("Notifications are disabled in settings.")
		}
		return nil
	}

	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	ws, loc, err := ctx.windows()
	if err != nil {
		return err
	}

	reminders, err := notifier.Reminders(ctx.context(), ctx.Store, user.ID, ws, ctx.now(), loc, !c.All)
	if err != nil {
		return err
	}
	if len(reminders) == 0 {
		if c.DryRun {
			fmt.Println("Nothing to announce.")
		}
		return nil
	}

	n := newSender()
	for _, r := range reminders {
		if c.DryRun {
			fmt.Println("[DryRun] " + r.Text)
			continue
		}
		if err := n.Notify(ctx.context(), r.Text); err != nil {
			// One failed reminder should not hide the other.
			logger.Warn("failed to send notification", "flow", r.Flow, "week", r.Week, "error", err)
			fmt.Printf("Failed to send notification: %v\n", err)
		}
	}
	return nil
}
